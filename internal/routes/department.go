package routes

import (
	"github.com/labstack/echo/v4"

	"admin-system/internal/controllers"
)

func registerDepartmentRoutes(g *echo.Group, ctrl *controllers.DepartmentController) {
	g.GET("/departments", ctrl.GetDepartments)
	g.GET("/departments/tree", ctrl.GetTree)
	g.GET("/departments/simple", ctrl.GetSimpleDepartments)
	g.GET("/departments/stats", ctrl.GetStats)
	g.GET("/departments/search", ctrl.Search)
	g.GET("/departments/export/excel", ctrl.ExportExcel)
	g.GET("/departments/import/template", ctrl.ImportTemplate)
	g.POST("/departments/import/excel", ctrl.ImportExcel)
	g.POST("/departments", ctrl.CreateDepartment)
	g.POST("/departments/batch_delete", ctrl.BatchDeleteDepartments)
	g.POST("/departments/batch/status", ctrl.BatchUpdateStatus)
	g.POST("/departments/move", ctrl.MoveDepartment)
	g.GET("/departments/:id", ctrl.FindDepartment)
	g.GET("/departments/:id/children", ctrl.GetChildren)
	g.PUT("/departments/:id", ctrl.UpdateDepartment)
	g.DELETE("/departments/:id", ctrl.DeleteDepartment)
	g.GET("/departments/:id/users", ctrl.GetDeptUsers)
	g.POST("/departments/:id/users", ctrl.AddUsers)
	g.DELETE("/departments/:id/users", ctrl.RemoveUsers)
}
