package routes

import (
	"github.com/labstack/echo/v4"

	"admin-system/internal/controllers"
)

func registerUserRoutes(g *echo.Group, ctrl *controllers.UserController) {
	g.GET("/users", ctrl.GetUsers)
	g.GET("/users/simple", ctrl.GetSimpleUsers)
	g.GET("/users/check/unique", ctrl.CheckUnique)
	g.GET("/users/export/excel", ctrl.ExportExcel)
	g.GET("/users/import/template", ctrl.ImportTemplate)
	g.POST("/users/import/excel", ctrl.ImportExcel)
	g.POST("/users", ctrl.CreateUser)
	g.POST("/users/batch_delete", ctrl.BatchDeleteUsers)
	g.POST("/users/batch/status", ctrl.BatchUpdateStatus)
	g.GET("/users/:id", ctrl.FindUser)
	g.GET("/users/:id/subordinates", ctrl.GetSubordinates)
	g.PUT("/users/:id", ctrl.UpdateUser)
	g.PUT("/users/:id/profile", ctrl.UpdateProfile)
	g.DELETE("/users/:id", ctrl.DeleteUser)
	g.POST("/users/:id/reset-password", ctrl.ResetPassword)
	g.POST("/users/:id/change-password", ctrl.ChangePassword)
}
