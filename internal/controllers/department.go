package controllers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"admin-system/internal/dto"
	"admin-system/internal/services"
	"admin-system/pkg/utils"
)

type DepartmentController struct {
	departmentService services.DepartmentServiceInterface
	logger            *zap.Logger
}

func NewDepartmentController(departmentService services.DepartmentServiceInterface, logger *zap.Logger) *DepartmentController {
	return &DepartmentController{departmentService: departmentService, logger: logger}
}

func (c *DepartmentController) GetDepartments(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	departments, total, err := c.departmentService.GetDepartments(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, departments, "departments fetched", http.StatusOK, total)
}

func (c *DepartmentController) GetTree(ctx echo.Context) error {
	tree, err := c.departmentService.GetTree(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, tree, "department tree fetched", http.StatusOK)
}

func (c *DepartmentController) GetSimpleDepartments(ctx echo.Context) error {
	departments, err := c.departmentService.GetSimpleDepartments(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, departments, "departments fetched", http.StatusOK)
}

func (c *DepartmentController) GetStats(ctx echo.Context) error {
	stats, err := c.departmentService.GetStats(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, stats, "department stats fetched", http.StatusOK)
}

// Search returns matching departments together with their ancestors,
// shaped as trees.
func (c *DepartmentController) Search(ctx echo.Context) error {
	keyword := ctx.QueryParam("keyword")
	result, err := c.departmentService.SearchDepartments(ctx.Request().Context(), keyword)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "search finished", http.StatusOK)
}

func (c *DepartmentController) FindDepartment(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	department, err := c.departmentService.FindDepartment(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, department, "department fetched", http.StatusOK)
}

func (c *DepartmentController) GetChildren(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	children, err := c.departmentService.GetChildren(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, children, "children fetched", http.StatusOK)
}

func (c *DepartmentController) CreateDepartment(ctx echo.Context) error {
	var payload dto.CreateDepartmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	department, err := c.departmentService.CreateDepartment(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, department, "department created", http.StatusCreated)
}

func (c *DepartmentController) UpdateDepartment(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.UpdateDepartmentDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	department, err := c.departmentService.UpdateDepartment(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, department, "department updated", http.StatusOK)
}

func (c *DepartmentController) DeleteDepartment(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	hard := ctx.QueryParam("hard") == "true"
	if err := c.departmentService.DeleteDepartment(ctx.Request().Context(), id, hard); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "department deleted", http.StatusOK)
}

func (c *DepartmentController) BatchDeleteDepartments(ctx echo.Context) error {
	var payload dto.BatchDeleteDeptsDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result, err := c.departmentService.BatchDeleteDepartments(ctx.Request().Context(), payload.IDs)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "batch delete finished", http.StatusOK)
}

func (c *DepartmentController) BatchUpdateStatus(ctx echo.Context) error {
	var payload dto.BatchUpdateDeptStatusDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	count, err := c.departmentService.BatchUpdateStatus(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, map[string]int{"count": count}, "statuses updated", http.StatusOK)
}

func (c *DepartmentController) MoveDepartment(ctx echo.Context) error {
	var payload dto.MoveDeptDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	department, err := c.departmentService.MoveDepartment(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, department, "department moved", http.StatusOK)
}

func (c *DepartmentController) GetDeptUsers(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	includeChildren := ctx.QueryParam("include_children") == "true"
	users, err := c.departmentService.GetDeptUsers(ctx.Request().Context(), id, includeChildren)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, users, "department users fetched", http.StatusOK)
}

func (c *DepartmentController) AddUsers(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.DeptUsersDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	count, err := c.departmentService.AddUsers(ctx.Request().Context(), id, payload.UserIDs)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, dto.DeptUsersResultDTO{Count: count}, "users assigned", http.StatusOK)
}

func (c *DepartmentController) RemoveUsers(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.DeptUsersDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	count, err := c.departmentService.RemoveUsers(ctx.Request().Context(), id, payload.UserIDs)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, dto.DeptUsersResultDTO{Count: count}, "users unassigned", http.StatusOK)
}

var deptExportHeaders = []string{
	"Name", "Code", "Type", "Status", "Phone", "Email", "Level", "Lead", "Created At",
}

func deptToExportRow(item dto.DepartmentDTO) []interface{} {
	status := "inactive"
	if item.Status {
		status = "active"
	}
	return []interface{}{
		item.Name, derefOr(item.Code, ""), item.DeptTypeDisplay, status,
		derefOr(item.Phone, ""), derefOr(item.Email, ""), item.Level,
		derefOr(item.LeadName, ""), item.CreatedAt,
	}
}

// ExportExcel streams all departments as an XLSX workbook, level-ordered
// so the hierarchy reads top-down.
func (c *DepartmentController) ExportExcel(ctx echo.Context) error {
	departments, err := c.departmentService.GetAllDepartments(ctx.Request().Context())
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	f := excelize.NewFile()
	sheet := "Departments"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &deptExportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "I1", style)
	for i, item := range departments {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := deptToExportRow(item)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "A", "B", 25)
	f.SetColWidth(sheet, "E", "F", 22)

	return writeXLSX(ctx, f, fmt.Sprintf("departments_%s.xlsx", time.Now().Format("2006-01-02")))
}

var deptImportHeaders = []string{
	"Name", "Code", "Type (company/department/team/other)", "Phone", "Email", "Description",
}

// ImportTemplate serves an empty workbook with the expected columns.
func (c *DepartmentController) ImportTemplate(ctx echo.Context) error {
	f := excelize.NewFile()
	sheet := "Departments"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &deptImportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "F1", style)
	f.SetColWidth(sheet, "A", "F", 25)
	return writeXLSX(ctx, f, "departments_import_template.xlsx")
}

// ImportExcel accepts a workbook in the template layout and creates a
// root department per data row.
func (c *DepartmentController) ImportExcel(ctx echo.Context) error {
	rows, err := readUploadRows(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	payloads := make([]dto.CreateDepartmentDTO, 0, len(rows))
	invalid := []string{}
	for rowIdx, row := range rows {
		get := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		if get(0) == "" {
			continue
		}
		payload := dto.CreateDepartmentDTO{
			Name:     get(0),
			DeptType: get(2),
		}
		if v := get(1); v != "" {
			payload.Code = &v
		}
		if v := get(3); v != "" {
			payload.Phone = &v
		}
		if v := get(4); v != "" {
			payload.Email = &v
		}
		if v := get(5); v != "" {
			payload.Description = &v
		}
		if err := ctx.Validate(&payload); err != nil {
			invalid = append(invalid, fmt.Sprintf("row %d (%s): %v", rowIdx+2, payload.Name, err))
			continue
		}
		payloads = append(payloads, payload)
	}

	result, err := c.departmentService.ImportDepartments(ctx.Request().Context(), payloads)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result.FailCount += len(invalid)
	result.Errors = append(invalid, result.Errors...)
	return utils.SuccessResponse(ctx, result, "import finished", http.StatusOK)
}
