package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"admin-system/internal/dto"
	"admin-system/internal/services"
	"admin-system/pkg/utils"
)

type UserController struct {
	userService services.UserServiceInterface
	logger      *zap.Logger
}

func NewUserController(userService services.UserServiceInterface, logger *zap.Logger) *UserController {
	return &UserController{userService: userService, logger: logger}
}

func parseIDParam(ctx echo.Context) (string, error) {
	id := ctx.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid id format")
	}
	return id, nil
}

func (c *UserController) GetUsers(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	users, total, err := c.userService.GetUsers(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, users, "users fetched", http.StatusOK, total)
}

func (c *UserController) GetSimpleUsers(ctx echo.Context) error {
	var userStatus *int
	if raw := ctx.QueryParam("user_status"); raw != "" {
		status, err := strconv.Atoi(raw)
		if err != nil {
			return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid user_status"))
		}
		userStatus = &status
	}
	var deptID *string
	if raw := ctx.QueryParam("dept_id"); raw != "" {
		if _, err := uuid.Parse(raw); err != nil {
			return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid dept_id"))
		}
		deptID = &raw
	}
	users, err := c.userService.GetSimpleUsers(ctx.Request().Context(), userStatus, deptID)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, users, "users fetched", http.StatusOK)
}

func (c *UserController) FindUser(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	user, err := c.userService.FindUser(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, user, "user fetched", http.StatusOK)
}

func (c *UserController) CreateUser(ctx echo.Context) error {
	var payload dto.CreateUserDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	user, err := c.userService.CreateUser(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, user, "user created", http.StatusCreated)
}

func (c *UserController) UpdateUser(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.UpdateUserDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	user, err := c.userService.UpdateUser(ctx.Request().Context(), id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, user, "user updated", http.StatusOK)
}

// GetSubordinates lists the users reporting to the given user.
func (c *UserController) GetSubordinates(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	users, err := c.userService.GetSubordinates(ctx.Request().Context(), id)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, users, "subordinates fetched", http.StatusOK)
}

// UpdateProfile updates the self-service profile fields. Users may only
// update their own unless they are superusers.
func (c *UserController) UpdateProfile(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	reqCtx := ctx.Request().Context()
	currentID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if currentID != id && !utils.IsSuperuserFromCtx(reqCtx) {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusForbidden, "cannot update another user's profile"))
	}
	var payload dto.UpdateProfileDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	user, err := c.userService.UpdateProfile(reqCtx, id, payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, user, "profile updated", http.StatusOK)
}

func (c *UserController) DeleteUser(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	hard := ctx.QueryParam("hard") == "true"
	if err := c.userService.DeleteUser(ctx.Request().Context(), id, hard); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "user deleted", http.StatusOK)
}

func (c *UserController) BatchDeleteUsers(ctx echo.Context) error {
	var payload dto.BatchDeleteUsersDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result, err := c.userService.BatchDeleteUsers(ctx.Request().Context(), payload.IDs)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "batch delete finished", http.StatusOK)
}

func (c *UserController) BatchUpdateStatus(ctx echo.Context) error {
	var payload dto.BatchUpdateUserStatusDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result, err := c.userService.BatchUpdateStatus(ctx.Request().Context(), payload)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "statuses updated", http.StatusOK)
}

// ResetPassword sets a user's password without the old one. Superusers
// only.
func (c *UserController) ResetPassword(ctx echo.Context) error {
	if !utils.IsSuperuserFromCtx(ctx.Request().Context()) {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusForbidden, "superuser required"))
	}
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	var payload dto.ResetPasswordDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if err := c.userService.ResetPassword(ctx.Request().Context(), id, payload.NewPassword); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "password reset", http.StatusOK)
}

// ChangePassword requires the old password. Users may only change their
// own unless they are superusers.
func (c *UserController) ChangePassword(ctx echo.Context) error {
	id, err := parseIDParam(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	reqCtx := ctx.Request().Context()
	currentID, err := utils.GetUserIDFromCtx(reqCtx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if currentID != id && !utils.IsSuperuserFromCtx(reqCtx) {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusForbidden, "cannot change another user's password"))
	}
	var payload dto.ChangePasswordDTO
	if err := ctx.Bind(&payload); err != nil {
		return utils.ErrorResponse(ctx, echo.NewHTTPError(http.StatusBadRequest, "invalid request body"))
	}
	if err := ctx.Validate(&payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	if err := c.userService.ChangePassword(reqCtx, id, payload); err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, struct{}{}, "password changed", http.StatusOK)
}

func (c *UserController) CheckUnique(ctx echo.Context) error {
	field := ctx.QueryParam("field")
	value := ctx.QueryParam("value")
	excludeID := ctx.QueryParam("exclude_id")
	result, err := c.userService.CheckUnique(ctx.Request().Context(), field, value, excludeID)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	return utils.SuccessResponse(ctx, result, "uniqueness checked", http.StatusOK)
}

var userExportHeaders = []string{
	"Username", "Name", "Email", "Mobile", "Gender", "User Type", "Status",
	"Department", "Last Login", "Created At",
}

func derefOr(p *string, fallback string) string {
	if p == nil {
		return fallback
	}
	return *p
}

func userToExportRow(item dto.UserDTO) []interface{} {
	return []interface{}{
		item.Username, derefOr(item.Name, ""), derefOr(item.Email, ""), derefOr(item.Mobile, ""),
		item.GenderDisplay, item.UserTypeDisplay, item.UserStatusDisplay,
		derefOr(item.DeptName, ""), derefOr(item.LastLogin, ""), item.CreatedAt,
	}
}

// ExportExcel streams the filtered user list as an XLSX workbook.
func (c *UserController) ExportExcel(ctx echo.Context) error {
	filter := utils.ParseFilterFromQuery(ctx.Request().URL.Query())
	users, err := c.userService.GetUsersForExport(ctx.Request().Context(), filter)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	f := excelize.NewFile()
	sheet := "Users"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &userExportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "J1", style)
	for i, item := range users {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := userToExportRow(item)
		f.SetSheetRow(sheet, cell, &row)
	}
	f.SetColWidth(sheet, "A", "D", 22)
	f.SetColWidth(sheet, "H", "J", 22)

	return writeXLSX(ctx, f, fmt.Sprintf("users_%s.xlsx", time.Now().Format("2006-01-02")))
}

var userImportHeaders = []string{
	"Username", "Password", "Name", "Email", "Mobile", "Gender (0/1/2)", "Birthday (YYYY-MM-DD)", "City", "Address",
}

// ImportTemplate serves an empty workbook with the expected columns.
func (c *UserController) ImportTemplate(ctx echo.Context) error {
	f := excelize.NewFile()
	sheet := "Users"
	f.SetSheetName("Sheet1", sheet)
	f.SetSheetRow(sheet, "A1", &userImportHeaders)
	style, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellStyle(sheet, "A1", "I1", style)
	f.SetColWidth(sheet, "A", "I", 22)
	return writeXLSX(ctx, f, "users_import_template.xlsx")
}

// ImportExcel accepts a workbook in the template layout and creates a
// user per data row.
func (c *UserController) ImportExcel(ctx echo.Context) error {
	rows, err := readUploadRows(ctx)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}

	payloads := make([]dto.CreateUserDTO, 0, len(rows))
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
		payload := dto.CreateUserDTO{
			Username:   get(0),
			Password:   get(1),
			UserStatus: 1,
			UserType:   1,
		}
		if v := get(2); v != "" {
			payload.Name = &v
		}
		if v := get(3); v != "" {
			payload.Email = &v
		}
		if v := get(4); v != "" {
			payload.Mobile = &v
		}
		if v := get(5); v != "" {
			if gender, err := strconv.Atoi(v); err == nil {
				payload.Gender = gender
			}
		}
		if v := get(6); v != "" {
			payload.Birthday = &v
		}
		if v := get(7); v != "" {
			payload.City = &v
		}
		if v := get(8); v != "" {
			payload.Address = &v
		}
		if err := ctx.Validate(&payload); err != nil {
			invalid = append(invalid, fmt.Sprintf("row %d (%s): %v", rowIdx+2, payload.Username, err))
			continue
		}
		payloads = append(payloads, payload)
	}

	result, err := c.userService.ImportUsers(ctx.Request().Context(), payloads)
	if err != nil {
		return utils.ErrorResponse(ctx, err)
	}
	result.FailCount += len(invalid)
	result.Errors = append(invalid, result.Errors...)
	return utils.SuccessResponse(ctx, result, "import finished", http.StatusOK)
}

func writeXLSX(ctx echo.Context, f *excelize.File, fileName string) error {
	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Response().Header().Set("Content-Disposition", "attachment; filename="+fileName)
	ctx.Response().WriteHeader(http.StatusOK)
	return f.Write(ctx.Response().Writer)
}

// readUploadRows opens the uploaded "file" form part and returns its data
// rows, header excluded.
func readUploadRows(ctx echo.Context) ([][]string, error) {
	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "could not open uploaded file")
	}
	defer src.Close()

	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "file is not a valid XLSX workbook")
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "could not read workbook rows")
	}
	if len(rows) <= 1 {
		return [][]string{}, nil
	}
	return rows[1:], nil
}
