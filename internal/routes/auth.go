package routes

import (
	"github.com/labstack/echo/v4"

	"admin-system/internal/controllers"
)

func registerAuthRoutes(public *echo.Group, secured *echo.Group, ctrl *controllers.AuthController) {
	public.POST("/auth/login", ctrl.Login)
	public.POST("/auth/refresh", ctrl.Refresh)
	secured.GET("/auth/me", ctrl.Me)
}
