package routes

import (
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"admin-system/internal/controllers"
	"admin-system/internal/repositories"
	"admin-system/internal/services"
	"admin-system/pkg/config"
	"admin-system/pkg/middleware"
	"admin-system/pkg/service"
)

// InitRouter wires repositories, services and controllers and mounts the
// whole API under /api. Everything except login and refresh requires a
// valid access token.
func InitRouter(e *echo.Echo, dbConn *pgxpool.Pool, redisClient *redis.Client, jwtSvc service.JWTService, logger *zap.Logger, cfg *config.Config) {
	authMW := middleware.NewAuthMiddleware(jwtSvc, logger)
	txManager := repositories.NewTxManager(dbConn)

	userRepo := repositories.NewUserRepository(dbConn, logger)
	departmentRepo := repositories.NewDepartmentRepository(dbConn, logger)
	cacheRepo := repositories.NewRedisCacheRepository(redisClient, cfg.Cache.Prefix)

	departmentService := services.NewDepartmentService(departmentRepo, userRepo, cacheRepo, txManager, cfg.Cache.DefaultExpire, logger)
	userService := services.NewUserService(userRepo, departmentService, cfg.Auth.ResetPassword, logger)
	authService := services.NewAuthService(userRepo, jwtSvc, logger)

	authCtrl := controllers.NewAuthController(authService, logger)
	userCtrl := controllers.NewUserController(userService, logger)
	departmentCtrl := controllers.NewDepartmentController(departmentService, logger)

	api := e.Group("/api")
	secured := api.Group("", authMW.Auth)

	registerAuthRoutes(api, secured, authCtrl)
	registerUserRoutes(secured, userCtrl)
	registerDepartmentRoutes(secured, departmentCtrl)
}
