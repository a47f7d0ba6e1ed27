package main

import (
	"taskboard-service/internal/audit"
	"taskboard-service/internal/handler"
	"taskboard-service/internal/middleware"
	"taskboard-service/internal/model"
	"taskboard-service/internal/service"
	"taskboard-service/pkg/config"
	"taskboard-service/pkg/database"
	"taskboard-service/pkg/jwtutil"
	"taskboard-service/pkg/logger"
	"taskboard-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(&cfg.Log); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting taskboard service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if err := database.Migrate(db,
		&model.Tenant{},
		&model.User{},
		&model.Project{},
		&model.Task{},
		&model.AuditLog{},
	); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed")

	// Seed the super admin account when configured
	if err := service.EnsureSuperAdmin(db, &cfg.Bootstrap); err != nil {
		log.Fatal("Failed to bootstrap super admin", zap.Error(err))
	}

	// Initialize Prometheus metrics
	prometheus.InitMetrics()
	log.Info("Prometheus metrics initialized")

	// Wire services and handlers
	jwtUtil := jwtutil.New(&cfg.JWT)
	recorder := audit.NewRecorder(db, log)

	authService := service.NewAuthService(db, jwtUtil, recorder)
	tenantService := service.NewTenantService(db, recorder)
	userService := service.NewUserService(db, recorder)
	projectService := service.NewProjectService(db, recorder)
	taskService := service.NewTaskService(db, recorder)

	authHandler := handler.NewAuthHandler(authService)
	tenantHandler := handler.NewTenantHandler(tenantService)
	userHandler := handler.NewUserHandler(userService)
	projectHandler := handler.NewProjectHandler(projectService)
	taskHandler := handler.NewTaskHandler(taskService)
	healthHandler := handler.NewHealthHandler(db)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware())
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/api/health", healthHandler.Check)
	e.GET("/metrics", echo.WrapHandler(prometheus.GetPrometheusHandler()))

	api := e.Group("/api")
	api.POST("/auth/register-tenant", authHandler.RegisterTenant)
	api.POST("/auth/login", authHandler.Login)

	// Everything below requires a valid bearer token
	protected := api.Group("", middleware.JWTAuthMiddleware(jwtUtil))

	protected.GET("/auth/me", authHandler.Me)
	protected.POST("/auth/logout", authHandler.Logout)

	protected.GET("/tenants", tenantHandler.List)
	protected.GET("/tenants/:tenantId", tenantHandler.Get)
	protected.PUT("/tenants/:tenantId", tenantHandler.Update)

	protected.POST("/tenants/:tenantId/users", userHandler.Create)
	protected.GET("/tenants/:tenantId/users", userHandler.List)
	protected.PUT("/users/:userId", userHandler.Update)
	protected.DELETE("/users/:userId", userHandler.Delete)

	protected.POST("/projects", projectHandler.Create)
	protected.GET("/projects", projectHandler.List)
	protected.GET("/projects/:projectId", projectHandler.Get)
	protected.PUT("/projects/:projectId", projectHandler.Update)
	protected.DELETE("/projects/:projectId", projectHandler.Delete)

	protected.POST("/projects/:projectId/tasks", taskHandler.Create)
	protected.GET("/projects/:projectId/tasks", taskHandler.List)
	protected.PUT("/tasks/:taskId", taskHandler.Update)
	protected.PATCH("/tasks/:taskId/status", taskHandler.UpdateStatus)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
