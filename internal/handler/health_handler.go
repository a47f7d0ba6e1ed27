package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskboard-service/pkg/logger"
)

// HealthHandler reports service and database health.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Check handles GET /api/health
func (h *HealthHandler) Check(c echo.Context) error {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.Ping()
	}
	if err != nil {
		logger.FromEcho(c).Error("Database health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"success":  false,
			"message":  "Service degraded",
			"db":       "down",
			"status":   "degraded",
			"database": "unreachable",
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success":  true,
		"message":  "Service is healthy",
		"db":       "up",
		"status":   "ok",
		"database": "connected",
	})
}
