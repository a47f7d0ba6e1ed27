package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskboard-service/internal/model"
	"taskboard-service/internal/service"
	"taskboard-service/pkg/logger"
)

// TenantHandler serves tenant detail, update and the super-admin listing.
type TenantHandler struct {
	tenants *service.TenantService
}

// NewTenantHandler creates a TenantHandler.
func NewTenantHandler(tenants *service.TenantService) *TenantHandler {
	return &TenantHandler{tenants: tenants}
}

// Get handles GET /api/tenants/:tenantId
func (h *TenantHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		return validationError(c, map[string]string{"tenantId": "must be a valid id"})
	}

	detail, svcErr := h.tenants.Get(p, tenantID)
	if svcErr != nil {
		return fail(c, svcErr)
	}
	return ok(c, http.StatusOK, detail)
}

// Update handles PUT /api/tenants/:tenantId
func (h *TenantHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	p, err := principal(c)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		return validationError(c, map[string]string{"tenantId": "must be a valid id"})
	}

	var req struct {
		Name             *string `json:"name"`
		Status           *string `json:"status"`
		SubscriptionPlan *string `json:"subscriptionPlan"`
		MaxUsers         *int    `json:"maxUsers"`
		MaxProjects      *int    `json:"maxProjects"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant update request", zap.Error(err))
		return validationError(c, map[string]string{"body": "invalid request body"})
	}

	fields := map[string]string{}
	if req.Name != nil && *req.Name == "" {
		fields["name"] = "must not be empty"
	}
	if req.Status != nil && !model.ValidTenantStatus(*req.Status) {
		fields["status"] = "must be one of active, suspended, trial"
	}
	if req.SubscriptionPlan != nil && !model.ValidPlan(*req.SubscriptionPlan) {
		fields["subscriptionPlan"] = "must be one of free, pro, enterprise"
	}
	if len(fields) > 0 {
		return validationError(c, fields)
	}

	result, svcErr := h.tenants.Update(p, tenantID, service.TenantUpdate{
		Name:             req.Name,
		Status:           req.Status,
		SubscriptionPlan: req.SubscriptionPlan,
		MaxUsers:         req.MaxUsers,
		MaxProjects:      req.MaxProjects,
	})
	if svcErr != nil {
		log.Warn("Tenant update rejected", zap.String("tenant_id", tenantID.String()), zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("Tenant updated", zap.String("tenant_id", tenantID.String()))
	return okMessage(c, http.StatusOK, "Tenant updated successfully", result)
}

// List handles GET /api/tenants
func (h *TenantHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	page, limit := pageParams(c)
	result, svcErr := h.tenants.List(p, service.TenantListFilter{
		Status:           c.QueryParam("status"),
		SubscriptionPlan: c.QueryParam("subscriptionPlan"),
		Page:             page,
		Limit:            limit,
	})
	if svcErr != nil {
		return fail(c, svcErr)
	}
	return ok(c, http.StatusOK, result)
}
