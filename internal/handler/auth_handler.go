package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskboard-service/internal/service"
	"taskboard-service/pkg/logger"
	"taskboard-service/prometheus"
)

// AuthHandler serves tenant registration, login and session endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterTenant handles POST /api/auth/register-tenant
func (h *AuthHandler) RegisterTenant(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.RegisterTenantCounter.Inc()

	var req struct {
		TenantName    string `json:"tenantName"`
		Subdomain     string `json:"subdomain"`
		AdminEmail    string `json:"adminEmail"`
		AdminPassword string `json:"adminPassword"`
		AdminFullName string `json:"adminFullName"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse tenant registration request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return validationError(c, map[string]string{"body": "invalid request body"})
	}

	fields := map[string]string{}
	if req.TenantName == "" {
		fields["tenantName"] = "is required"
	}
	if req.Subdomain == "" {
		fields["subdomain"] = "is required"
	}
	if !validEmail(req.AdminEmail) {
		fields["adminEmail"] = "must be a valid email"
	}
	if len(req.AdminPassword) < 8 {
		fields["adminPassword"] = "must be at least 8 characters"
	}
	if req.AdminFullName == "" {
		fields["adminFullName"] = "is required"
	}
	if len(fields) > 0 {
		prometheus.RecordAuthError("invalid_registration")
		return validationError(c, fields)
	}

	result, err := h.auth.RegisterTenant(service.RegisterTenantInput{
		TenantName:    req.TenantName,
		Subdomain:     req.Subdomain,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
		AdminFullName: req.AdminFullName,
	}, c.RealIP())
	if err != nil {
		log.Error("Tenant registration failed", zap.String("subdomain", req.Subdomain), zap.Error(err))
		prometheus.RecordAuthError("registration_failed")
		return fail(c, err)
	}

	log.Info("Tenant registered",
		zap.String("subdomain", result.Subdomain),
		zap.String("tenant_id", result.TenantID.String()))
	return okMessage(c, http.StatusCreated, "Tenant registered successfully", result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email           string `json:"email"`
		Password        string `json:"password"`
		TenantSubdomain string `json:"tenantSubdomain"`
		TenantID        string `json:"tenantId"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse login request", zap.Error(err))
		prometheus.RecordAuthError("invalid_request")
		return validationError(c, map[string]string{"body": "invalid request body"})
	}

	fields := map[string]string{}
	if !validEmail(req.Email) {
		fields["email"] = "must be a valid email"
	}
	if req.Password == "" {
		fields["password"] = "is required"
	}
	var tenantID *uuid.UUID
	if req.TenantID != "" {
		id, err := uuid.Parse(req.TenantID)
		if err != nil {
			fields["tenantId"] = "must be a valid id"
		} else {
			tenantID = &id
		}
	}
	if len(fields) > 0 {
		prometheus.RecordAuthError("invalid_login")
		return validationError(c, fields)
	}

	result, err := h.auth.Login(service.LoginInput{
		Email:           req.Email,
		Password:        req.Password,
		TenantSubdomain: req.TenantSubdomain,
		TenantID:        tenantID,
	})
	if err != nil {
		log.Warn("Login failed", zap.String("email", req.Email), zap.Error(err))
		prometheus.RecordAuthError("login_failed")
		return fail(c, err)
	}

	log.Info("User logged in",
		zap.String("email", result.User.Email),
		zap.String("role", result.User.Role))
	return ok(c, http.StatusOK, result)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	profile, svcErr := h.auth.CurrentUser(p.UserID)
	if svcErr != nil {
		return fail(c, svcErr)
	}
	return ok(c, http.StatusOK, profile)
}

// Logout handles POST /api/auth/logout. Tokens are stateless; this only
// leaves an audit trail.
func (h *AuthHandler) Logout(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	h.auth.Logout(p, c.RealIP())
	return okMessage(c, http.StatusOK, "Logged out successfully", nil)
}
