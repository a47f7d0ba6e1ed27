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

// UserHandler serves tenant-scoped account management.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Create handles POST /api/tenants/:tenantId/users
func (h *UserHandler) Create(c echo.Context) error {
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
		Email    string `json:"email"`
		Password string `json:"password"`
		FullName string `json:"fullName"`
		Role     string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create user request", zap.Error(err))
		return validationError(c, map[string]string{"body": "invalid request body"})
	}

	fields := map[string]string{}
	if !validEmail(req.Email) {
		fields["email"] = "must be a valid email"
	}
	if len(req.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	if req.FullName == "" {
		fields["fullName"] = "is required"
	}
	if req.Role == "" {
		req.Role = model.RoleUser
	}
	if !model.ValidMemberRole(req.Role) {
		fields["role"] = "must be one of tenant_admin, user"
	}
	if len(fields) > 0 {
		return validationError(c, fields)
	}

	user, svcErr := h.users.Create(p, tenantID, service.CreateUserInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
	})
	if svcErr != nil {
		log.Warn("User creation rejected", zap.String("tenant_id", tenantID.String()), zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("User created", zap.String("tenant_id", tenantID.String()), zap.String("user_id", user.ID.String()))
	return okMessage(c, http.StatusCreated, "User created successfully", user)
}

// List handles GET /api/tenants/:tenantId/users
func (h *UserHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		return validationError(c, map[string]string{"tenantId": "must be a valid id"})
	}

	page, limit := pageParams(c)
	result, svcErr := h.users.List(p, tenantID, service.UserListFilter{
		Search: c.QueryParam("search"),
		Role:   c.QueryParam("role"),
		Page:   page,
		Limit:  limit,
	})
	if svcErr != nil {
		return fail(c, svcErr)
	}
	return ok(c, http.StatusOK, result)
}

// Update handles PUT /api/users/:userId
func (h *UserHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	p, err := principal(c)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return validationError(c, map[string]string{"userId": "must be a valid id"})
	}

	var req struct {
		FullName *string `json:"fullName"`
		Role     *string `json:"role"`
		IsActive *bool   `json:"isActive"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse user update request", zap.Error(err))
		return validationError(c, map[string]string{"body": "invalid request body"})
	}

	fields := map[string]string{}
	if req.FullName != nil && *req.FullName == "" {
		fields["fullName"] = "must not be empty"
	}
	if req.Role != nil && !model.ValidMemberRole(*req.Role) {
		fields["role"] = "must be one of tenant_admin, user"
	}
	if len(fields) > 0 {
		return validationError(c, fields)
	}

	result, svcErr := h.users.Update(p, userID, service.UserUpdate{
		FullName: req.FullName,
		Role:     req.Role,
		IsActive: req.IsActive,
	})
	if svcErr != nil {
		log.Warn("User update rejected", zap.String("user_id", userID.String()), zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("User updated", zap.String("user_id", userID.String()))
	return okMessage(c, http.StatusOK, "User updated successfully", result)
}

// Delete handles DELETE /api/users/:userId
func (h *UserHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	p, err := principal(c)
	if err != nil {
		return err
	}

	userID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return validationError(c, map[string]string{"userId": "must be a valid id"})
	}

	if svcErr := h.users.Delete(p, userID, c.RealIP()); svcErr != nil {
		log.Warn("User deletion rejected", zap.String("user_id", userID.String()), zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("User deleted", zap.String("user_id", userID.String()))
	return okMessage(c, http.StatusOK, "User deleted successfully", nil)
}
