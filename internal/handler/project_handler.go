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

// ProjectHandler serves project CRUD within the caller's tenant.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler creates a ProjectHandler.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c echo.Context) error {
	log := logger.FromEcho(c)

	p, err := principal(c)
	if err != nil {
		return err
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create project request", zap.Error(err))
		return validationError(c, map[string]string{"body": "invalid request body"})
	}

	fields := map[string]string{}
	if req.Name == "" {
		fields["name"] = "is required"
	}
	if req.Status == "" {
		req.Status = model.ProjectStatusActive
	}
	if !model.ValidProjectStatus(req.Status) {
		fields["status"] = "must be one of active, archived, completed"
	}
	if len(fields) > 0 {
		return validationError(c, fields)
	}

	project, svcErr := h.projects.Create(p, service.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if svcErr != nil {
		log.Warn("Project creation rejected", zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("Project created", zap.String("project_id", project.ID.String()))
	return okMessage(c, http.StatusCreated, "Project created successfully", project)
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	page, limit := pageParams(c)
	result, svcErr := h.projects.List(p, service.ProjectListFilter{
		Status: c.QueryParam("status"),
		Search: c.QueryParam("search"),
		Page:   page,
		Limit:  limit,
	})
	if svcErr != nil {
		return fail(c, svcErr)
	}
	return ok(c, http.StatusOK, result)
}

// Get handles GET /api/projects/:projectId
func (h *ProjectHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		return validationError(c, map[string]string{"projectId": "must be a valid id"})
	}

	detail, svcErr := h.projects.Get(p, projectID)
	if svcErr != nil {
		return fail(c, svcErr)
	}
	return ok(c, http.StatusOK, detail)
}

// Update handles PUT /api/projects/:projectId
func (h *ProjectHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	p, err := principal(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		return validationError(c, map[string]string{"projectId": "must be a valid id"})
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse project update request", zap.Error(err))
		return validationError(c, map[string]string{"body": "invalid request body"})
	}

	fields := map[string]string{}
	if req.Name != nil && *req.Name == "" {
		fields["name"] = "must not be empty"
	}
	if req.Status != nil && !model.ValidProjectStatus(*req.Status) {
		fields["status"] = "must be one of active, archived, completed"
	}
	if len(fields) > 0 {
		return validationError(c, fields)
	}

	result, svcErr := h.projects.Update(p, projectID, service.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if svcErr != nil {
		log.Warn("Project update rejected", zap.String("project_id", projectID.String()), zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("Project updated", zap.String("project_id", projectID.String()))
	return okMessage(c, http.StatusOK, "Project updated successfully", result)
}

// Delete handles DELETE /api/projects/:projectId
func (h *ProjectHandler) Delete(c echo.Context) error {
	log := logger.FromEcho(c)

	p, err := principal(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		return validationError(c, map[string]string{"projectId": "must be a valid id"})
	}

	if svcErr := h.projects.Delete(p, projectID); svcErr != nil {
		log.Warn("Project deletion rejected", zap.String("project_id", projectID.String()), zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("Project deleted", zap.String("project_id", projectID.String()))
	return okMessage(c, http.StatusOK, "Project and its tasks deleted successfully", nil)
}
