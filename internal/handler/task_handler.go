package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"taskboard-service/internal/model"
	"taskboard-service/internal/service"
	"taskboard-service/pkg/logger"
)

// TaskHandler serves task CRUD under projects.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

var nullLiteral = []byte("null")

// parseDueDate accepts either a date or a full timestamp.
func parseDueDate(raw string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// Create handles POST /api/projects/:projectId/tasks
func (h *TaskHandler) Create(c echo.Context) error {
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
		Title       string  `json:"title"`
		Description string  `json:"description"`
		AssignedTo  *string `json:"assignedTo"`
		Priority    string  `json:"priority"`
		DueDate     *string `json:"dueDate"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse create task request", zap.Error(err))
		return validationError(c, map[string]string{"body": "invalid request body"})
	}

	fields := map[string]string{}
	if req.Title == "" {
		fields["title"] = "is required"
	}
	if req.Priority == "" {
		req.Priority = model.PriorityMedium
	}
	if !model.ValidPriority(req.Priority) {
		fields["priority"] = "must be one of low, medium, high"
	}

	var assignedTo *uuid.UUID
	if req.AssignedTo != nil && *req.AssignedTo != "" {
		id, parseErr := uuid.Parse(*req.AssignedTo)
		if parseErr != nil {
			fields["assignedTo"] = "must be a valid id"
		} else {
			assignedTo = &id
		}
	}

	var dueDate *time.Time
	if req.DueDate != nil && *req.DueDate != "" {
		t, okDate := parseDueDate(*req.DueDate)
		if !okDate {
			fields["dueDate"] = "must be a valid date"
		} else {
			dueDate = &t
		}
	}
	if len(fields) > 0 {
		return validationError(c, fields)
	}

	task, svcErr := h.tasks.Create(p, projectID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  assignedTo,
		Priority:    req.Priority,
		DueDate:     dueDate,
	})
	if svcErr != nil {
		log.Warn("Task creation rejected", zap.String("project_id", projectID.String()), zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("Task created", zap.String("task_id", task.ID.String()))
	return okMessage(c, http.StatusCreated, "Task created successfully", task)
}

// List handles GET /api/projects/:projectId/tasks
func (h *TaskHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}

	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		return validationError(c, map[string]string{"projectId": "must be a valid id"})
	}

	var assignedTo *uuid.UUID
	if raw := c.QueryParam("assignedTo"); raw != "" {
		id, parseErr := uuid.Parse(raw)
		if parseErr != nil {
			return validationError(c, map[string]string{"assignedTo": "must be a valid id"})
		}
		assignedTo = &id
	}

	page, limit := pageParams(c)
	result, svcErr := h.tasks.List(p, projectID, service.TaskListFilter{
		Status:     c.QueryParam("status"),
		AssignedTo: assignedTo,
		Priority:   c.QueryParam("priority"),
		Search:     c.QueryParam("search"),
		Page:       page,
		Limit:      limit,
	})
	if svcErr != nil {
		return fail(c, svcErr)
	}
	return ok(c, http.StatusOK, result)
}

// UpdateStatus handles PATCH /api/tasks/:taskId/status
func (h *TaskHandler) UpdateStatus(c echo.Context) error {
	log := logger.FromEcho(c)

	p, err := principal(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return validationError(c, map[string]string{"taskId": "must be a valid id"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task status request", zap.Error(err))
		return validationError(c, map[string]string{"body": "invalid request body"})
	}
	if !model.ValidTaskStatus(req.Status) {
		return validationError(c, map[string]string{"status": "must be one of todo, in_progress, completed"})
	}

	result, svcErr := h.tasks.UpdateStatus(p, taskID, req.Status)
	if svcErr != nil {
		log.Warn("Task status update rejected", zap.String("task_id", taskID.String()), zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("Task status updated", zap.String("task_id", taskID.String()), zap.String("status", req.Status))
	return okMessage(c, http.StatusOK, "Task status updated successfully", result)
}

// Update handles PUT /api/tasks/:taskId. An explicit JSON null for assignedTo
// or dueDate clears the field, while an absent key leaves it unchanged.
func (h *TaskHandler) Update(c echo.Context) error {
	log := logger.FromEcho(c)

	p, err := principal(c)
	if err != nil {
		return err
	}

	taskID, err := uuid.Parse(c.Param("taskId"))
	if err != nil {
		return validationError(c, map[string]string{"taskId": "must be a valid id"})
	}

	var req struct {
		Title       *string         `json:"title"`
		Description *string         `json:"description"`
		Status      *string         `json:"status"`
		Priority    *string         `json:"priority"`
		AssignedTo  json.RawMessage `json:"assignedTo"`
		DueDate     json.RawMessage `json:"dueDate"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Failed to parse task update request", zap.Error(err))
		return validationError(c, map[string]string{"body": "invalid request body"})
	}

	fields := map[string]string{}
	if req.Title != nil && *req.Title == "" {
		fields["title"] = "must not be empty"
	}
	if req.Status != nil && !model.ValidTaskStatus(*req.Status) {
		fields["status"] = "must be one of todo, in_progress, completed"
	}
	if req.Priority != nil && !model.ValidPriority(*req.Priority) {
		fields["priority"] = "must be one of low, medium, high"
	}

	in := service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}

	if len(req.AssignedTo) > 0 {
		if bytes.Equal(req.AssignedTo, nullLiteral) {
			in.ClearAssignee = true
		} else {
			var raw string
			if jsonErr := json.Unmarshal(req.AssignedTo, &raw); jsonErr != nil {
				fields["assignedTo"] = "must be a valid id"
			} else if id, parseErr := uuid.Parse(raw); parseErr != nil {
				fields["assignedTo"] = "must be a valid id"
			} else {
				in.AssignedTo = &id
			}
		}
	}

	if len(req.DueDate) > 0 {
		if bytes.Equal(req.DueDate, nullLiteral) {
			in.ClearDueDate = true
		} else {
			var raw string
			if jsonErr := json.Unmarshal(req.DueDate, &raw); jsonErr != nil {
				fields["dueDate"] = "must be a valid date"
			} else if t, okDate := parseDueDate(raw); !okDate {
				fields["dueDate"] = "must be a valid date"
			} else {
				in.DueDate = &t
			}
		}
	}

	if len(fields) > 0 {
		return validationError(c, fields)
	}

	result, svcErr := h.tasks.Update(p, taskID, in)
	if svcErr != nil {
		log.Warn("Task update rejected", zap.String("task_id", taskID.String()), zap.Error(svcErr))
		return fail(c, svcErr)
	}

	log.Info("Task updated", zap.String("task_id", taskID.String()))
	return okMessage(c, http.StatusOK, "Task updated successfully", result)
}
