package service

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard-service/internal/apperror"
	"taskboard-service/internal/audit"
	"taskboard-service/internal/authz"
	"taskboard-service/internal/model"
)

// taskPriorityOrder sorts tasks by severity: high before medium before low.
// Works on both Postgres and sqlite.
const taskPriorityOrder = "CASE tasks.priority WHEN 'high' THEN 1 WHEN 'medium' THEN 2 WHEN 'low' THEN 3 END ASC"

// TaskService manages tasks under a project. Unlike projects, a task that
// exists in another tenant answers 403, not 404.
type TaskService struct {
	db    *gorm.DB
	audit *audit.Recorder
}

// NewTaskService creates a TaskService.
func NewTaskService(db *gorm.DB, rec *audit.Recorder) *TaskService {
	return &TaskService{db: db, audit: rec}
}

// fetchProject loads the parent project, distinguishing missing (404) from
// foreign-tenant (403).
func (s *TaskService) fetchProject(p authz.Principal, projectID uuid.UUID) (*model.Project, error) {
	if p.TenantID == nil {
		return nil, apperror.Forbidden("tenant context required")
	}

	var project model.Project
	if err := s.db.First(&project, "id = ?", projectID).Error; err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("project not found")
		}
		return nil, apperror.From(err)
	}
	if err := authz.CanAccessProjectTasks(p, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// fetchTask loads a task with the same missing-vs-foreign distinction.
func (s *TaskService) fetchTask(p authz.Principal, taskID uuid.UUID) (*model.Task, error) {
	if p.TenantID == nil {
		return nil, apperror.Forbidden("tenant context required")
	}

	var task model.Task
	if err := s.db.First(&task, "id = ?", taskID).Error; err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("task not found")
		}
		return nil, apperror.From(err)
	}
	if err := authz.CanAccessTask(p, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// validateAssignee checks that the assignee exists in the tenant. A
// cross-tenant assignment is a validation failure, not a permission one.
func (s *TaskService) validateAssignee(tx *gorm.DB, assignee uuid.UUID, tenantID uuid.UUID) error {
	var count int64
	if err := tx.Model(&model.User{}).Where("id = ? AND tenant_id = ?", assignee, tenantID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return apperror.BadRequest("assigned user does not belong to this tenant")
	}
	return nil
}

// CreateTaskInput carries a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	AssignedTo  *uuid.UUID
	Priority    string
	DueDate     *time.Time
}

// TaskCreated is the projection returned after creation.
type TaskCreated struct {
	ID          uuid.UUID  `json:"id"`
	ProjectID   uuid.UUID  `json:"projectId"`
	TenantID    uuid.UUID  `json:"tenantId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssignedTo  *uuid.UUID `json:"assignedTo"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// Create adds a task under the project. New tasks always start as todo.
func (s *TaskService) Create(p authz.Principal, projectID uuid.UUID, in CreateTaskInput) (*TaskCreated, error) {
	project, err := s.fetchProject(p, projectID)
	if err != nil {
		return nil, err
	}

	var task model.Task
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if in.AssignedTo != nil {
			if err := s.validateAssignee(tx, *in.AssignedTo, project.TenantID); err != nil {
				return err
			}
		}

		task = model.Task{
			ProjectID:   projectID,
			TenantID:    project.TenantID,
			Title:       in.Title,
			Description: in.Description,
			Status:      model.TaskStatusTodo,
			Priority:    in.Priority,
			AssignedTo:  in.AssignedTo,
			DueDate:     in.DueDate,
		}
		return tx.Create(&task).Error
	})
	if txErr != nil {
		return nil, apperror.From(txErr)
	}

	requester := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   project.TenantID,
		UserID:     &requester,
		Action:     audit.ActionCreateTask,
		EntityType: "task",
		EntityID:   &task.ID,
	})

	return &TaskCreated{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		TenantID:    task.TenantID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		AssignedTo:  task.AssignedTo,
		DueDate:     task.DueDate,
		CreatedAt:   task.CreatedAt,
	}, nil
}

// TaskListFilter carries the task listing parameters.
type TaskListFilter struct {
	Status     string
	AssignedTo *uuid.UUID
	Priority   string
	Search     string
	Page       int
	Limit      int
}

// TaskAssignee is the embedded assignee projection.
type TaskAssignee struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
	Email    string    `json:"email"`
}

// TaskRow is one entry of the task listing.
type TaskRow struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	Priority    string        `json:"priority"`
	AssignedTo  *TaskAssignee `json:"assignedTo"`
	DueDate     *time.Time    `json:"dueDate"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// TaskList is the listing projection.
type TaskList struct {
	Tasks      []TaskRow  `json:"tasks"`
	Total      int64      `json:"total"`
	Pagination Pagination `json:"pagination"`
}

type taskScan struct {
	ID            uuid.UUID
	Title         string
	Description   string
	Status        string
	Priority      string
	AssignedTo    *uuid.UUID
	DueDate       *time.Time
	CreatedAt     time.Time
	AssigneeName  string
	AssigneeEmail string
}

// List returns the project's tasks ordered by priority severity, then due
// date.
func (s *TaskService) List(p authz.Principal, projectID uuid.UUID, f TaskListFilter) (*TaskList, error) {
	if _, err := s.fetchProject(p, projectID); err != nil {
		return nil, err
	}

	page, limit, offset := normalizePage(f.Page, f.Limit, DefaultTaskLimit)

	query := s.db.Model(&model.Task{}).Where("tasks.project_id = ?", projectID)
	if f.Status != "" {
		query = query.Where("tasks.status = ?", f.Status)
	}
	if f.AssignedTo != nil {
		query = query.Where("tasks.assigned_to = ?", *f.AssignedTo)
	}
	if f.Priority != "" {
		query = query.Where("tasks.priority = ?", f.Priority)
	}
	if f.Search != "" {
		query = query.Where("LOWER(tasks.title) LIKE LOWER(?)", "%"+f.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperror.From(err)
	}

	var scans []taskScan
	err := query.
		Select(`tasks.id, tasks.title, tasks.description, tasks.status, tasks.priority,
			tasks.assigned_to, tasks.due_date, tasks.created_at,
			users.full_name AS assignee_name, users.email AS assignee_email`).
		Joins("LEFT JOIN users ON tasks.assigned_to = users.id").
		Order(taskPriorityOrder).
		Order("tasks.due_date ASC").
		Limit(limit).
		Offset(offset).
		Scan(&scans).Error
	if err != nil {
		return nil, apperror.From(err)
	}

	rows := make([]TaskRow, 0, len(scans))
	for _, sc := range scans {
		row := TaskRow{
			ID:          sc.ID,
			Title:       sc.Title,
			Description: sc.Description,
			Status:      sc.Status,
			Priority:    sc.Priority,
			DueDate:     sc.DueDate,
			CreatedAt:   sc.CreatedAt,
		}
		if sc.AssignedTo != nil {
			row.AssignedTo = &TaskAssignee{ID: *sc.AssignedTo, FullName: sc.AssigneeName, Email: sc.AssigneeEmail}
		}
		rows = append(rows, row)
	}

	return &TaskList{
		Tasks:      rows,
		Total:      total,
		Pagination: Pagination{CurrentPage: page, TotalPages: totalPages(total, limit), Limit: limit},
	}, nil
}

// TaskStatusResult is the projection returned from a status change.
type TaskStatusResult struct {
	ID        uuid.UUID `json:"id"`
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UpdateStatus changes just the status. Any tenant member may do this.
func (s *TaskService) UpdateStatus(p authz.Principal, taskID uuid.UUID, status string) (*TaskStatusResult, error) {
	task, err := s.fetchTask(p, taskID)
	if err != nil {
		return nil, err
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(task).Update("status", status).Error; err != nil {
			return err
		}
		return tx.First(task, "id = ?", taskID).Error
	})
	if txErr != nil {
		return nil, apperror.From(txErr)
	}

	requester := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   task.TenantID,
		UserID:     &requester,
		Action:     audit.ActionUpdateTaskStatus,
		EntityType: "task",
		EntityID:   &taskID,
	})

	return &TaskStatusResult{ID: task.ID, Status: task.Status, UpdatedAt: task.UpdatedAt}, nil
}

// TaskUpdate is the typed partial update for a task. AssignedTo, DueDate and
// Description can be cleared explicitly, which is distinct from leaving them
// untouched.
type TaskUpdate struct {
	Title         *string
	Description   *string
	Status        *string
	Priority      *string
	AssignedTo    *uuid.UUID
	ClearAssignee bool
	DueDate       *time.Time
	ClearDueDate  bool
}

// TaskUpdateResult is the projection returned after an update.
type TaskUpdateResult struct {
	ID          uuid.UUID     `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Status      string        `json:"status"`
	Priority    string        `json:"priority"`
	AssignedTo  *TaskAssignee `json:"assignedTo"`
	DueDate     *time.Time    `json:"dueDate"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Update applies a task update. Any tenant member may edit any field.
func (s *TaskService) Update(p authz.Principal, taskID uuid.UUID, in TaskUpdate) (*TaskUpdateResult, error) {
	task, err := s.fetchTask(p, taskID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Title != nil {
		updates["title"] = *in.Title
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if in.Priority != nil {
		updates["priority"] = *in.Priority
	}
	if in.AssignedTo != nil {
		updates["assigned_to"] = *in.AssignedTo
	} else if in.ClearAssignee {
		updates["assigned_to"] = nil
	}
	if in.DueDate != nil {
		updates["due_date"] = *in.DueDate
	} else if in.ClearDueDate {
		updates["due_date"] = nil
	}
	if len(updates) == 0 {
		return nil, apperror.BadRequest("no valid fields to update")
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if in.AssignedTo != nil {
			if err := s.validateAssignee(tx, *in.AssignedTo, task.TenantID); err != nil {
				return err
			}
		}
		if err := tx.Model(task).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(task, "id = ?", taskID).Error
	})
	if txErr != nil {
		return nil, apperror.From(txErr)
	}

	result := &TaskUpdateResult{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		UpdatedAt:   task.UpdatedAt,
	}
	if task.AssignedTo != nil {
		var assignee model.User
		if err := s.db.First(&assignee, "id = ?", *task.AssignedTo).Error; err == nil {
			result.AssignedTo = &TaskAssignee{ID: assignee.ID, FullName: assignee.FullName, Email: assignee.Email}
		}
	}

	requester := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   task.TenantID,
		UserID:     &requester,
		Action:     audit.ActionUpdateTask,
		EntityType: "task",
		EntityID:   &taskID,
	})

	return result, nil
}
