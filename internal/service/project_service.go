package service

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard-service/internal/apperror"
	"taskboard-service/internal/audit"
	"taskboard-service/internal/authz"
	"taskboard-service/internal/model"
	"taskboard-service/internal/quota"
)

// ProjectService manages projects within the principal's tenant. Lookups are
// always scoped by tenant id, so a project in another tenant is
// indistinguishable from a missing one: both answer 404.
type ProjectService struct {
	db    *gorm.DB
	audit *audit.Recorder
}

// NewProjectService creates a ProjectService.
func NewProjectService(db *gorm.DB, rec *audit.Recorder) *ProjectService {
	return &ProjectService{db: db, audit: rec}
}

// CreateProjectInput carries a new project.
type CreateProjectInput struct {
	Name        string
	Description string
	Status      string
}

// ProjectCreated is the projection returned after creation.
type ProjectCreated struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenantId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CreatedBy   uuid.UUID `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Create adds a project, checking the plan limit inside the transaction.
// Any authenticated tenant member may create.
func (s *ProjectService) Create(p authz.Principal, in CreateProjectInput) (*ProjectCreated, error) {
	if p.TenantID == nil {
		return nil, apperror.Forbidden("tenant context required")
	}
	tenantID := *p.TenantID

	var project model.Project

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		if err := tx.First(&tenant, "id = ?", tenantID).Error; err != nil {
			if notFound(err) {
				return apperror.NotFound("tenant not found")
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.Project{}).Where("tenant_id = ?", tenantID).Count(&count).Error; err != nil {
			return err
		}
		if err := quota.CheckProjects(count, tenant.MaxProjects); err != nil {
			return err
		}

		project = model.Project{
			TenantID:    tenantID,
			Name:        in.Name,
			Description: in.Description,
			Status:      in.Status,
			CreatedBy:   p.UserID,
		}
		return tx.Create(&project).Error
	})
	if err != nil {
		return nil, apperror.From(err)
	}

	requester := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   tenantID,
		UserID:     &requester,
		Action:     audit.ActionCreateProject,
		EntityType: "project",
		EntityID:   &project.ID,
	})

	return &ProjectCreated{
		ID:          project.ID,
		TenantID:    project.TenantID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		CreatedBy:   project.CreatedBy,
		CreatedAt:   project.CreatedAt,
	}, nil
}

// ProjectListFilter carries the project listing parameters.
type ProjectListFilter struct {
	Status string
	Search string
	Page   int
	Limit  int
}

// ProjectCreator is the embedded creator projection.
type ProjectCreator struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"fullName"`
}

// ProjectRow is one entry of the project listing.
type ProjectRow struct {
	ID                 uuid.UUID      `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Status             string         `json:"status"`
	CreatedBy          ProjectCreator `json:"createdBy"`
	TaskCount          int64          `json:"taskCount"`
	CompletedTaskCount int64          `json:"completedTaskCount"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// ProjectList is the listing projection.
type ProjectList struct {
	Projects   []ProjectRow `json:"projects"`
	Total      int64        `json:"total"`
	Pagination Pagination   `json:"pagination"`
}

// projectScan is the flat row GORM scans list queries into.
type projectScan struct {
	ID                 uuid.UUID
	Name               string
	Description        string
	Status             string
	CreatedBy          uuid.UUID
	CreatorName        string
	TaskCount          int64
	CompletedTaskCount int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// List returns the tenant's projects newest first, with task stats and the
// creator's name.
func (s *ProjectService) List(p authz.Principal, f ProjectListFilter) (*ProjectList, error) {
	if p.TenantID == nil {
		return nil, apperror.Forbidden("tenant context required")
	}

	page, limit, offset := normalizePage(f.Page, f.Limit, DefaultProjectLimit)

	query := s.db.Model(&model.Project{}).Where("projects.tenant_id = ?", *p.TenantID)
	if f.Status != "" {
		query = query.Where("projects.status = ?", f.Status)
	}
	if f.Search != "" {
		query = query.Where("LOWER(projects.name) LIKE LOWER(?)", "%"+f.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperror.From(err)
	}

	var scans []projectScan
	err := query.
		Select(`projects.id, projects.name, projects.description, projects.status, projects.created_by,
			users.full_name AS creator_name,
			(SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id) AS task_count,
			(SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id AND tasks.status = 'completed') AS completed_task_count,
			projects.created_at`).
		Joins("LEFT JOIN users ON projects.created_by = users.id").
		Order("projects.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&scans).Error
	if err != nil {
		return nil, apperror.From(err)
	}

	rows := make([]ProjectRow, 0, len(scans))
	for _, sc := range scans {
		rows = append(rows, ProjectRow{
			ID:                 sc.ID,
			Name:               sc.Name,
			Description:        sc.Description,
			Status:             sc.Status,
			CreatedBy:          ProjectCreator{ID: sc.CreatedBy, FullName: sc.CreatorName},
			TaskCount:          sc.TaskCount,
			CompletedTaskCount: sc.CompletedTaskCount,
			CreatedAt:          sc.CreatedAt,
		})
	}

	return &ProjectList{
		Projects:   rows,
		Total:      total,
		Pagination: Pagination{CurrentPage: page, TotalPages: totalPages(total, limit), Limit: limit},
	}, nil
}

// ProjectDetail is the single-project projection.
type ProjectDetail struct {
	ID                 uuid.UUID      `json:"id"`
	Name               string         `json:"name"`
	Description        string         `json:"description"`
	Status             string         `json:"status"`
	CreatedBy          ProjectCreator `json:"createdBy"`
	TaskCount          int64          `json:"taskCount"`
	CompletedTaskCount int64          `json:"completedTaskCount"`
	CreatedAt          time.Time      `json:"createdAt"`
	UpdatedAt          time.Time      `json:"updatedAt"`
}

// Get returns one project in the principal's tenant.
func (s *ProjectService) Get(p authz.Principal, projectID uuid.UUID) (*ProjectDetail, error) {
	if p.TenantID == nil {
		return nil, apperror.Forbidden("tenant context required")
	}

	var sc projectScan
	result := s.db.Model(&model.Project{}).
		Select(`projects.id, projects.name, projects.description, projects.status, projects.created_by,
			users.full_name AS creator_name,
			(SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id) AS task_count,
			(SELECT COUNT(*) FROM tasks WHERE tasks.project_id = projects.id AND tasks.status = 'completed') AS completed_task_count,
			projects.created_at, projects.updated_at`).
		Joins("LEFT JOIN users ON projects.created_by = users.id").
		Where("projects.id = ? AND projects.tenant_id = ?", projectID, *p.TenantID).
		Scan(&sc)
	if result.Error != nil {
		return nil, apperror.From(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperror.NotFound("project not found")
	}

	return &ProjectDetail{
		ID:                 sc.ID,
		Name:               sc.Name,
		Description:        sc.Description,
		Status:             sc.Status,
		CreatedBy:          ProjectCreator{ID: sc.CreatedBy, FullName: sc.CreatorName},
		TaskCount:          sc.TaskCount,
		CompletedTaskCount: sc.CompletedTaskCount,
		CreatedAt:          sc.CreatedAt,
		UpdatedAt:          sc.UpdatedAt,
	}, nil
}

// ProjectUpdate is the typed partial update for a project.
type ProjectUpdate struct {
	Name        *string
	Description *string
	Status      *string
}

// ProjectUpdateResult is the projection returned after an update.
type ProjectUpdateResult struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// fetchOwned loads a project scoped to the principal's tenant and applies the
// admin-or-creator rule.
func (s *ProjectService) fetchOwned(p authz.Principal, projectID uuid.UUID) (*model.Project, error) {
	if p.TenantID == nil {
		return nil, apperror.Forbidden("tenant context required")
	}

	var project model.Project
	if err := s.db.First(&project, "id = ? AND tenant_id = ?", projectID, *p.TenantID).Error; err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("project not found")
		}
		return nil, apperror.From(err)
	}

	if err := authz.CanModifyProject(p, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// Update applies a project update. Tenant admin or creator only.
func (s *ProjectService) Update(p authz.Principal, projectID uuid.UUID, in ProjectUpdate) (*ProjectUpdateResult, error) {
	project, err := s.fetchOwned(p, projectID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.Status != nil {
		updates["status"] = *in.Status
	}
	if len(updates) == 0 {
		return nil, apperror.BadRequest("no valid fields to update")
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(project).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(project, "id = ?", projectID).Error
	})
	if txErr != nil {
		return nil, apperror.From(txErr)
	}

	requester := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   project.TenantID,
		UserID:     &requester,
		Action:     audit.ActionUpdateProject,
		EntityType: "project",
		EntityID:   &projectID,
	})

	return &ProjectUpdateResult{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		Status:      project.Status,
		UpdatedAt:   project.UpdatedAt,
	}, nil
}

// Delete removes a project and all of its tasks in one transaction. Tenant
// admin or creator only.
func (s *ProjectService) Delete(p authz.Principal, projectID uuid.UUID) error {
	project, err := s.fetchOwned(p, projectID)
	if err != nil {
		return err
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Task{}, "project_id = ?", projectID).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Project{}, "id = ?", projectID).Error
	})
	if txErr != nil {
		return apperror.From(txErr)
	}

	requester := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   project.TenantID,
		UserID:     &requester,
		Action:     audit.ActionDeleteProject,
		EntityType: "project",
		EntityID:   &projectID,
	})

	return nil
}
