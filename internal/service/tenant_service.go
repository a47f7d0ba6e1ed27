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

// TenantService handles tenant detail, update and the super-admin listing.
type TenantService struct {
	db    *gorm.DB
	audit *audit.Recorder
}

// NewTenantService creates a TenantService.
func NewTenantService(db *gorm.DB, rec *audit.Recorder) *TenantService {
	return &TenantService{db: db, audit: rec}
}

// TenantStats are the resource counts shown on the tenant detail view.
type TenantStats struct {
	TotalUsers    int64 `json:"totalUsers"`
	TotalProjects int64 `json:"totalProjects"`
	TotalTasks    int64 `json:"totalTasks"`
}

// TenantDetail is the full tenant projection.
type TenantDetail struct {
	ID               uuid.UUID   `json:"id"`
	Name             string      `json:"name"`
	Subdomain        string      `json:"subdomain"`
	Status           string      `json:"status"`
	SubscriptionPlan string      `json:"subscriptionPlan"`
	MaxUsers         int         `json:"maxUsers"`
	MaxProjects      int         `json:"maxProjects"`
	CreatedAt        time.Time   `json:"createdAt"`
	Stats            TenantStats `json:"stats"`
}

// Get returns tenant details with usage stats. Members of the tenant and
// super admins only.
func (s *TenantService) Get(p authz.Principal, tenantID uuid.UUID) (*TenantDetail, error) {
	if err := authz.CanViewTenant(p, tenantID); err != nil {
		return nil, err
	}

	var tenant model.Tenant
	if err := s.db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("tenant not found")
		}
		return nil, apperror.From(err)
	}

	var stats TenantStats
	if err := s.db.Model(&model.User{}).Where("tenant_id = ?", tenantID).Count(&stats.TotalUsers).Error; err != nil {
		return nil, apperror.From(err)
	}
	if err := s.db.Model(&model.Project{}).Where("tenant_id = ?", tenantID).Count(&stats.TotalProjects).Error; err != nil {
		return nil, apperror.From(err)
	}
	if err := s.db.Model(&model.Task{}).Where("tenant_id = ?", tenantID).Count(&stats.TotalTasks).Error; err != nil {
		return nil, apperror.From(err)
	}

	return &TenantDetail{
		ID:               tenant.ID,
		Name:             tenant.Name,
		Subdomain:        tenant.Subdomain,
		Status:           tenant.Status,
		SubscriptionPlan: tenant.SubscriptionPlan,
		MaxUsers:         tenant.MaxUsers,
		MaxProjects:      tenant.MaxProjects,
		CreatedAt:        tenant.CreatedAt,
		Stats:            stats,
	}, nil
}

// TenantUpdate is the typed partial update for a tenant. MaxUsers and
// MaxProjects are never written directly; they only change when a super
// admin changes the plan. Their presence still matters for the
// restricted-field check.
type TenantUpdate struct {
	Name             *string
	Status           *string
	SubscriptionPlan *string
	MaxUsers         *int
	MaxProjects      *int
}

func (u TenantUpdate) touchesRestricted() bool {
	return u.Status != nil || u.SubscriptionPlan != nil || u.MaxUsers != nil || u.MaxProjects != nil
}

// TenantUpdateResult is the projection returned after a tenant update.
type TenantUpdateResult struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Update applies a tenant update. Tenant admins may only rename; a plan
// change recomputes the stored limits.
func (s *TenantService) Update(p authz.Principal, tenantID uuid.UUID, in TenantUpdate) (*TenantUpdateResult, error) {
	if err := authz.CanUpdateTenant(p, tenantID, in.touchesRestricted()); err != nil {
		return nil, err
	}

	var tenant model.Tenant
	if err := s.db.First(&tenant, "id = ?", tenantID).Error; err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("tenant not found")
		}
		return nil, apperror.From(err)
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = *in.Name
	}
	if p.IsSuperAdmin() {
		if in.Status != nil {
			updates["status"] = *in.Status
		}
		if in.SubscriptionPlan != nil {
			limits := quota.ForPlan(*in.SubscriptionPlan)
			updates["subscription_plan"] = *in.SubscriptionPlan
			updates["max_users"] = limits.MaxUsers
			updates["max_projects"] = limits.MaxProjects
		}
	}
	if len(updates) == 0 {
		return nil, apperror.BadRequest("no valid fields to update")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&tenant).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&tenant, "id = ?", tenantID).Error
	})
	if err != nil {
		return nil, apperror.From(err)
	}

	userID := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   tenantID,
		UserID:     &userID,
		Action:     audit.ActionUpdateTenant,
		EntityType: "tenant",
		EntityID:   &tenantID,
	})

	return &TenantUpdateResult{ID: tenant.ID, Name: tenant.Name, UpdatedAt: tenant.UpdatedAt}, nil
}

// TenantListFilter carries the super-admin listing filters.
type TenantListFilter struct {
	Status           string
	SubscriptionPlan string
	Page             int
	Limit            int
}

// TenantRow is one entry of the super-admin tenant listing.
type TenantRow struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Subdomain        string    `json:"subdomain"`
	Status           string    `json:"status"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	TotalUsers       int64     `json:"totalUsers"`
	TotalProjects    int64     `json:"totalProjects"`
	CreatedAt        time.Time `json:"createdAt"`
}

// TenantList is the listing projection.
type TenantList struct {
	Tenants    []TenantRow          `json:"tenants"`
	Pagination TenantListPagination `json:"pagination"`
}

// TenantListPagination extends the page metadata with the total row count,
// mirroring what the tenant dashboard consumes.
type TenantListPagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalTenants int64 `json:"totalTenants"`
	Limit        int   `json:"limit"`
}

// List returns every tenant with usage counts, newest first. Super admin
// only.
func (s *TenantService) List(p authz.Principal, f TenantListFilter) (*TenantList, error) {
	if err := authz.CanListTenants(p); err != nil {
		return nil, err
	}

	page, limit, offset := normalizePage(f.Page, f.Limit, DefaultTenantLimit)

	query := s.db.Model(&model.Tenant{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.SubscriptionPlan != "" {
		query = query.Where("subscription_plan = ?", f.SubscriptionPlan)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperror.From(err)
	}

	rows := []TenantRow{}
	err := query.
		Select(`tenants.id, tenants.name, tenants.subdomain, tenants.status, tenants.subscription_plan,
			(SELECT COUNT(*) FROM users WHERE users.tenant_id = tenants.id) AS total_users,
			(SELECT COUNT(*) FROM projects WHERE projects.tenant_id = tenants.id) AS total_projects,
			tenants.created_at`).
		Order("tenants.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, apperror.From(err)
	}

	return &TenantList{
		Tenants: rows,
		Pagination: TenantListPagination{
			CurrentPage:  page,
			TotalPages:   totalPages(total, limit),
			TotalTenants: total,
			Limit:        limit,
		},
	}, nil
}
