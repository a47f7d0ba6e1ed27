package service

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskboard-service/internal/apperror"
	"taskboard-service/internal/audit"
	"taskboard-service/internal/authz"
	"taskboard-service/internal/model"
	"taskboard-service/internal/quota"
)

// UserService manages accounts within a tenant.
type UserService struct {
	db    *gorm.DB
	audit *audit.Recorder
}

// NewUserService creates a UserService.
func NewUserService(db *gorm.DB, rec *audit.Recorder) *UserService {
	return &UserService{db: db, audit: rec}
}

// CreateUserInput carries a new account created by a tenant admin.
type CreateUserInput struct {
	Email    string
	Password string
	FullName string
	Role     string
}

// UserProjection is the account shape returned to callers.
type UserProjection struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"fullName"`
	Role      string     `json:"role"`
	TenantID  *uuid.UUID `json:"tenantId,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Create adds a user to the tenant. The active-user count is checked against
// the plan limit before the insert, in the same transaction.
func (s *UserService) Create(p authz.Principal, tenantID uuid.UUID, in CreateUserInput) (*UserProjection, error) {
	if err := authz.CanCreateTenantUser(p, tenantID); err != nil {
		return nil, err
	}

	var user model.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var tenant model.Tenant
		if err := tx.First(&tenant, "id = ?", tenantID).Error; err != nil {
			if notFound(err) {
				return apperror.NotFound("tenant not found")
			}
			return err
		}

		var count int64
		if err := tx.Model(&model.User{}).Where("tenant_id = ? AND is_active = ?", tenantID, true).Count(&count).Error; err != nil {
			return err
		}
		if err := quota.CheckUsers(count, tenant.MaxUsers); err != nil {
			return err
		}

		var dup int64
		if err := tx.Model(&model.User{}).Where("tenant_id = ? AND email = ?", tenantID, in.Email).Count(&dup).Error; err != nil {
			return err
		}
		if dup > 0 {
			return apperror.Conflict("email already exists in this tenant")
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		user = model.User{
			TenantID:     &tenantID,
			Email:        in.Email,
			PasswordHash: string(hashed),
			FullName:     in.FullName,
			Role:         in.Role,
			IsActive:     true,
		}
		return tx.Create(&user).Error
	})
	if err != nil {
		return nil, apperror.From(err)
	}

	requester := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   tenantID,
		UserID:     &requester,
		Action:     audit.ActionCreateUser,
		EntityType: "user",
		EntityID:   &user.ID,
	})

	return &UserProjection{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		TenantID:  &tenantID,
		IsActive:  user.IsActive,
		CreatedAt: user.CreatedAt,
	}, nil
}

// UserListFilter carries the user listing parameters.
type UserListFilter struct {
	Search string
	Role   string
	Page   int
	Limit  int
}

// UserList is the listing projection.
type UserList struct {
	Users      []UserProjection `json:"users"`
	Total      int64            `json:"total"`
	Pagination Pagination       `json:"pagination"`
}

// List returns the tenant's users, newest first. Search matches name or
// email, case-insensitively.
func (s *UserService) List(p authz.Principal, tenantID uuid.UUID, f UserListFilter) (*UserList, error) {
	if err := authz.CanListTenantUsers(p, tenantID); err != nil {
		return nil, err
	}

	page, limit, offset := normalizePage(f.Page, f.Limit, DefaultUserLimit)

	query := s.db.Model(&model.User{}).Where("tenant_id = ?", tenantID)
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		query = query.Where("(LOWER(full_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?))", pattern, pattern)
	}
	if f.Role != "" {
		query = query.Where("role = ?", f.Role)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperror.From(err)
	}

	var users []model.User
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, apperror.From(err)
	}

	rows := make([]UserProjection, 0, len(users))
	for _, u := range users {
		rows = append(rows, UserProjection{
			ID:        u.ID,
			Email:     u.Email,
			FullName:  u.FullName,
			Role:      u.Role,
			IsActive:  u.IsActive,
			CreatedAt: u.CreatedAt,
		})
	}

	return &UserList{
		Users:      rows,
		Total:      total,
		Pagination: Pagination{CurrentPage: page, TotalPages: totalPages(total, limit), Limit: limit},
	}, nil
}

// UserUpdate is the typed partial update for an account. Role and IsActive
// are restricted fields: only a tenant admin may set them, and a plain user
// sending them at all is refused.
type UserUpdate struct {
	FullName *string
	Role     *string
	IsActive *bool
}

func (u UserUpdate) touchesRestricted() bool {
	return u.Role != nil || u.IsActive != nil
}

// UserUpdateResult is the projection returned after an update.
type UserUpdateResult struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"fullName"`
	Role      string    `json:"role"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Update applies a user update under the self-or-admin policy.
func (s *UserService) Update(p authz.Principal, userID uuid.UUID, in UserUpdate) (*UserUpdateResult, error) {
	var user model.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.From(err)
	}

	if err := authz.CanUpdateUser(p, &user, in.touchesRestricted()); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.FullName != nil {
		updates["full_name"] = *in.FullName
	}
	if p.IsTenantAdmin() {
		if in.Role != nil {
			updates["role"] = *in.Role
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}
	}
	if len(updates) == 0 {
		return nil, apperror.BadRequest("no valid fields to update")
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&user, "id = ?", userID).Error
	})
	if err != nil {
		return nil, apperror.From(err)
	}

	if user.TenantID != nil {
		requester := p.UserID
		s.audit.Record(audit.Entry{
			TenantID:   *user.TenantID,
			UserID:     &requester,
			Action:     audit.ActionUpdateUser,
			EntityType: "user",
			EntityID:   &userID,
		})
	}

	return &UserUpdateResult{
		ID:        user.ID,
		FullName:  user.FullName,
		Role:      user.Role,
		UpdatedAt: user.UpdatedAt,
	}, nil
}

// Delete removes an account and clears any task assignments pointing at it,
// in one transaction. Admin only, never on yourself.
func (s *UserService) Delete(p authz.Principal, userID uuid.UUID, ip string) error {
	var user model.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if notFound(err) {
			return apperror.NotFound("user not found")
		}
		return apperror.From(err)
	}

	if err := authz.CanDeleteUser(p, &user); err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Task{}).Where("assigned_to = ?", userID).Update("assigned_to", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, "id = ?", userID).Error
	})
	if err != nil {
		return apperror.From(err)
	}

	requester := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   *user.TenantID,
		UserID:     &requester,
		Action:     audit.ActionDeleteUser,
		EntityType: "user",
		EntityID:   &userID,
		IPAddress:  ip,
	})

	return nil
}
