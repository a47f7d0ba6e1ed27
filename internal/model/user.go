package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User roles
const (
	RoleSuperAdmin  = "super_admin"
	RoleTenantAdmin = "tenant_admin"
	RoleUser        = "user"
)

// User represents an account within a tenant. TenantID is null only for
// super admins, who exist outside any tenant. Email uniqueness is scoped to
// the tenant, not global.
type User struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID     *uuid.UUID `json:"tenantId" gorm:"type:uuid;uniqueIndex:idx_users_tenant_email"`
	Email        string     `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:idx_users_tenant_email"`
	PasswordHash string     `json:"-" gorm:"type:varchar(255);not null"`
	FullName     string     `json:"fullName" gorm:"type:varchar(255);not null"`
	Role         string     `json:"role" gorm:"type:varchar(20);not null;default:'user'"`
	IsActive     bool       `json:"isActive" gorm:"not null;default:true"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// ValidMemberRole reports whether r is a role assignable inside a tenant.
func ValidMemberRole(r string) bool {
	return r == RoleTenantAdmin || r == RoleUser
}
