package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant statuses
const (
	TenantStatusActive    = "active"
	TenantStatusSuspended = "suspended"
	TenantStatusTrial     = "trial"
)

// Subscription plans
const (
	PlanFree       = "free"
	PlanPro        = "pro"
	PlanEnterprise = "enterprise"
)

// Tenant represents an isolated organization. Every user, project and task
// belongs to exactly one tenant; the subdomain is the tenant's login handle.
type Tenant struct {
	ID               uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name             string    `json:"name" gorm:"type:varchar(255);not null"`
	Subdomain        string    `json:"subdomain" gorm:"type:varchar(63);uniqueIndex;not null"`
	Status           string    `json:"status" gorm:"type:varchar(20);not null;default:'active'"`
	SubscriptionPlan string    `json:"subscriptionPlan" gorm:"type:varchar(20);not null;default:'free'"`
	MaxUsers         int       `json:"maxUsers" gorm:"not null"`
	MaxProjects      int       `json:"maxProjects" gorm:"not null"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Tenant model
func (Tenant) TableName() string {
	return "tenants"
}

// BeforeCreate assigns the primary key so inserts work the same on Postgres
// and the in-memory test database.
func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ValidTenantStatus reports whether s is a known tenant status.
func ValidTenantStatus(s string) bool {
	return s == TenantStatusActive || s == TenantStatusSuspended || s == TenantStatusTrial
}

// ValidPlan reports whether p is a known subscription plan.
func ValidPlan(p string) bool {
	return p == PlanFree || p == PlanPro || p == PlanEnterprise
}
