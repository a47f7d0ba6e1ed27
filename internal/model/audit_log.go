package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog is a write-only record of a mutating operation. The application
// never reads these back; failures to insert one must never fail the
// operation that produced it.
type AuditLog struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	TenantID   uuid.UUID  `json:"tenantId" gorm:"type:uuid;index;not null"`
	UserID     *uuid.UUID `json:"userId" gorm:"type:uuid"`
	Action     string     `json:"action" gorm:"type:varchar(50);not null"`
	EntityType string     `json:"entityType" gorm:"type:varchar(50);not null"`
	EntityID   *uuid.UUID `json:"entityId" gorm:"type:uuid"`
	IPAddress  string     `json:"ipAddress" gorm:"type:varchar(45)"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// TableName returns the table name for the AuditLog model
func (AuditLog) TableName() string {
	return "audit_logs"
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
