// Package audit writes best-effort audit records. Recording happens after the
// mutating transaction has committed, on the root connection, so a broken
// audit table can never roll back or fail the operation it describes.
package audit

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"taskboard-service/internal/model"
)

// Audit action tags
const (
	ActionRegisterTenant   = "REGISTER_TENANT"
	ActionLogout           = "LOGOUT"
	ActionUpdateTenant     = "UPDATE_TENANT"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionCreateProject    = "CREATE_PROJECT"
	ActionUpdateProject    = "UPDATE_PROJECT"
	ActionDeleteProject    = "DELETE_PROJECT"
	ActionCreateTask       = "CREATE_TASK"
	ActionUpdateTask       = "UPDATE_TASK"
	ActionUpdateTaskStatus = "UPDATE_TASK_STATUS"
)

// Entry describes one auditable event.
type Entry struct {
	TenantID   uuid.UUID
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   *uuid.UUID
	IPAddress  string
}

// Recorder persists audit entries. Failures are logged and swallowed.
type Recorder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewRecorder creates a Recorder writing through the given handle.
func NewRecorder(db *gorm.DB, log *zap.Logger) *Recorder {
	return &Recorder{db: db, log: log}
}

// Record inserts the entry. Errors never propagate to the caller.
func (r *Recorder) Record(e Entry) {
	row := model.AuditLog{
		TenantID:   e.TenantID,
		UserID:     e.UserID,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		IPAddress:  e.IPAddress,
	}
	if err := r.db.Create(&row).Error; err != nil {
		r.log.Warn("failed to write audit log",
			zap.String("action", e.Action),
			zap.String("entity_type", e.EntityType),
			zap.Error(err))
	}
}
