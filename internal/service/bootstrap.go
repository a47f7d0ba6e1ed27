package service

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskboard-service/internal/model"
	"taskboard-service/pkg/config"
)

// EnsureSuperAdmin seeds the global super admin account from configuration.
// Tenants can self-register, but the super-admin surface (tenant listing,
// plan changes) is unreachable without one. No-op when the account already
// exists or the config is incomplete.
func EnsureSuperAdmin(db *gorm.DB, cfg *config.BootstrapConfig) error {
	if cfg.SuperAdminEmail == "" || cfg.SuperAdminPassword == "" {
		return nil
	}

	var count int64
	err := db.Model(&model.User{}).
		Where("email = ? AND role = ? AND tenant_id IS NULL", cfg.SuperAdminEmail, model.RoleSuperAdmin).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(cfg.SuperAdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := model.User{
		TenantID:     nil,
		Email:        cfg.SuperAdminEmail,
		PasswordHash: string(hashed),
		FullName:     cfg.SuperAdminName,
		Role:         model.RoleSuperAdmin,
		IsActive:     true,
	}
	return db.Create(&admin).Error
}
