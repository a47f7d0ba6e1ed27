package service

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"taskboard-service/internal/apperror"
	"taskboard-service/internal/audit"
	"taskboard-service/internal/authz"
	"taskboard-service/internal/model"
	"taskboard-service/internal/quota"
)

// openTestDB opens an isolated in-memory database with the full schema.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Project{},
		&model.Task{},
		&model.AuditLog{},
	))
	return db
}

func testRecorder(db *gorm.DB) *audit.Recorder {
	return audit.NewRecorder(db, zap.NewNop())
}

func seedTenant(t *testing.T, db *gorm.DB, subdomain, plan string) *model.Tenant {
	t.Helper()
	limits := quota.ForPlan(plan)
	tenant := model.Tenant{
		Name:             subdomain,
		Subdomain:        subdomain,
		Status:           model.TenantStatusActive,
		SubscriptionPlan: plan,
		MaxUsers:         limits.MaxUsers,
		MaxProjects:      limits.MaxProjects,
	}
	require.NoError(t, db.Create(&tenant).Error)
	return &tenant
}

// seedUser creates an account. A nil tenant makes a super admin.
func seedUser(t *testing.T, db *gorm.DB, tenant *model.Tenant, email, role string, active bool) *model.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := model.User{
		Email:        email,
		PasswordHash: string(hashed),
		FullName:     email,
		Role:         role,
		IsActive:     active,
	}
	if tenant != nil {
		user.TenantID = &tenant.ID
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func principalOf(u *model.User) authz.Principal {
	return authz.Principal{UserID: u.ID, TenantID: u.TenantID, Role: u.Role}
}

// requireAppError asserts err carries the given status and message.
func requireAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var ae *apperror.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, status, ae.Status)
	assert.Equal(t, message, ae.Message)
}

func auditActions(t *testing.T, db *gorm.DB) []string {
	t.Helper()
	var rows []model.AuditLog
	require.NoError(t, db.Order("created_at").Find(&rows).Error)
	actions := make([]string, len(rows))
	for i, r := range rows {
		actions[i] = r.Action
	}
	return actions
}

func TestNormalizePage(t *testing.T) {
	page, limit, offset := normalizePage(0, 0, DefaultProjectLimit)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultProjectLimit, limit)
	assert.Equal(t, 0, offset)

	page, limit, offset = normalizePage(3, 25, DefaultProjectLimit)
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)
	assert.Equal(t, 50, offset)

	// Requests above the cap are clamped, never honored.
	_, limit, _ = normalizePage(1, 500, DefaultProjectLimit)
	assert.Equal(t, MaxPageLimit, limit)

	_, limit, _ = normalizePage(1, -1, DefaultTaskLimit)
	assert.Equal(t, DefaultTaskLimit, limit)
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, totalPages(0, 20))
	assert.Equal(t, 1, totalPages(1, 20))
	assert.Equal(t, 1, totalPages(20, 20))
	assert.Equal(t, 2, totalPages(21, 20))
}
