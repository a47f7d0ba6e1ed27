package authz

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskboard-service/internal/model"
)

func superAdmin() Principal {
	return Principal{UserID: uuid.New(), Role: model.RoleSuperAdmin}
}

func tenantAdmin(tenantID uuid.UUID) Principal {
	return Principal{UserID: uuid.New(), TenantID: &tenantID, Role: model.RoleTenantAdmin}
}

func member(tenantID uuid.UUID) Principal {
	return Principal{UserID: uuid.New(), TenantID: &tenantID, Role: model.RoleUser}
}

func TestCanViewTenant(t *testing.T) {
	tenantID := uuid.New()

	assert.Nil(t, CanViewTenant(superAdmin(), tenantID))
	assert.Nil(t, CanViewTenant(member(tenantID), tenantID))

	err := CanViewTenant(member(uuid.New()), tenantID)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusForbidden, err.Status)
}

func TestCanUpdateTenant(t *testing.T) {
	tenantID := uuid.New()

	assert.Nil(t, CanUpdateTenant(superAdmin(), tenantID, true))
	assert.Nil(t, CanUpdateTenant(tenantAdmin(tenantID), tenantID, false))

	err := CanUpdateTenant(tenantAdmin(tenantID), tenantID, true)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusForbidden, err.Status)
	assert.Equal(t, "cannot update restricted fields", err.Message)

	assert.NotNil(t, CanUpdateTenant(member(tenantID), tenantID, false))
	assert.NotNil(t, CanUpdateTenant(tenantAdmin(uuid.New()), tenantID, false))
}

func TestCanListTenants(t *testing.T) {
	assert.Nil(t, CanListTenants(superAdmin()))
	assert.NotNil(t, CanListTenants(tenantAdmin(uuid.New())))
	assert.NotNil(t, CanListTenants(member(uuid.New())))
}

func TestCanCreateTenantUser(t *testing.T) {
	tenantID := uuid.New()

	assert.Nil(t, CanCreateTenantUser(tenantAdmin(tenantID), tenantID))
	assert.NotNil(t, CanCreateTenantUser(member(tenantID), tenantID))
	assert.NotNil(t, CanCreateTenantUser(tenantAdmin(uuid.New()), tenantID))
	// Super admins manage tenants, not their members.
	assert.NotNil(t, CanCreateTenantUser(superAdmin(), tenantID))
}

func TestCanUpdateUser(t *testing.T) {
	tenantID := uuid.New()
	self := member(tenantID)
	target := &model.User{ID: self.UserID, TenantID: &tenantID, Role: model.RoleUser}

	assert.Nil(t, CanUpdateUser(self, target, false))

	err := CanUpdateUser(self, target, true)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusForbidden, err.Status)
	assert.Equal(t, "cannot update restricted fields", err.Message)

	admin := tenantAdmin(tenantID)
	assert.Nil(t, CanUpdateUser(admin, target, true))

	foreignAdmin := tenantAdmin(uuid.New())
	assert.NotNil(t, CanUpdateUser(foreignAdmin, target, false))

	stranger := member(tenantID)
	assert.NotNil(t, CanUpdateUser(stranger, target, false))
}

func TestCanDeleteUser(t *testing.T) {
	tenantID := uuid.New()
	admin := tenantAdmin(tenantID)

	other := &model.User{ID: uuid.New(), TenantID: &tenantID}
	assert.Nil(t, CanDeleteUser(admin, other))

	self := &model.User{ID: admin.UserID, TenantID: &tenantID}
	err := CanDeleteUser(admin, self)
	require.NotNil(t, err)
	assert.Equal(t, "cannot delete yourself", err.Message)

	assert.NotNil(t, CanDeleteUser(member(tenantID), other))

	foreign := &model.User{ID: uuid.New(), TenantID: ptrUUID(uuid.New())}
	assert.NotNil(t, CanDeleteUser(admin, foreign))
}

func TestCanModifyProject(t *testing.T) {
	tenantID := uuid.New()
	creator := member(tenantID)
	project := &model.Project{ID: uuid.New(), TenantID: tenantID, CreatedBy: creator.UserID}

	assert.Nil(t, CanModifyProject(creator, project))
	assert.Nil(t, CanModifyProject(tenantAdmin(tenantID), project))

	err := CanModifyProject(member(tenantID), project)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusForbidden, err.Status)
}

func TestCanAccessTask(t *testing.T) {
	tenantID := uuid.New()
	task := &model.Task{ID: uuid.New(), TenantID: tenantID}

	assert.Nil(t, CanAccessTask(member(tenantID), task))

	err := CanAccessTask(member(uuid.New()), task)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusForbidden, err.Status)
	assert.Equal(t, "task does not belong to your tenant", err.Message)
}

func TestCanAccessProjectTasks(t *testing.T) {
	tenantID := uuid.New()
	project := &model.Project{ID: uuid.New(), TenantID: tenantID}

	assert.Nil(t, CanAccessProjectTasks(member(tenantID), project))

	err := CanAccessProjectTasks(member(uuid.New()), project)
	require.NotNil(t, err)
	assert.Equal(t, http.StatusForbidden, err.Status)
}

func ptrUUID(id uuid.UUID) *uuid.UUID {
	return &id
}
