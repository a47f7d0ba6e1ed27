// Package authz holds the per-resource authorization rules. Every function is
// a pure decision: given the principal and the target's tenant/owner, return
// nil to allow or an apperror carrying the status to deny with.
//
// Not-found and wrong-tenant are deliberately distinguished per resource:
// tasks answer 403 once the row is known to exist in another tenant, projects
// answer 404 so a probe can't confirm existence. That asymmetry is intended.
package authz

import (
	"github.com/google/uuid"

	"taskboard-service/internal/apperror"
	"taskboard-service/internal/model"
)

// CanViewTenant allows super admins and members of the tenant itself.
func CanViewTenant(p Principal, tenantID uuid.UUID) *apperror.Error {
	if p.IsSuperAdmin() || p.InTenant(tenantID) {
		return nil
	}
	return apperror.Forbidden("unauthorized access")
}

// CanUpdateTenant gates tenant mutation. Super admins may touch any field; a
// tenant admin may rename their own tenant but any attempt at the restricted
// fields (status, plan, limits) is an explicit 403, never silently dropped.
func CanUpdateTenant(p Principal, tenantID uuid.UUID, touchesRestricted bool) *apperror.Error {
	if p.IsSuperAdmin() {
		return nil
	}
	if !p.IsTenantAdmin() {
		return apperror.Forbidden("forbidden")
	}
	if !p.InTenant(tenantID) {
		return apperror.Forbidden("unauthorized access")
	}
	if touchesRestricted {
		return apperror.Forbidden("cannot update restricted fields")
	}
	return nil
}

// CanListTenants is super admin only.
func CanListTenants(p Principal) *apperror.Error {
	if p.IsSuperAdmin() {
		return nil
	}
	return apperror.Forbidden("forbidden")
}

// CanCreateTenantUser allows only a tenant admin acting on their own tenant.
func CanCreateTenantUser(p Principal, tenantID uuid.UUID) *apperror.Error {
	if p.IsTenantAdmin() && p.InTenant(tenantID) {
		return nil
	}
	return apperror.Forbidden("unauthorized")
}

// CanListTenantUsers requires membership in the queried tenant.
func CanListTenantUsers(p Principal, tenantID uuid.UUID) *apperror.Error {
	if p.InTenant(tenantID) {
		return nil
	}
	return apperror.Forbidden("unauthorized")
}

// CanUpdateUser allows self-updates and tenant-admin updates within the same
// tenant. A plain user touching role or the active flag, even on themself, is
// denied.
func CanUpdateUser(p Principal, target *model.User, touchesRestricted bool) *apperror.Error {
	if p.UserID != target.ID && !p.IsTenantAdmin() {
		return apperror.Forbidden("unauthorized")
	}
	if p.IsTenantAdmin() {
		if target.TenantID == nil || !p.InTenant(*target.TenantID) {
			return apperror.Forbidden("unauthorized")
		}
		return nil
	}
	if touchesRestricted {
		return apperror.Forbidden("cannot update restricted fields")
	}
	return nil
}

// CanDeleteUser allows a tenant admin to delete other accounts in their own
// tenant. Deleting yourself is refused outright.
func CanDeleteUser(p Principal, target *model.User) *apperror.Error {
	if !p.IsTenantAdmin() {
		return apperror.Forbidden("unauthorized")
	}
	if p.UserID == target.ID {
		return apperror.Forbidden("cannot delete yourself")
	}
	if target.TenantID == nil || !p.InTenant(*target.TenantID) {
		return apperror.Forbidden("unauthorized")
	}
	return nil
}

// CanModifyProject allows the tenant admin of the project's tenant or the
// project's creator. Callers resolve cross-tenant lookups to 404 before this
// runs, so the only question left is role or ownership.
func CanModifyProject(p Principal, project *model.Project) *apperror.Error {
	if p.IsTenantAdmin() && p.InTenant(project.TenantID) {
		return nil
	}
	if project.CreatedBy == p.UserID {
		return nil
	}
	return apperror.Forbidden("unauthorized")
}

// CanAccessTask requires membership in the task's tenant. The task is already
// known to exist at this point, so a wrong tenant is a 403.
func CanAccessTask(p Principal, task *model.Task) *apperror.Error {
	if p.InTenant(task.TenantID) {
		return nil
	}
	return apperror.Forbidden("task does not belong to your tenant")
}

// CanAccessProjectTasks requires membership in the project's tenant, with the
// same found-but-foreign 403 semantics as tasks.
func CanAccessProjectTasks(p Principal, project *model.Project) *apperror.Error {
	if p.InTenant(project.TenantID) {
		return nil
	}
	return apperror.Forbidden("project does not belong to your tenant")
}
