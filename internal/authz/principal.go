package authz

import (
	"github.com/google/uuid"

	"taskboard-service/internal/model"
)

// Principal is the authenticated actor behind a request, rebuilt from the
// bearer token on every call. TenantID is nil only for super admins.
type Principal struct {
	UserID   uuid.UUID
	TenantID *uuid.UUID
	Role     string
}

// IsSuperAdmin reports whether the principal is the global super admin role.
func (p Principal) IsSuperAdmin() bool {
	return p.Role == model.RoleSuperAdmin
}

// IsTenantAdmin reports whether the principal administers its own tenant.
func (p Principal) IsTenantAdmin() bool {
	return p.Role == model.RoleTenantAdmin
}

// InTenant reports whether the principal belongs to the given tenant.
func (p Principal) InTenant(tenantID uuid.UUID) bool {
	return p.TenantID != nil && *p.TenantID == tenantID
}
