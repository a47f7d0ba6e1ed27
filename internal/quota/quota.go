// Package quota derives per-tenant resource limits from the subscription plan
// and decides whether a creation may proceed. The count is read in the same
// logical operation as the insert; two concurrent creations can both observe
// count = limit-1 and both pass. Limits are business guardrails, not capacity
// constraints, so that window is accepted rather than serializing creations
// per tenant.
package quota

import (
	"taskboard-service/internal/apperror"
	"taskboard-service/internal/model"
)

// Limits are the plan-derived caps stored on the tenant row. Tenant admins
// cannot set them directly; changing the plan recomputes them.
type Limits struct {
	MaxUsers    int
	MaxProjects int
}

var planLimits = map[string]Limits{
	model.PlanFree:       {MaxUsers: 5, MaxProjects: 3},
	model.PlanPro:        {MaxUsers: 50, MaxProjects: 50},
	model.PlanEnterprise: {MaxUsers: 1000, MaxProjects: 1000},
}

// ForPlan returns the limits for a subscription plan. Unknown plans get the
// free tier.
func ForPlan(plan string) Limits {
	if l, ok := planLimits[plan]; ok {
		return l
	}
	return planLimits[model.PlanFree]
}

// CheckUsers rejects a user creation once the tenant is at its cap.
func CheckUsers(current int64, maxUsers int) *apperror.Error {
	if current >= int64(maxUsers) {
		return apperror.Forbidden("subscription limit reached")
	}
	return nil
}

// CheckProjects rejects a project creation once the tenant is at its cap.
func CheckProjects(current int64, maxProjects int) *apperror.Error {
	if current >= int64(maxProjects) {
		return apperror.Forbidden("project limit reached")
	}
	return nil
}
