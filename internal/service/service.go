// Package service implements the resource services orchestrating
// authorization, quota enforcement, persistence and audit emission. Every
// mutating method runs its persistence inside one transaction; the audit
// record is written after commit through the best-effort recorder.
package service

import (
	"errors"

	"gorm.io/gorm"
)

// List defaults. Every list endpoint caps the page size at MaxPageLimit
// regardless of what the client asks for.
const (
	MaxPageLimit        = 100
	DefaultTenantLimit  = 10
	DefaultProjectLimit = 20
	DefaultUserLimit    = 50
	DefaultTaskLimit    = 50
)

// Pagination is the page metadata returned by list operations.
type Pagination struct {
	CurrentPage int `json:"currentPage"`
	TotalPages  int `json:"totalPages"`
	Limit       int `json:"limit"`
}

// normalizePage clamps page and limit and returns the SQL offset.
func normalizePage(page, limit, defaultLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit, (page - 1) * limit
}

// totalPages computes the page count for a result set.
func totalPages(total int64, limit int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}

// notFound reports whether err is a missing-row error.
func notFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
