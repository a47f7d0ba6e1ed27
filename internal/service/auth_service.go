package service

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"taskboard-service/internal/apperror"
	"taskboard-service/internal/audit"
	"taskboard-service/internal/authz"
	"taskboard-service/internal/model"
	"taskboard-service/internal/quota"
	"taskboard-service/pkg/jwtutil"
)

// AuthService handles tenant registration, login and principal lookups.
type AuthService struct {
	db    *gorm.DB
	jwt   *jwtutil.JWTUtil
	audit *audit.Recorder
}

// NewAuthService creates an AuthService.
func NewAuthService(db *gorm.DB, jwt *jwtutil.JWTUtil, rec *audit.Recorder) *AuthService {
	return &AuthService{db: db, jwt: jwt, audit: rec}
}

// RegisterTenantInput carries the public tenant signup form.
type RegisterTenantInput struct {
	TenantName    string
	Subdomain     string
	AdminEmail    string
	AdminPassword string
	AdminFullName string
}

// UserSummary is the user projection embedded in auth responses.
type UserSummary struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"fullName"`
	Role     string    `json:"role"`
}

// RegisterTenantResult is the projection returned after registration.
type RegisterTenantResult struct {
	TenantID  uuid.UUID   `json:"tenantId"`
	Subdomain string      `json:"subdomain"`
	AdminUser UserSummary `json:"adminUser"`
}

// RegisterTenant creates a tenant on the free plan together with its first
// tenant admin, atomically. A taken subdomain is a 409.
func (s *AuthService) RegisterTenant(in RegisterTenantInput, ip string) (*RegisterTenantResult, error) {
	var tenant model.Tenant
	var admin model.User

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Tenant{}).Where("subdomain = ?", in.Subdomain).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperror.Conflict("subdomain already exists")
		}

		limits := quota.ForPlan(model.PlanFree)
		tenant = model.Tenant{
			Name:             in.TenantName,
			Subdomain:        in.Subdomain,
			Status:           model.TenantStatusActive,
			SubscriptionPlan: model.PlanFree,
			MaxUsers:         limits.MaxUsers,
			MaxProjects:      limits.MaxProjects,
		}
		if err := tx.Create(&tenant).Error; err != nil {
			return err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(in.AdminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		admin = model.User{
			TenantID:     &tenant.ID,
			Email:        in.AdminEmail,
			PasswordHash: string(hashed),
			FullName:     in.AdminFullName,
			Role:         model.RoleTenantAdmin,
			IsActive:     true,
		}
		return tx.Create(&admin).Error
	})
	if err != nil {
		return nil, apperror.From(err)
	}

	s.audit.Record(audit.Entry{
		TenantID:   tenant.ID,
		UserID:     &admin.ID,
		Action:     audit.ActionRegisterTenant,
		EntityType: "tenant",
		EntityID:   &tenant.ID,
		IPAddress:  ip,
	})

	return &RegisterTenantResult{
		TenantID:  tenant.ID,
		Subdomain: tenant.Subdomain,
		AdminUser: UserSummary{
			ID:       admin.ID,
			Email:    admin.Email,
			FullName: admin.FullName,
			Role:     admin.Role,
		},
	}, nil
}

// LoginInput carries the credentials. Tenant context is the subdomain or the
// tenant id; with neither, only super admins can log in.
type LoginInput struct {
	Email           string
	Password        string
	TenantSubdomain string
	TenantID        *uuid.UUID
}

// LoginUser is the user projection returned from login.
type LoginUser struct {
	ID       uuid.UUID  `json:"id"`
	Email    string     `json:"email"`
	FullName string     `json:"fullName"`
	Role     string     `json:"role"`
	TenantID *uuid.UUID `json:"tenantId"`
}

// LoginResult carries the bearer token and its lifetime in seconds.
type LoginResult struct {
	User      LoginUser `json:"user"`
	Token     string    `json:"token"`
	ExpiresIn int       `json:"expiresIn"`
}

// Login authenticates a user. Suspended tenants and inactive accounts are
// refused before the password is even checked.
func (s *AuthService) Login(in LoginInput) (*LoginResult, error) {
	if in.TenantID != nil || in.TenantSubdomain != "" {
		return s.tenantLogin(in)
	}
	return s.superAdminLogin(in)
}

func (s *AuthService) tenantLogin(in LoginInput) (*LoginResult, error) {
	var tenant model.Tenant
	query := s.db
	if in.TenantID != nil {
		query = query.Where("id = ?", *in.TenantID)
	} else {
		query = query.Where("subdomain = ?", in.TenantSubdomain)
	}
	if err := query.First(&tenant).Error; err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("tenant not found")
		}
		return nil, apperror.From(err)
	}
	if tenant.Status == model.TenantStatusSuspended {
		return nil, apperror.Forbidden("tenant suspended")
	}

	var user model.User
	if err := s.db.Where("tenant_id = ? AND email = ?", tenant.ID, in.Email).First(&user).Error; err != nil {
		if notFound(err) {
			return nil, apperror.Unauthorized("invalid credentials")
		}
		return nil, apperror.From(err)
	}

	return s.issueToken(&user, in.Password)
}

func (s *AuthService) superAdminLogin(in LoginInput) (*LoginResult, error) {
	var user model.User
	err := s.db.Where("email = ? AND role = ? AND tenant_id IS NULL", in.Email, model.RoleSuperAdmin).First(&user).Error
	if err != nil {
		if notFound(err) {
			// No super admin under this email: a regular user simply forgot
			// the tenant context.
			return nil, apperror.BadRequest("tenantSubdomain or tenantId is required")
		}
		return nil, apperror.From(err)
	}

	return s.issueToken(&user, in.Password)
}

func (s *AuthService) issueToken(user *model.User, password string) (*LoginResult, error) {
	if !user.IsActive {
		return nil, apperror.Forbidden("account inactive")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperror.Unauthorized("invalid credentials")
	}

	token, err := s.jwt.Generate(user.ID, user.TenantID, user.Role)
	if err != nil {
		return nil, apperror.From(err)
	}

	return &LoginResult{
		User: LoginUser{
			ID:       user.ID,
			Email:    user.Email,
			FullName: user.FullName,
			Role:     user.Role,
			TenantID: user.TenantID,
		},
		Token:     token,
		ExpiresIn: s.jwt.ExpiresInSeconds(),
	}, nil
}

// TenantSummary is the tenant projection embedded in the profile response.
type TenantSummary struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Subdomain        string    `json:"subdomain"`
	SubscriptionPlan string    `json:"subscriptionPlan"`
	MaxUsers         int       `json:"maxUsers"`
	MaxProjects      int       `json:"maxProjects"`
}

// Profile is the /auth/me projection.
type Profile struct {
	ID       uuid.UUID      `json:"id"`
	Email    string         `json:"email"`
	FullName string         `json:"fullName"`
	Role     string         `json:"role"`
	IsActive bool           `json:"isActive"`
	Tenant   *TenantSummary `json:"tenant"`
}

// CurrentUser returns the principal's profile with its tenant summary.
func (s *AuthService) CurrentUser(userID uuid.UUID) (*Profile, error) {
	var user model.User
	if err := s.db.First(&user, "id = ?", userID).Error; err != nil {
		if notFound(err) {
			return nil, apperror.NotFound("user not found")
		}
		return nil, apperror.From(err)
	}

	profile := &Profile{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     user.Role,
		IsActive: user.IsActive,
	}

	if user.TenantID != nil {
		var tenant model.Tenant
		if err := s.db.First(&tenant, "id = ?", *user.TenantID).Error; err == nil {
			profile.Tenant = &TenantSummary{
				ID:               tenant.ID,
				Name:             tenant.Name,
				Subdomain:        tenant.Subdomain,
				SubscriptionPlan: tenant.SubscriptionPlan,
				MaxUsers:         tenant.MaxUsers,
				MaxProjects:      tenant.MaxProjects,
			}
		}
	}

	return profile, nil
}

// Logout records an audit entry. Tokens are stateless, so there is nothing to
// invalidate server-side; super admins have no tenant to audit against.
func (s *AuthService) Logout(p authz.Principal, ip string) {
	if p.TenantID == nil {
		return
	}
	userID := p.UserID
	s.audit.Record(audit.Entry{
		TenantID:   *p.TenantID,
		UserID:     &userID,
		Action:     audit.ActionLogout,
		EntityType: "user",
		EntityID:   &userID,
		IPAddress:  ip,
	})
}
