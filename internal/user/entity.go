// AngelaMos | 2026
// entity.go

package user

import (
	"time"

	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

const (
	RoleSystemAdmin = middleware.RoleSystemAdmin
	RoleAdmin       = middleware.RoleAdmin
	RoleManager     = middleware.RoleManager
	RoleUser        = middleware.RoleUser
)

// User is a users row left-joined with its company. The company columns
// are nil for users without a company.
type User struct {
	ID                string          `db:"id"`
	Email             string          `db:"email"`
	PasswordHash      string          `db:"password_hash"`
	FirstName         string          `db:"first_name"`
	LastName          string          `db:"last_name"`
	Phone             *string         `db:"phone"`
	CompanyID         *string         `db:"company_id"`
	Role              string          `db:"role"`
	Permissions       core.StringList `db:"permissions"`
	IsActive          bool            `db:"is_active"`
	IsVerified        bool            `db:"is_verified"`
	LastLogin         *time.Time      `db:"last_login"`
	ResetTokenHash    *string         `db:"reset_token_hash"`
	ResetTokenExpires *time.Time      `db:"reset_token_expires"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`

	CompanySlug   *string `db:"company_slug"`
	CompanyName   *string `db:"company_name"`
	CompanyStatus *string `db:"company_status"`
	CompanyPlan   *string `db:"company_plan"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) InCompany(companyID string) bool {
	return u.CompanyID != nil && companyID != "" && *u.CompanyID == companyID
}

type Profile struct {
	UserID                string       `db:"user_id"`
	Bio                   *string      `db:"bio"`
	Position              *string      `db:"position"`
	Department            *string      `db:"department"`
	Preferences           core.JSONMap `db:"preferences"`
	NotificationsSettings core.JSONMap `db:"notifications_settings"`
	UpdatedAt             time.Time    `db:"updated_at"`
}

func defaultProfile(userID string) *Profile {
	return &Profile{
		UserID:                userID,
		Preferences:           core.JSONMap{},
		NotificationsSettings: core.JSONMap{"email": true, "push": true},
	}
}

type Stats struct {
	TotalUsers    int `db:"total_users"    json:"totalUsers"`
	ActiveUsers   int `db:"active_users"   json:"activeUsers"`
	VerifiedUsers int `db:"verified_users" json:"verifiedUsers"`
	AdminUsers    int `db:"admin_users"    json:"adminUsers"`
	ManagerUsers  int `db:"manager_users"  json:"managerUsers"`
	RecentLogins  int `db:"recent_logins"  json:"recentLogins"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
