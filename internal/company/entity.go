// AngelaMos | 2026
// entity.go

package company

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terminar/core-service/internal/core"
)

const (
	StatusActive    = "active"
	StatusInactive  = "inactive"
	StatusSuspended = "suspended"
)

const (
	PlanBasic      = "basic"
	PlanPremium    = "premium"
	PlanEnterprise = "enterprise"
)

const defaultCountry = "Slovakia"

type Company struct {
	ID               string       `db:"id"`
	Name             string       `db:"name"`
	Slug             string       `db:"slug"`
	Email            *string      `db:"email"`
	Phone            *string      `db:"phone"`
	Address          *string      `db:"address"`
	City             *string      `db:"city"`
	PostalCode       *string      `db:"postal_code"`
	Country          *string      `db:"country"`
	Website          *string      `db:"website"`
	Description      *string      `db:"description"`
	LogoURL          *string      `db:"logo_url"`
	Status           string       `db:"status"`
	SubscriptionPlan string       `db:"subscription_plan"`
	Settings         core.JSONMap `db:"settings"`
	CreatedAt        time.Time    `db:"created_at"`
	UpdatedAt        time.Time    `db:"updated_at"`
}

// New returns an active basic-plan company with empty settings.
func New(name, slug, email string) *Company {
	country := defaultCountry
	return &Company{
		ID:               uuid.New().String(),
		Name:             strings.TrimSpace(name),
		Slug:             strings.ToLower(strings.TrimSpace(slug)),
		Email:            &email,
		Country:          &country,
		Status:           StatusActive,
		SubscriptionPlan: PlanBasic,
		Settings:         core.JSONMap{},
	}
}

func (c *Company) IsActive() bool {
	return c.Status == StatusActive
}

// CompanyUser is the slice of a user row exposed through company and
// integration endpoints.
type CompanyUser struct {
	ID        string     `db:"id"`
	Email     string     `db:"email"`
	FirstName string     `db:"first_name"`
	LastName  string     `db:"last_name"`
	Role      string     `db:"role"`
	IsActive  bool       `db:"is_active"`
	LastLogin *time.Time `db:"last_login"`
	CreatedAt time.Time  `db:"created_at"`
}

type UserStats struct {
	TotalUsers    int `db:"total_users"    json:"totalUsers"`
	ActiveUsers   int `db:"active_users"   json:"activeUsers"`
	VerifiedUsers int `db:"verified_users" json:"verifiedUsers"`
	AdminUsers    int `db:"admin_users"    json:"adminUsers"`
	RecentLogins  int `db:"recent_logins"  json:"recentLogins"`
}

type APIKeyStats struct {
	TotalKeys  int `db:"total_keys"  json:"totalKeys"`
	ActiveKeys int `db:"active_keys" json:"activeKeys"`
}

type GlobalStats struct {
	TotalCompanies   int `db:"total_companies"   json:"totalCompanies"`
	ActiveCompanies  int `db:"active_companies"  json:"activeCompanies"`
	PremiumCompanies int `db:"premium_companies" json:"premiumCompanies"`
	NewCompanies     int `db:"new_companies"     json:"newCompanies"`
}
