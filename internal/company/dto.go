// AngelaMos | 2026
// dto.go

package company

import (
	"time"
)

type CreateCompanyRequest struct {
	Name             string `json:"name"             validate:"required,min=2,max=255"`
	Slug             string `json:"slug"             validate:"required,min=2,max=100,slug"`
	Email            string `json:"email"            validate:"required,email,max=255"`
	Phone            string `json:"phone"            validate:"omitempty,phone,max=50"`
	Address          string `json:"address"          validate:"omitempty,max=500"`
	City             string `json:"city"             validate:"omitempty,max=100"`
	PostalCode       string `json:"postalCode"       validate:"omitempty,max=20"`
	Country          string `json:"country"          validate:"omitempty,max=100"`
	Website          string `json:"website"          validate:"omitempty,url"`
	Description      string `json:"description"      validate:"omitempty,max=2000"`
	SubscriptionPlan string `json:"subscriptionPlan" validate:"omitempty,oneof=basic premium enterprise"`
}

// UpdateCompanyRequest is a partial update; nil fields are left alone.
type UpdateCompanyRequest struct {
	Name        *string        `json:"name"        validate:"omitempty,min=2,max=255"`
	Email       *string        `json:"email"       validate:"omitempty,email,max=255"`
	Phone       *string        `json:"phone"       validate:"omitempty,max=50"`
	Address     *string        `json:"address"     validate:"omitempty,max=500"`
	City        *string        `json:"city"        validate:"omitempty,max=100"`
	PostalCode  *string        `json:"postalCode"  validate:"omitempty,max=20"`
	Country     *string        `json:"country"     validate:"omitempty,max=100"`
	Website     *string        `json:"website"     validate:"omitempty,max=255"`
	Description *string        `json:"description" validate:"omitempty,max=2000"`
	Settings    map[string]any `json:"settings"`
}

// AdminUpdateCompanyRequest additionally lets a system admin move a
// company between statuses and plans.
type AdminUpdateCompanyRequest struct {
	UpdateCompanyRequest
	Status           *string `json:"status"           validate:"omitempty,oneof=active inactive suspended"`
	SubscriptionPlan *string `json:"subscriptionPlan" validate:"omitempty,oneof=basic premium enterprise"`
}

type UpdateSettingsRequest struct {
	Settings map[string]any `json:"settings" validate:"required"`
}

type ListCompaniesParams struct {
	Page     int
	PageSize int
	Status   string
	Plan     string
	Search   string
}

func (p *ListCompaniesParams) Normalize() {
	normalizePage(&p.Page, &p.PageSize)
}

func (p *ListCompaniesParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type ListUsersParams struct {
	CompanyID string
	Page      int
	PageSize  int
	Role      string
	IsActive  *bool
}

func (p *ListUsersParams) Normalize() {
	normalizePage(&p.Page, &p.PageSize)
}

func (p *ListUsersParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func normalizePage(page, pageSize *int) {
	if *page < 1 {
		*page = 1
	}
	if *pageSize < 1 {
		*pageSize = 20
	}
	if *pageSize > 100 {
		*pageSize = 100
	}
}

type CompanyResponse struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Slug             string         `json:"slug"`
	Email            string         `json:"email,omitempty"`
	Phone            string         `json:"phone,omitempty"`
	Address          string         `json:"address,omitempty"`
	City             string         `json:"city,omitempty"`
	PostalCode       string         `json:"postalCode,omitempty"`
	Country          string         `json:"country,omitempty"`
	Website          string         `json:"website,omitempty"`
	Description      string         `json:"description,omitempty"`
	LogoURL          string         `json:"logoUrl,omitempty"`
	Status           string         `json:"status"`
	SubscriptionPlan string         `json:"subscriptionPlan"`
	Settings         map[string]any `json:"settings"`
	CreatedAt        time.Time      `json:"createdAt"`
	UpdatedAt        time.Time      `json:"updatedAt"`
}

// PublicProfile is what anonymous clients may see of an active company.
type PublicProfile struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Email       string         `json:"email,omitempty"`
	Description string         `json:"description,omitempty"`
	Phone       string         `json:"phone,omitempty"`
	Address     string         `json:"address,omitempty"`
	City        string         `json:"city,omitempty"`
	PostalCode  string         `json:"postalCode,omitempty"`
	Country     string         `json:"country,omitempty"`
	Website     string         `json:"website,omitempty"`
	LogoURL     string         `json:"logoUrl,omitempty"`
	Category    any            `json:"category"`
	CoverImage  any            `json:"coverImage"`
	Hours       any            `json:"hours"`
	Settings    map[string]any `json:"settings"`
}

type CompanyUserResponse struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Role      string     `json:"role"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin"`
	CreatedAt time.Time  `json:"createdAt"`
}

type CompanyStatsResponse struct {
	UserStats   UserStats   `json:"userStats"`
	APIKeyStats APIKeyStats `json:"apiKeyStats"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func ToCompanyResponse(c *Company) CompanyResponse {
	settings := map[string]any(c.Settings)
	if settings == nil {
		settings = map[string]any{}
	}

	return CompanyResponse{
		ID:               c.ID,
		Name:             c.Name,
		Slug:             c.Slug,
		Email:            deref(c.Email),
		Phone:            deref(c.Phone),
		Address:          deref(c.Address),
		City:             deref(c.City),
		PostalCode:       deref(c.PostalCode),
		Country:          deref(c.Country),
		Website:          deref(c.Website),
		Description:      deref(c.Description),
		LogoURL:          deref(c.LogoURL),
		Status:           c.Status,
		SubscriptionPlan: c.SubscriptionPlan,
		Settings:         settings,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func ToCompanyResponseList(companies []Company) []CompanyResponse {
	out := make([]CompanyResponse, 0, len(companies))
	for i := range companies {
		out = append(out, ToCompanyResponse(&companies[i]))
	}
	return out
}

func ToPublicProfile(c *Company) PublicProfile {
	settings := map[string]any(c.Settings)
	if settings == nil {
		settings = map[string]any{}
	}

	return PublicProfile{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Email:       deref(c.Email),
		Description: deref(c.Description),
		Phone:       deref(c.Phone),
		Address:     deref(c.Address),
		City:        deref(c.City),
		PostalCode:  deref(c.PostalCode),
		Country:     deref(c.Country),
		Website:     deref(c.Website),
		LogoURL:     deref(c.LogoURL),
		Category:    firstSetting(settings, "category", "industry"),
		CoverImage:  nestedSetting(settings, "branding", "coverImage", "heroImage"),
		Hours:       firstSetting(settings, "businessHours", "hours"),
		Settings:    settings,
	}
}

func ToCompanyUserList(users []CompanyUser) []CompanyUserResponse {
	out := make([]CompanyUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, CompanyUserResponse{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role,
			IsActive:  u.IsActive,
			LastLogin: u.LastLogin,
			CreatedAt: u.CreatedAt,
		})
	}
	return out
}

func firstSetting(settings map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := settings[k]; ok && v != nil && v != "" {
			return v
		}
	}
	return nil
}

func nestedSetting(settings map[string]any, parent string, keys ...string) any {
	nested, ok := settings[parent].(map[string]any)
	if !ok {
		return nil
	}
	return firstSetting(nested, keys...)
}
