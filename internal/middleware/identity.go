// AngelaMos | 2026
// identity.go

package middleware

import (
	"context"
	"slices"
	"time"
)

type contextKey string

const (
	IdentityKey contextKey = "identity"
	APIKeyKey   contextKey = "api_key"
	CompanyKey  contextKey = "company"
)

const (
	RoleSystemAdmin = "system_admin"
	RoleAdmin       = "admin"
	RoleManager     = "manager"
	RoleUser        = "user"
)

const (
	CompanyStatusActive = "active"

	PermissionWildcard = "*"
)

type IdentityKind string

const (
	KindUser    IdentityKind = "user"
	KindService IdentityKind = "service"
)

// AccessTokenClaims is the verified payload of an access token.
type AccessTokenClaims struct {
	UserID      string
	CompanyID   string
	Email       string
	Role        string
	Permissions []string
	CompanySlug string
	TokenID     string
	ExpiresAt   time.Time
}

// UserRecord is the freshly loaded, active user row joined with its
// company. Empty company fields mean the user has no company.
type UserRecord struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	Role        string
	Permissions []string
	CompanyID   string
	CompanySlug string
	CompanyName string
	CompanyPlan string
	IsActive    bool
}

type CompanyRecord struct {
	ID               string
	Name             string
	Slug             string
	Status           string
	SubscriptionPlan string
}

// APIKeyPrincipal is a resolved, usable API key and its company.
type APIKeyPrincipal struct {
	KeyID       string
	Name        string
	Permissions []string
	CompanyID   string
	CompanySlug string
	CompanyName string
	CompanyPlan string
}

func (p *APIKeyPrincipal) HasPermission(permission string) bool {
	return slices.Contains(p.Permissions, PermissionWildcard) ||
		slices.Contains(p.Permissions, permission)
}

// Identity is the single resolved caller of a request.
type Identity struct {
	Kind        IdentityKind
	UserID      string
	Email       string
	FirstName   string
	LastName    string
	Role        string
	Permissions []string
	CompanyID   string
	CompanySlug string
	CompanyName string
	CompanyPlan string
	Active      bool
	// Synthetic marks the development bypass identity; it has no backing rows.
	Synthetic bool
}

func (i *Identity) HasRole(roles ...string) bool {
	return slices.Contains(roles, i.Role)
}

// HasPermission is exact membership. "*" is not expanded for humans.
func (i *Identity) HasPermission(permission string) bool {
	return slices.Contains(i.Permissions, permission)
}

func (i *Identity) IsSystemAdmin() bool {
	return i.Role == RoleSystemAdmin
}

// CanAccessCompany reports whether the identity may act on resources owned
// by companyID. Only system admins cross tenants.
func (i *Identity) CanAccessCompany(companyID string) bool {
	if i == nil {
		return false
	}
	if i.IsSystemAdmin() {
		return true
	}
	return i.CompanyID != "" && i.CompanyID == companyID
}

// MergeIdentity builds the request identity from verified claims and the
// re-fetched user row. Every field the row carries wins over the claim,
// including an empty company: a user removed from a company loses it
// immediately even though the token still names it. Claims only fill the
// identity when no row is given.
func MergeIdentity(claims *AccessTokenClaims, row *UserRecord) *Identity {
	id := &Identity{Kind: KindUser}

	if claims != nil {
		id.UserID = claims.UserID
		id.Email = claims.Email
		id.Role = claims.Role
		id.Permissions = slices.Clone(claims.Permissions)
		id.CompanyID = claims.CompanyID
		id.CompanySlug = claims.CompanySlug
		id.Active = true
	}

	if row == nil {
		return id
	}

	id.UserID = row.ID
	id.Email = row.Email
	id.FirstName = row.FirstName
	id.LastName = row.LastName
	id.Role = row.Role
	id.Permissions = slices.Clone(row.Permissions)
	id.CompanyID = row.CompanyID
	id.CompanySlug = row.CompanySlug
	id.CompanyName = row.CompanyName
	id.CompanyPlan = row.CompanyPlan
	id.Active = row.IsActive

	if id.Permissions == nil {
		id.Permissions = []string{}
	}

	return id
}

// ServiceIdentity is the identity attached for API key callers.
func ServiceIdentity(p *APIKeyPrincipal) *Identity {
	return &Identity{
		Kind:        KindService,
		CompanyID:   p.CompanyID,
		CompanySlug: p.CompanySlug,
		CompanyName: p.CompanyName,
		CompanyPlan: p.CompanyPlan,
		Permissions: []string{},
		Active:      true,
	}
}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, id)
}

func GetIdentity(ctx context.Context) *Identity {
	if id, ok := ctx.Value(IdentityKey).(*Identity); ok {
		return id
	}
	return nil
}

func WithAPIKey(ctx context.Context, p *APIKeyPrincipal) context.Context {
	return context.WithValue(ctx, APIKeyKey, p)
}

func GetAPIKey(ctx context.Context) *APIKeyPrincipal {
	if p, ok := ctx.Value(APIKeyKey).(*APIKeyPrincipal); ok {
		return p
	}
	return nil
}

func WithCompany(ctx context.Context, c *CompanyRecord) context.Context {
	return context.WithValue(ctx, CompanyKey, c)
}

func GetCompany(ctx context.Context) *CompanyRecord {
	if c, ok := ctx.Value(CompanyKey).(*CompanyRecord); ok {
		return c
	}
	return nil
}

func GetUserID(ctx context.Context) string {
	if id := GetIdentity(ctx); id != nil {
		return id.UserID
	}
	return ""
}

func GetCompanyID(ctx context.Context) string {
	if id := GetIdentity(ctx); id != nil {
		return id.CompanyID
	}
	return ""
}
