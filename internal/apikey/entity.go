// AngelaMos | 2026
// entity.go

package apikey

import (
	"time"

	"github.com/terminar/core-service/internal/core"
)

const prefixLength = 8

type APIKey struct {
	ID          string          `db:"id"`
	CompanyID   string          `db:"company_id"`
	Name        string          `db:"name"`
	KeyHash     string          `db:"key_hash"`
	KeyPrefix   string          `db:"key_prefix"`
	Permissions core.StringList `db:"permissions"`
	CreatedBy   *string         `db:"created_by"`
	IsActive    bool            `db:"is_active"`
	ExpiresAt   *time.Time      `db:"expires_at"`
	LastUsedAt  *time.Time      `db:"last_used_at"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (k *APIKey) IsExpired(now time.Time) bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(now)
}

func (k *APIKey) IsUsable(now time.Time) bool {
	return k.IsActive && !k.IsExpired(now)
}

func (k *APIKey) MaskedKey() string {
	return k.KeyPrefix + "..."
}

// KeyWithCompany is a key row joined with the company that owns it.
type KeyWithCompany struct {
	APIKey
	CompanySlug   string `db:"company_slug"`
	CompanyName   string `db:"company_name"`
	CompanyStatus string `db:"company_status"`
	CompanyPlan   string `db:"company_plan"`
}

func keyPrefix(raw string) string {
	if len(raw) <= prefixLength {
		return raw
	}
	return raw[:prefixLength]
}
