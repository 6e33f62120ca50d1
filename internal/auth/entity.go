// AngelaMos | 2026
// entity.go

package auth

import (
	"time"
)

// RefreshToken is one ledger row. Only the SHA-256 of the signed token is
// stored.
type RefreshToken struct {
	ID        string     `db:"id"`
	UserID    string     `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	CreatedAt time.Time  `db:"created_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	UserAgent string     `db:"user_agent"`
	IPAddress string     `db:"ip_address"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsUsable covers the ledger half of usability; the owner must also still
// be active.
func (t *RefreshToken) IsUsable(now time.Time) bool {
	return !t.IsExpired(now) && !t.IsRevoked()
}
