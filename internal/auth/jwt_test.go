// AngelaMos | 2026
// jwt_test.go

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminar/core-service/internal/config"
	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:       "access-secret-for-tests-0123456789",
		RefreshSecret:      "refresh-secret-for-tests-0123456789",
		AccessTokenExpire:  15 * time.Minute,
		RefreshTokenExpire: 7 * 24 * time.Hour,
		Issuer:             "core-service",
		Audience:           "terminar-apps",
		ClockSkew:          5 * time.Second,
	}
}

func newTestTokens(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testJWTConfig())
	require.NoError(t, err)
	return m
}

func TestNewTokenManagerRequiresSecrets(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshSecret = ""

	_, err := NewTokenManager(cfg)
	assert.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestTokens(t)

	issued, err := m.CreateAccessToken(middleware.AccessTokenClaims{
		UserID:      "u-1",
		CompanyID:   "c-1",
		Email:       "ana@acme.test",
		Role:        middleware.RoleAdmin,
		Permissions: []string{"*"},
		CompanySlug: "acme",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.TokenID)

	claims, err := m.VerifyAccessToken(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "c-1", claims.CompanyID)
	assert.Equal(t, "acme", claims.CompanySlug)
	assert.Equal(t, middleware.RoleAdmin, claims.Role)
	assert.Equal(t, []string{"*"}, claims.Permissions)
	assert.Equal(t, issued.TokenID, claims.TokenID)
}

func TestAccessTokenWithoutPermissions(t *testing.T) {
	m := newTestTokens(t)

	issued, err := m.CreateAccessToken(middleware.AccessTokenClaims{
		UserID: "u-1",
		Role:   middleware.RoleUser,
	})
	require.NoError(t, err)

	claims, err := m.VerifyAccessToken(context.Background(), issued.Token)
	require.NoError(t, err)
	assert.Equal(t, []string{}, claims.Permissions)
	assert.Empty(t, claims.CompanyID)
}

func TestTokenTypesDoNotCrossVerify(t *testing.T) {
	m := newTestTokens(t)

	refresh, err := m.CreateRefreshToken("u-1")
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(context.Background(), refresh.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)

	access, err := m.CreateAccessToken(middleware.AccessTokenClaims{
		UserID: "u-1",
		Role:   middleware.RoleUser,
	})
	require.NoError(t, err)

	_, err = m.VerifyRefreshToken(access.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestRefreshTokensAreDistinct(t *testing.T) {
	m := newTestTokens(t)

	a, err := m.CreateRefreshToken("u-1")
	require.NoError(t, err)
	b, err := m.CreateRefreshToken("u-1")
	require.NoError(t, err)

	assert.NotEqual(t, a.Token, b.Token)

	claims, err := m.VerifyRefreshToken(a.Token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, a.TokenID, claims.TokenID)
}

func TestExpiredAccessToken(t *testing.T) {
	m := newTestTokens(t)
	m.now = func() time.Time { return time.Now().Add(-time.Hour) }

	issued, err := m.CreateAccessToken(middleware.AccessTokenClaims{
		UserID: "u-1",
		Role:   middleware.RoleUser,
	})
	require.NoError(t, err)

	_, err = m.VerifyAccessToken(context.Background(), issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
}

func TestRefreshTokenLifetime(t *testing.T) {
	m := newTestTokens(t)
	fixed := time.Now().Truncate(time.Second)
	m.now = func() time.Time { return fixed }

	issued, err := m.CreateRefreshToken("u-1")
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, m.RefreshLifetime())
	assert.Equal(t, fixed.Add(m.RefreshLifetime()), issued.ExpiresAt)
}

func TestExpiredRefreshTokenIsNotReportedInvalid(t *testing.T) {
	m := newTestTokens(t)
	m.now = func() time.Time { return time.Now().Add(-8 * 24 * time.Hour) }

	issued, err := m.CreateRefreshToken("u-1")
	require.NoError(t, err)

	_, err = m.VerifyRefreshToken(issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenExpired)
	assert.NotErrorIs(t, err, core.ErrTokenInvalid)
}

func TestForeignSignatureRejected(t *testing.T) {
	other := testJWTConfig()
	other.AccessSecret = "some-other-secret-entirely-000000"
	foreign, err := NewTokenManager(other)
	require.NoError(t, err)

	issued, err := foreign.CreateAccessToken(middleware.AccessTokenClaims{
		UserID: "u-1",
		Role:   middleware.RoleUser,
	})
	require.NoError(t, err)

	_, err = newTestTokens(t).VerifyAccessToken(context.Background(), issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestWrongAudienceRejected(t *testing.T) {
	other := testJWTConfig()
	other.Audience = "someone-else"
	foreign, err := NewTokenManager(other)
	require.NoError(t, err)

	issued, err := foreign.CreateRefreshToken("u-1")
	require.NoError(t, err)

	_, err = newTestTokens(t).VerifyRefreshToken(issued.Token)
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestGarbageToken(t *testing.T) {
	_, err := newTestTokens(t).VerifyAccessToken(context.Background(), "not.a.jwt")
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestFormatLifetime(t *testing.T) {
	assert.Equal(t, "15m", FormatLifetime(15*time.Minute))
	assert.Equal(t, "1h", FormatLifetime(time.Hour))
	assert.Equal(t, "7d", FormatLifetime(7*24*time.Hour))
	assert.Equal(t, "90s", FormatLifetime(90*time.Second))
	assert.Equal(t, "0s", FormatLifetime(0))
}
