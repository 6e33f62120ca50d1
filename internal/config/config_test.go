// AngelaMos | 2026
// config_test.go

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "15m", want: 15 * time.Minute},
		{in: "7d", want: 7 * 24 * time.Hour},
		{in: " 1d ", want: 24 * time.Hour},
		{in: "168h", want: 168 * time.Hour},
		{in: "xd", wantErr: true},
		{in: "-2d", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/core")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", strings.Repeat("a", 32))
	t.Setenv("JWT_REFRESH_SECRET", strings.Repeat("b", 32))
	t.Setenv("API_KEY_HASH_SECRET", "pepper")
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("JWT_REFRESH_EXPIRES_IN", "14d")
	t.Setenv("DISABLE_AUTH", "true")
	t.Setenv("DISABLE_AUTH_COMPANY_SLUG", "acme")

	c, err := load("")
	require.NoError(t, err)

	assert.Equal(t, 15*time.Minute, c.JWT.AccessTokenExpire)
	assert.Equal(t, 14*24*time.Hour, c.JWT.RefreshTokenExpire)
	assert.Equal(t, "core-service", c.JWT.Issuer)
	assert.Equal(t, "terminar-apps", c.JWT.Audience)
	assert.True(t, c.Auth.DisableAuth)
	assert.Equal(t, "acme", c.Auth.Bypass.CompanySlug)
	assert.Equal(t, "dev@bypass.local", c.Auth.Bypass.UserEmail)
	assert.Equal(t, "system_admin", c.Auth.Bypass.Role)
	assert.Equal(t, time.Hour, c.Auth.ResetTokenTTL)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			App:      AppConfig{Environment: "development"},
			Server:   ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second},
			Database: DatabaseConfig{URL: "postgres://x"},
			Redis:    RedisConfig{URL: "redis://x"},
			JWT: JWTConfig{
				AccessSecret:       strings.Repeat("a", 32),
				RefreshSecret:      strings.Repeat("b", 32),
				AccessTokenExpire:  time.Minute,
				RefreshTokenExpire: time.Hour,
			},
			Auth:   AuthConfig{LoginMaxAttempts: 5},
			APIKey: APIKeyConfig{HashSecret: "pepper"},
		}
	}

	require.NoError(t, validate(base()))

	t.Run("shared secrets rejected", func(t *testing.T) {
		c := base()
		c.JWT.RefreshSecret = c.JWT.AccessSecret
		assert.ErrorContains(t, validate(c), "must differ")
	})

	t.Run("short secret rejected", func(t *testing.T) {
		c := base()
		c.JWT.AccessSecret = "short"
		assert.ErrorContains(t, validate(c), "JWT_SECRET")
	})

	t.Run("bypass refused in production", func(t *testing.T) {
		c := base()
		c.App.Environment = "production"
		c.Auth.DisableAuth = true
		assert.ErrorContains(t, validate(c), "DISABLE_AUTH")
	})

	t.Run("bypass allowed in development", func(t *testing.T) {
		c := base()
		c.Auth.DisableAuth = true
		assert.NoError(t, validate(c))
	})

	t.Run("cors wildcard with credentials", func(t *testing.T) {
		c := base()
		c.CORS = CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true}
		assert.Error(t, validate(c))
	})
}
