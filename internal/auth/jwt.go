// AngelaMos | 2026
// jwt.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/terminar/core-service/internal/config"
	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	claimType        = "type"
	claimEmail       = "email"
	claimRole        = "role"
	claimPermissions = "permissions"
	claimCompanyID   = "companyId"
	claimCompanySlug = "companySlug"
)

// TokenManager mints and verifies HS256 tokens. Access and refresh tokens
// are signed with separate secrets and carry a type claim, so neither
// verifies on the other's path.
type TokenManager struct {
	accessKey  jwk.Key
	refreshKey jwk.Key
	config     config.JWTConfig
	now        func() time.Time
}

func NewTokenManager(cfg config.JWTConfig) (*TokenManager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, fmt.Errorf("token manager: secrets are required")
	}

	accessKey, err := jwk.Import([]byte(cfg.AccessSecret))
	if err != nil {
		return nil, fmt.Errorf("import access secret: %w", err)
	}

	refreshKey, err := jwk.Import([]byte(cfg.RefreshSecret))
	if err != nil {
		return nil, fmt.Errorf("import refresh secret: %w", err)
	}

	return &TokenManager{
		accessKey:  accessKey,
		refreshKey: refreshKey,
		config:     cfg,
		now:        time.Now,
	}, nil
}

// IssuedToken is a freshly signed token and its registered claims.
type IssuedToken struct {
	Token     string
	TokenID   string
	ExpiresAt time.Time
}

type RefreshClaims struct {
	UserID    string
	TokenID   string
	ExpiresAt time.Time
}

func (m *TokenManager) CreateAccessToken(
	claims middleware.AccessTokenClaims,
) (*IssuedToken, error) {
	now := m.now()
	jti := uuid.NewString()
	expiresAt := now.Add(m.config.AccessTokenExpire)

	permissions := claims.Permissions
	if permissions == nil {
		permissions = []string{}
	}

	token, err := jwt.NewBuilder().
		JwtID(jti).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(claims.UserID).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim(claimType, tokenTypeAccess).
		Claim(claimEmail, claims.Email).
		Claim(claimRole, claims.Role).
		Claim(claimPermissions, permissions).
		Claim(claimCompanyID, claims.CompanyID).
		Claim(claimCompanySlug, claims.CompanySlug).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build access token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.accessKey))
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	return &IssuedToken{
		Token:     string(signed),
		TokenID:   jti,
		ExpiresAt: expiresAt,
	}, nil
}

// CreateRefreshToken carries only the user id. The random jti makes two
// tokens minted in the same second distinct, which the ledger relies on.
func (m *TokenManager) CreateRefreshToken(userID string) (*IssuedToken, error) {
	now := m.now()
	jti := uuid.NewString()
	expiresAt := now.Add(m.RefreshLifetime())

	token, err := jwt.NewBuilder().
		JwtID(jti).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(userID).
		IssuedAt(now).
		Expiration(expiresAt).
		NotBefore(now).
		Claim(claimType, tokenTypeRefresh).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build refresh token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256(), m.refreshKey))
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &IssuedToken{
		Token:     string(signed),
		TokenID:   jti,
		ExpiresAt: expiresAt,
	}, nil
}

func (m *TokenManager) VerifyAccessToken(
	_ context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	token, err := m.parse(tokenString, m.accessKey, tokenTypeAccess)
	if err != nil {
		return nil, err
	}

	subject, _ := token.Subject()
	jti, _ := token.JwtID()
	exp, _ := token.Expiration()

	claims := &middleware.AccessTokenClaims{
		UserID:      subject,
		TokenID:     jti,
		ExpiresAt:   exp,
		Email:       stringClaim(token, claimEmail),
		Role:        stringClaim(token, claimRole),
		CompanyID:   stringClaim(token, claimCompanyID),
		CompanySlug: stringClaim(token, claimCompanySlug),
		Permissions: stringListClaim(token, claimPermissions),
	}

	if claims.Role == "" {
		return nil, fmt.Errorf(
			"verify token: missing role claim: %w",
			core.ErrTokenInvalid,
		)
	}

	return claims, nil
}

func (m *TokenManager) VerifyRefreshToken(
	tokenString string,
) (*RefreshClaims, error) {
	token, err := m.parse(tokenString, m.refreshKey, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	subject, _ := token.Subject()
	jti, _ := token.JwtID()
	exp, _ := token.Expiration()

	return &RefreshClaims{
		UserID:    subject,
		TokenID:   jti,
		ExpiresAt: exp,
	}, nil
}

func (m *TokenManager) parse(
	tokenString string,
	key jwk.Key,
	wantType string,
) (jwt.Token, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.HS256(), key),
		jwt.WithValidate(true),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithAcceptableSkew(m.config.ClockSkew),
	)
	if err != nil {
		if errors.Is(err, jwt.TokenExpiredError()) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var tokenType string
	if err := token.Get(claimType, &tokenType); err != nil ||
		tokenType != wantType {
		return nil, fmt.Errorf(
			"verify token: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	return token, nil
}

// AccessExpiresIn is the access lifetime in the operator-facing form, e.g.
// "15m".
func (m *TokenManager) AccessExpiresIn() string {
	return FormatLifetime(m.config.AccessTokenExpire)
}

// RefreshLifetime is how long a refresh token and its ledger row live.
func (m *TokenManager) RefreshLifetime() time.Duration {
	return m.config.RefreshTokenExpire
}

// FormatLifetime renders a duration in its largest whole unit: "7d", "1h",
// "15m", "30s".
func FormatLifetime(d time.Duration) string {
	const day = 24 * time.Hour

	switch {
	case d <= 0:
		return "0s"
	case d%day == 0:
		return fmt.Sprintf("%dd", d/day)
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return fmt.Sprintf("%ds", d/time.Second)
	}
}

func stringClaim(token jwt.Token, name string) string {
	var v string
	if err := token.Get(name, &v); err != nil {
		return ""
	}
	return v
}

func stringListClaim(token jwt.Token, name string) []string {
	var raw any
	if err := token.Get(name, &raw); err != nil {
		return []string{}
	}

	switch v := raw.(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
