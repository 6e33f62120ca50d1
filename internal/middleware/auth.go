// AngelaMos | 2026
// auth.go

package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/terminar/core-service/internal/config"
	"github.com/terminar/core-service/internal/core"
)

var (
	ErrMissingToken = errors.New("access token is required")
	ErrUserInactive = errors.New("user not found or inactive")
)

type TokenVerifier interface {
	VerifyAccessToken(
		ctx context.Context,
		token string,
	) (*AccessTokenClaims, error)
}

// UserLoader returns core.ErrNotFound when the user is missing or inactive.
type UserLoader interface {
	LoadActiveUser(ctx context.Context, userID string) (*UserRecord, error)
}

// CompanyLoader returns core.ErrNotFound when the company is missing or
// not active.
type CompanyLoader interface {
	LoadActiveCompany(
		ctx context.Context,
		companyID string,
	) (*CompanyRecord, error)
}

// KeyAuthenticator returns core.ErrNotFound for unknown, inactive or
// expired keys.
type KeyAuthenticator interface {
	AuthenticateKey(ctx context.Context, rawKey string) (*APIKeyPrincipal, error)
}

// Authenticator resolves the human identity of a request. The strategy is
// chosen once at startup.
type Authenticator interface {
	Authenticate(r *http.Request) (*Identity, error)
}

type TokenAuthenticator struct {
	verifier TokenVerifier
	users    UserLoader
}

func NewTokenAuthenticator(
	verifier TokenVerifier,
	users UserLoader,
) *TokenAuthenticator {
	return &TokenAuthenticator{verifier: verifier, users: users}
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (*Identity, error) {
	token := ExtractToken(r)
	if token == "" {
		return nil, ErrMissingToken
	}

	ctx, span := core.StartSpan(r.Context(), "auth.bearer",
		core.AttrAuthKind.String(string(KindUser)),
	)
	defer span.End()

	claims, err := a.verifier.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	row, err := a.users.LoadActiveUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserInactive
		}
		core.SetSpanError(ctx, err)
		return nil, fmt.Errorf("load user: %w", err)
	}

	core.AddSpanEvent(ctx, "identity.resolved",
		core.AttrUserID.String(row.ID),
		core.AttrCompanyID.String(row.CompanyID),
		attribute.String("user.role", row.Role),
	)

	return MergeIdentity(claims, row), nil
}

// BypassAuthenticator resolves every request to one fixed identity. It is
// only constructed when auth.disable_auth is set. Human permission checks
// are exact, so the identity carries "*" plus every tag listed in
// auth.bypass.permissions.
type BypassAuthenticator struct {
	identity Identity
	logger   *slog.Logger
	warnOnce sync.Once
}

func NewBypassAuthenticator(
	cfg config.BypassConfig,
	logger *slog.Logger,
) *BypassAuthenticator {
	if logger == nil {
		logger = slog.Default()
	}

	return &BypassAuthenticator{
		identity: Identity{
			Kind:        KindUser,
			UserID:      cfg.UserID,
			Email:       cfg.UserEmail,
			Role:        cfg.Role,
			Permissions: bypassPermissions(cfg.Permissions),
			CompanyID:   cfg.CompanyID,
			CompanySlug: cfg.CompanySlug,
			CompanyName: cfg.CompanyName,
			Active:      true,
			Synthetic:   true,
		},
		logger: logger,
	}
}

func bypassPermissions(extra []string) []string {
	perms := []string{PermissionWildcard}
	for _, p := range extra {
		if p != "" && !slices.Contains(perms, p) {
			perms = append(perms, p)
		}
	}
	return perms
}

func (a *BypassAuthenticator) Authenticate(r *http.Request) (*Identity, error) {
	a.warnOnce.Do(func() {
		a.logger.Warn("DISABLE_AUTH is set: authentication is bypassed",
			"email", a.identity.Email,
			"role", a.identity.Role,
			"company_slug", a.identity.CompanySlug,
		)
	})

	id := a.identity
	id.Permissions = slices.Clone(a.identity.Permissions)
	return &id, nil
}

type GateConfig struct {
	Authenticator Authenticator
	Companies     CompanyLoader
	Keys          KeyAuthenticator
	KeyHeader     string
}

// Gate is the authentication entry point for every protected route.
type Gate struct {
	authenticator Authenticator
	companies     CompanyLoader
	keys          KeyAuthenticator
	keyHeader     string
}

func NewGate(cfg GateConfig) *Gate {
	if cfg.KeyHeader == "" {
		cfg.KeyHeader = "X-API-Key"
	}

	return &Gate{
		authenticator: cfg.Authenticator,
		companies:     cfg.Companies,
		keys:          cfg.Keys,
		keyHeader:     cfg.KeyHeader,
	}
}

// RequireAuth rejects requests without a usable human identity.
func (g *Gate) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.authenticator.Authenticate(r)
		if err != nil {
			core.RecordAuthAttempt("bearer", core.AuthRejected)
			handleAuthError(w, err)
			return
		}

		core.RecordAuthAttempt("bearer", core.AuthSuccess)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

// OptionalAuth attaches an identity when one resolves and otherwise lets
// the request through anonymously.
func (g *Gate) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := g.authenticator.Authenticate(r)
		if err == nil {
			r = r.WithContext(WithIdentity(r.Context(), identity))
		}

		next.ServeHTTP(w, r)
	})
}

// CheckAPIKey resolves a machine caller from the key header.
func (g *Gate) CheckAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rawKey := strings.TrimSpace(r.Header.Get(g.keyHeader))
		if rawKey == "" {
			core.JSONError(w, core.UnauthorizedError("API key is required"))
			return
		}

		g.serveWithKey(w, r, rawKey, next)
	})
}

// Flexible prefers an API key when the header is present, falls back to
// the bearer token, and rejects requests carrying neither.
func (g *Gate) Flexible(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rawKey := strings.TrimSpace(r.Header.Get(g.keyHeader)); rawKey != "" {
			g.serveWithKey(w, r, rawKey, next)
			return
		}

		identity, err := g.authenticator.Authenticate(r)
		if err != nil {
			if errors.Is(err, ErrMissingToken) {
				core.JSONError(w, core.UnauthorizedError(
					"authentication required (token or API key)",
				))
				return
			}
			core.RecordAuthAttempt("bearer", core.AuthRejected)
			handleAuthError(w, err)
			return
		}

		core.RecordAuthAttempt("bearer", core.AuthSuccess)
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func (g *Gate) serveWithKey(
	w http.ResponseWriter,
	r *http.Request,
	rawKey string,
	next http.Handler,
) {
	ctx, span := core.StartSpan(r.Context(), "auth.api_key",
		core.AttrAuthKind.String(string(KindService)),
	)
	principal, err := g.keys.AuthenticateKey(ctx, rawKey)
	if err == nil {
		span.SetAttributes(
			core.AttrKeyID.String(principal.KeyID),
			core.AttrCompanyID.String(principal.CompanyID),
		)
	}
	span.End()

	if err != nil {
		if errors.Is(err, core.ErrNotFound) ||
			errors.Is(err, core.ErrUnauthorized) {
			core.RecordAuthAttempt("api_key", core.AuthRejected)
			core.JSONError(w, core.UnauthorizedError("invalid or expired API key"))
			return
		}
		core.HandleError(w, err)
		return
	}

	core.RecordAuthAttempt("api_key", core.AuthSuccess)

	reqCtx := WithAPIKey(r.Context(), principal)
	reqCtx = WithIdentity(reqCtx, ServiceIdentity(principal))
	reqCtx = WithCompany(reqCtx, &CompanyRecord{
		ID:               principal.CompanyID,
		Name:             principal.CompanyName,
		Slug:             principal.CompanySlug,
		Status:           CompanyStatusActive,
		SubscriptionPlan: principal.CompanyPlan,
	})

	next.ServeHTTP(w, r.WithContext(reqCtx))
}

// RequireCompany is the tenant gate: the identity must belong to a company
// that still exists and is active. The company row is attached to the
// request context.
func (g *Gate) RequireCompany(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r.Context())
		if identity == nil {
			core.JSONError(w, core.UnauthorizedError("authentication required"))
			return
		}

		if identity.CompanyID == "" {
			core.JSONError(w, core.ForbiddenError("company association required"))
			return
		}

		if identity.Synthetic {
			company := &CompanyRecord{
				ID:     identity.CompanyID,
				Name:   identity.CompanyName,
				Slug:   identity.CompanySlug,
				Status: CompanyStatusActive,
			}
			next.ServeHTTP(w, r.WithContext(WithCompany(r.Context(), company)))
			return
		}

		company, err := g.companies.LoadActiveCompany(r.Context(), identity.CompanyID)
		if err != nil {
			if errors.Is(err, core.ErrNotFound) {
				core.JSONError(w, core.ForbiddenError("company not found or inactive"))
				return
			}
			core.HandleError(w, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithCompany(r.Context(), company)))
	})
}

// ExtractToken returns the raw token of an "Authorization: Bearer <t>"
// header, or "" when the header is absent or malformed.
func ExtractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}

	token := strings.TrimSpace(parts[1])
	if token == "" || strings.Contains(token, " ") {
		return ""
	}

	return token
}

func handleAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrMissingToken):
		core.JSONError(w, core.UnauthorizedError(ErrMissingToken.Error()))
	case errors.Is(err, ErrUserInactive):
		core.JSONError(w, core.UnauthorizedError(ErrUserInactive.Error()))
	case errors.Is(err, core.ErrTokenExpired):
		core.JSONError(w, core.TokenExpiredError())
	case errors.Is(err, core.ErrTokenRevoked):
		core.JSONError(w, core.TokenRevokedError())
	case errors.Is(err, core.ErrTokenInvalid):
		core.JSONError(w, core.TokenInvalidError())
	default:
		core.HandleError(w, err)
	}
}
