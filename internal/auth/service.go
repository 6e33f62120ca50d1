// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid email, password or company identifier")
	ErrEmailTaken         = errors.New("user with this email already exists")
	ErrSlugTaken          = errors.New("company slug is already taken")
	ErrAccountDisabled    = errors.New("account is deactivated")
	ErrCompanyInactive    = errors.New("company account is not active")
	ErrLoginLocked        = errors.New("too many failed login attempts")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidResetToken  = errors.New("invalid or expired reset token")
)

// LockoutError carries how long a locked login stays locked.
type LockoutError struct {
	RetryAfter time.Duration
}

func (e *LockoutError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrLoginLocked, e.RetryAfter.Round(time.Second))
}

func (e *LockoutError) Unwrap() error {
	return ErrLoginLocked
}

// UserInfo is the user row joined with its company, as the session
// lifecycle sees it. Company fields are empty for unaffiliated users.
type UserInfo struct {
	ID            string
	Email         string
	PasswordHash  string
	FirstName     string
	LastName      string
	Phone         string
	Role          string
	Permissions   []string
	CompanyID     string
	CompanySlug   string
	CompanyName   string
	CompanyStatus string
	CompanyPlan   string
	IsActive      bool
	IsVerified    bool
	LastLogin     *time.Time
	CreatedAt     time.Time
	Profile       *ProfileInfo
}

type ProfileInfo struct {
	Bio                   string
	Position              string
	Department            string
	Preferences           map[string]any
	NotificationsSettings map[string]any
}

type CompanyInfo struct {
	ID               string
	Name             string
	Slug             string
	Email            string
	Status           string
	SubscriptionPlan string
	CreatedAt        time.Time
}

// NewAccount is a self-service registration. When CompanyName and
// CompanySlug are both set a company is created and the user becomes its
// admin.
type NewAccount struct {
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Phone        string
	CompanyName  string
	CompanySlug  string
}

func (a NewAccount) CreatesCompany() bool {
	return a.CompanyName != "" && a.CompanySlug != ""
}

type ProfileUpdate struct {
	FirstName             *string
	LastName              *string
	Phone                 *string
	Bio                   *string
	Position              *string
	Department            *string
	Preferences           map[string]any
	NotificationsSettings map[string]any
}

// UserProvider is the user side of the credential store. Lookups return
// core.ErrNotFound for missing rows.
type UserProvider interface {
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByEmailInCompany(
		ctx context.Context,
		email, companySlug string,
	) (*UserInfo, error)
	CreateAccount(
		ctx context.Context,
		account NewAccount,
	) (*UserInfo, *CompanyInfo, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID string) error
	UpdateProfile(
		ctx context.Context,
		userID string,
		update ProfileUpdate,
	) (*UserInfo, error)
	SetResetToken(
		ctx context.Context,
		userID, tokenHash string,
		expiresAt time.Time,
	) error
	ResetPasswordWithToken(
		ctx context.Context,
		tokenHash, passwordHash string,
	) (string, error)
}

type CompanyProvider interface {
	GetCompanyInfo(ctx context.Context, companyID string) (*CompanyInfo, error)
}

type ServiceConfig struct {
	Repo             Repository
	Tokens           *TokenManager
	Users            UserProvider
	Companies        CompanyProvider
	Throttle         *LoginThrottle
	ResetTokenTTL    time.Duration
	ExposeResetToken bool
	Logger           *slog.Logger
}

type Service struct {
	repo             Repository
	tokens           *TokenManager
	users            UserProvider
	companies        CompanyProvider
	throttle         *LoginThrottle
	resetTTL         time.Duration
	exposeResetToken bool
	logger           *slog.Logger
	now              func() time.Time
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.ResetTokenTTL <= 0 {
		cfg.ResetTokenTTL = time.Hour
	}

	return &Service{
		repo:             cfg.Repo,
		tokens:           cfg.Tokens,
		users:            cfg.Users,
		companies:        cfg.Companies,
		throttle:         cfg.Throttle,
		resetTTL:         cfg.ResetTokenTTL,
		exposeResetToken: cfg.ExposeResetToken,
		logger:           cfg.Logger,
		now:              time.Now,
	}
}

// ClientInfo describes the device a session was opened from.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	client ClientInfo,
) (*AuthResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.register")
	defer span.End()

	email := strings.TrimSpace(req.Email)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, company, err := s.users.CreateAccount(ctx, NewAccount{
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Phone:        req.Phone,
		CompanyName:  req.CompanyName,
		CompanySlug:  req.CompanySlug,
	})
	if err != nil {
		return nil, err
	}

	tokens, err := s.issueTokens(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.touchLastLogin(ctx, user.ID)

	return &AuthResponse{
		User:    ToUserResponse(user),
		Company: toCompanyResponse(company),
		Tokens:  *tokens,
	}, nil
}

// Login is tenant scoped: the user is resolved through its company slug,
// so a user without a company cannot log in here.
func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	client ClientInfo,
) (*AuthResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.login")
	defer span.End()

	email := strings.TrimSpace(req.Email)
	slug := strings.ToLower(strings.TrimSpace(req.CompanySlug))

	if locked, retryAfter := s.throttle.Locked(ctx, email, slug); locked {
		core.RecordAuthAttempt("login", core.AuthLocked)
		return nil, &LockoutError{RetryAfter: retryAfter}
	}

	user, err := s.users.GetByEmailInCompany(ctx, email, slug)
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("find user: %w", err)
		}
		//nolint:errcheck // equalizes timing with the wrong-password path
		_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
		return nil, s.loginFailed(ctx, email, slug)
	}

	valid, newHash, err := core.VerifyPasswordTimingSafe(
		req.Password,
		&user.PasswordHash,
	)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, s.loginFailed(ctx, email, slug)
	}

	if !user.IsActive {
		core.RecordAuthAttempt("login", core.AuthRejected)
		return nil, ErrAccountDisabled
	}
	if user.CompanyStatus != middleware.CompanyStatusActive {
		core.RecordAuthAttempt("login", core.AuthRejected)
		return nil, ErrCompanyInactive
	}

	s.throttle.Reset(ctx, email, slug)

	if newHash != "" {
		if err := s.users.UpdatePassword(ctx, user.ID, newHash); err != nil {
			s.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		}
	}

	if n, err := s.repo.DeleteExpiredForUser(ctx, user.ID); err != nil {
		s.logger.Warn("expired session cleanup failed", "user_id", user.ID, "error", err)
	} else if n > 0 {
		s.logger.Debug("expired sessions removed", "user_id", user.ID, "count", n)
	}

	tokens, err := s.issueTokens(ctx, user, client)
	if err != nil {
		return nil, err
	}

	s.touchLastLogin(ctx, user.ID)
	core.RecordAuthAttempt("login", core.AuthSuccess)

	var company *CompanyInfo
	if user.CompanyID != "" {
		company, err = s.companies.GetCompanyInfo(ctx, user.CompanyID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("load company: %w", err)
		}
	}

	return &AuthResponse{
		User:    ToUserResponse(user),
		Company: toCompanyResponse(company),
		Tokens:  *tokens,
	}, nil
}

func (s *Service) loginFailed(ctx context.Context, email, slug string) error {
	core.RecordAuthAttempt("login", core.AuthFailure)
	s.throttle.RecordFailure(ctx, email, slug)
	return ErrInvalidCredentials
}

// Refresh mints a new access token. The refresh token itself is not
// rotated and stays valid until it expires or is revoked.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
) (*RefreshResponse, error) {
	ctx, span := core.StartSpan(ctx, "auth.refresh")
	defer span.End()

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		core.RecordAuthAttempt("refresh", core.AuthRejected)
		return nil, err
	}

	stored, err := s.repo.FindByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.RecordAuthAttempt("refresh", core.AuthRejected)
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	if stored.UserID != claims.UserID {
		core.RecordAuthAttempt("refresh", core.AuthRejected)
		return nil, fmt.Errorf("refresh: owner mismatch: %w", core.ErrTokenInvalid)
	}
	if stored.IsRevoked() {
		core.RecordAuthAttempt("refresh", core.AuthRejected)
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	}
	if stored.IsExpired(s.now()) {
		core.RecordAuthAttempt("refresh", core.AuthRejected)
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.RecordAuthAttempt("refresh", core.AuthRejected)
			return nil, middleware.ErrUserInactive
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	if !user.IsActive {
		core.RecordAuthAttempt("refresh", core.AuthRejected)
		return nil, middleware.ErrUserInactive
	}

	access, err := s.tokens.CreateAccessToken(claimsFor(user))
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	core.RecordAuthAttempt("refresh", core.AuthSuccess)

	return &RefreshResponse{
		AccessToken: access.Token,
		ExpiresIn:   s.tokens.AccessExpiresIn(),
	}, nil
}

// Logout revokes one refresh token. Unknown, already revoked or empty
// tokens are a no-op.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	if err := s.repo.RevokeByHash(ctx, core.HashToken(refreshToken)); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.repo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	s.logger.Info("all sessions revoked", "user_id", userID, "count", n)
	return nil
}

func (s *Service) GetProfile(
	ctx context.Context,
	userID string,
) (*ProfileResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var company *CompanyInfo
	if user.CompanyID != "" {
		company, err = s.companies.GetCompanyInfo(ctx, user.CompanyID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("load company: %w", err)
		}
	}

	return &ProfileResponse{
		User:    ToUserResponse(user),
		Company: toCompanyResponse(company),
	}, nil
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	req UpdateProfileRequest,
) (*UserResponse, error) {
	user, err := s.users.UpdateProfile(ctx, userID, ProfileUpdate{
		FirstName:             req.FirstName,
		LastName:              req.LastName,
		Phone:                 req.Phone,
		Bio:                   req.Bio,
		Position:              req.Position,
		Department:            req.Department,
		Preferences:           req.Preferences,
		NotificationsSettings: req.NotificationsSettings,
	})
	if err != nil {
		return nil, err
	}

	resp := ToUserResponse(user)
	return &resp, nil
}

// ChangePassword revokes every refresh token of the user on success.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID string,
	req ChangePasswordRequest,
) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	valid, err := core.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrWrongPassword
	}

	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

// ForgotPassword never reveals whether the email exists. The raw token is
// returned only when the service is configured to expose it.
func (s *Service) ForgotPassword(ctx context.Context, email string) string {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if !errors.Is(err, core.ErrNotFound) {
			s.logger.Warn("forgot password lookup failed", "error", err)
		}
		return ""
	}

	token, err := core.GenerateResetToken()
	if err != nil {
		s.logger.Error("generate reset token", "error", err)
		return ""
	}

	expiresAt := s.now().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, user.ID, core.HashToken(token), expiresAt); err != nil {
		s.logger.Error("store reset token", "user_id", user.ID, "error", err)
		return ""
	}

	s.logger.Info("password reset requested", "user_id", user.ID)

	if !s.exposeResetToken {
		return ""
	}
	return token
}

// ResetPassword consumes the reset token and revokes every session.
func (s *Service) ResetPassword(
	ctx context.Context,
	req ResetPasswordRequest,
) error {
	newHash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	userID, err := s.users.ResetPasswordWithToken(
		ctx,
		core.HashToken(req.Token),
		newHash,
	)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("reset password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

func (s *Service) ListSessions(
	ctx context.Context,
	userID string,
) ([]SessionInfo, error) {
	tokens, err := s.repo.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	sessions := make([]SessionInfo, 0, len(tokens))
	for _, t := range tokens {
		sessions = append(sessions, SessionInfo{
			ID:        t.ID,
			UserAgent: t.UserAgent,
			IPAddress: t.IPAddress,
			CreatedAt: t.CreatedAt,
			ExpiresAt: t.ExpiresAt,
		})
	}

	return sessions, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	token, err := s.repo.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if token.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if err := s.repo.RevokeByID(ctx, sessionID); err != nil &&
		!errors.Is(err, core.ErrNotFound) {
		return err
	}

	return nil
}

// PurgeExpired deletes dead ledger rows for every user.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}

	s.logger.Info("expired sessions purged", "count", n)
	return n, nil
}

func (s *Service) issueTokens(
	ctx context.Context,
	user *UserInfo,
	client ClientInfo,
) (*TokenResponse, error) {
	access, err := s.tokens.CreateAccessToken(claimsFor(user))
	if err != nil {
		return nil, fmt.Errorf("create access token: %w", err)
	}

	refresh, err := s.tokens.CreateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("create refresh token: %w", err)
	}

	if err := s.repo.Create(ctx, &RefreshToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: core.HashToken(refresh.Token),
		ExpiresAt: refresh.ExpiresAt,
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &TokenResponse{
		AccessToken:  access.Token,
		RefreshToken: refresh.Token,
		ExpiresIn:    s.tokens.AccessExpiresIn(),
	}, nil
}

func (s *Service) touchLastLogin(ctx context.Context, userID string) {
	if err := s.users.UpdateLastLogin(ctx, userID); err != nil {
		s.logger.Warn("update last login failed", "user_id", userID, "error", err)
	}
}

func claimsFor(user *UserInfo) middleware.AccessTokenClaims {
	return middleware.AccessTokenClaims{
		UserID:      user.ID,
		CompanyID:   user.CompanyID,
		Email:       user.Email,
		Role:        user.Role,
		Permissions: user.Permissions,
		CompanySlug: user.CompanySlug,
	}
}
