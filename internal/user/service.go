// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/terminar/core-service/internal/auth"
	"github.com/terminar/core-service/internal/company"
	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

var (
	ErrAccessDenied        = errors.New("access denied")
	ErrOwnRole             = errors.New("cannot modify your own role")
	ErrOwnDeactivation     = errors.New("cannot deactivate your own account")
	ErrOwnDeletion         = errors.New("cannot delete your own account")
	ErrLastAdminDemote     = errors.New("cannot demote the last admin user")
	ErrLastAdminDeactivate = errors.New("cannot deactivate the last admin user")
	ErrLastAdminDelete     = errors.New("cannot delete the last admin user")
	ErrVerifyAdminOnly     = errors.New("only admins can change verification status")
)

var (
	_ auth.UserProvider     = (*Service)(nil)
	_ middleware.UserLoader = (*Service)(nil)
)

// SessionRevoker drops every refresh grant of a user. auth.Repository
// satisfies it.
type SessionRevoker interface {
	RevokeAllForUser(ctx context.Context, userID string) (int64, error)
}

type txFunc func(
	ctx context.Context,
	fn func(users Repository, companies company.Repository) error,
) error

type ServiceConfig struct {
	DB       *sqlx.DB
	Repo     Repository
	Sessions SessionRevoker
	Logger   *slog.Logger
}

type Service struct {
	repo     Repository
	sessions SessionRevoker
	withTx   txFunc
	logger   *slog.Logger
}

func NewService(cfg ServiceConfig) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	db := cfg.DB
	return &Service{
		repo:     cfg.Repo,
		sessions: cfg.Sessions,
		logger:   cfg.Logger,
		withTx: func(
			ctx context.Context,
			fn func(users Repository, companies company.Repository) error,
		) error {
			return core.InTx(ctx, db, func(tx core.DBTX) error {
				return fn(NewRepository(tx), company.NewRepository(tx))
			})
		},
	}
}

func (s *Service) LoadActiveUser(
	ctx context.Context,
	userID string,
) (*middleware.UserRecord, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("load user %s: %w", userID, core.ErrNotFound)
	}

	return &middleware.UserRecord{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		Permissions: []string(u.Permissions),
		CompanyID:   deref(u.CompanyID),
		CompanySlug: deref(u.CompanySlug),
		CompanyName: deref(u.CompanyName),
		CompanyPlan: deref(u.CompanyPlan),
		IsActive:    u.IsActive,
	}, nil
}

// GetByID includes the profile row when there is one.
func (s *Service) GetByID(ctx context.Context, id string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	profile, err := s.repo.GetProfile(ctx, id)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	return toUserInfo(u, profile), nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return toUserInfo(u, nil), nil
}

func (s *Service) GetByEmailInCompany(
	ctx context.Context,
	email, companySlug string,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByEmailInCompany(ctx, email, companySlug)
	if err != nil {
		return nil, err
	}

	return toUserInfo(u, nil), nil
}

// CreateAccount registers a user. When the account names a company, the
// company and its first admin are created in one transaction.
func (s *Service) CreateAccount(
	ctx context.Context,
	account auth.NewAccount,
) (*auth.UserInfo, *auth.CompanyInfo, error) {
	u := &User{
		ID:           uuid.New().String(),
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		FirstName:    strings.TrimSpace(account.FirstName),
		LastName:     strings.TrimSpace(account.LastName),
		Phone:        optional(strings.TrimSpace(account.Phone)),
		Role:         RoleUser,
		Permissions:  core.StringList{},
		IsActive:     true,
	}

	if !account.CreatesCompany() {
		if err := s.repo.Create(ctx, u); err != nil {
			return nil, nil, translateCreateError(err)
		}
		if err := s.repo.UpsertProfile(ctx, defaultProfile(u.ID)); err != nil {
			s.logger.Warn("default profile not created", "user_id", u.ID, "error", err)
		}
		return toUserInfo(u, nil), nil, nil
	}

	var c *company.Company
	err := s.withTx(ctx, func(users Repository, companies company.Repository) error {
		c = company.New(account.CompanyName, account.CompanySlug, account.Email)

		taken, err := companies.SlugTaken(ctx, c.Slug, "")
		if err != nil {
			return err
		}
		if taken {
			return auth.ErrSlugTaken
		}

		if err := companies.Create(ctx, c); err != nil {
			if errors.Is(err, core.ErrDuplicateKey) {
				return auth.ErrSlugTaken
			}
			return err
		}

		u.CompanyID = &c.ID
		u.Role = RoleAdmin
		u.Permissions = core.StringList{middleware.PermissionWildcard}

		if err := users.Create(ctx, u); err != nil {
			return translateCreateError(err)
		}

		return users.UpsertProfile(ctx, defaultProfile(u.ID))
	})
	if err != nil {
		return nil, nil, err
	}

	u.CompanySlug = &c.Slug
	u.CompanyName = &c.Name
	u.CompanyStatus = &c.Status
	u.CompanyPlan = &c.SubscriptionPlan

	s.logger.Info("company registered",
		"company_id", c.ID,
		"slug", c.Slug,
		"admin_id", u.ID,
	)

	return toUserInfo(u, nil), &auth.CompanyInfo{
		ID:               c.ID,
		Name:             c.Name,
		Slug:             c.Slug,
		Email:            deref(c.Email),
		Status:           c.Status,
		SubscriptionPlan: c.SubscriptionPlan,
		CreatedAt:        c.CreatedAt,
	}, nil
}

func (s *Service) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) UpdateLastLogin(ctx context.Context, userID string) error {
	return s.repo.UpdateLastLogin(ctx, userID)
}

func (s *Service) SetResetToken(
	ctx context.Context,
	userID, tokenHash string,
	expiresAt time.Time,
) error {
	return s.repo.SetResetToken(ctx, userID, tokenHash, expiresAt)
}

func (s *Service) ResetPasswordWithToken(
	ctx context.Context,
	tokenHash, passwordHash string,
) (string, error) {
	return s.repo.ConsumeResetToken(ctx, tokenHash, passwordHash)
}

// UpdateProfile edits the caller's own name, phone and profile row.
// Preference maps replace the stored documents wholesale.
func (s *Service) UpdateProfile(
	ctx context.Context,
	userID string,
	update auth.ProfileUpdate,
) (*auth.UserInfo, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if update.FirstName != nil || update.LastName != nil || update.Phone != nil {
		if update.FirstName != nil {
			u.FirstName = strings.TrimSpace(*update.FirstName)
		}
		if update.LastName != nil {
			u.LastName = strings.TrimSpace(*update.LastName)
		}
		if update.Phone != nil {
			u.Phone = optional(strings.TrimSpace(*update.Phone))
		}
		if err := s.repo.Update(ctx, u); err != nil {
			return nil, err
		}
	}

	profile, err := s.repo.GetProfile(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		profile = defaultProfile(userID)
	} else if err != nil {
		return nil, err
	}

	touched := false
	if update.Bio != nil {
		profile.Bio = optional(*update.Bio)
		touched = true
	}
	if update.Position != nil {
		profile.Position = optional(*update.Position)
		touched = true
	}
	if update.Department != nil {
		profile.Department = optional(*update.Department)
		touched = true
	}
	if update.Preferences != nil {
		profile.Preferences = core.JSONMap(update.Preferences)
		touched = true
	}
	if update.NotificationsSettings != nil {
		profile.NotificationsSettings = core.JSONMap(update.NotificationsSettings)
		touched = true
	}

	if touched {
		if err := s.repo.UpsertProfile(ctx, profile); err != nil {
			return nil, err
		}
	}

	return toUserInfo(u, profile), nil
}

func (s *Service) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Stats(ctx context.Context, companyID string) (*Stats, error) {
	return s.repo.Stats(ctx, companyID)
}

// Get returns a user of the caller's company. Callers may always read
// themselves.
func (s *Service) Get(
	ctx context.Context,
	caller *middleware.Identity,
	id string,
) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.ID != caller.UserID && !u.InCompany(caller.CompanyID) {
		return nil, ErrAccessDenied
	}

	return u, nil
}

// Create adds a user to the caller's company.
func (s *Service) Create(
	ctx context.Context,
	caller *middleware.Identity,
	req CreateUserRequest,
) (*User, error) {
	email := strings.TrimSpace(req.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, auth.ErrEmailTaken
	}

	passwordHash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	role := req.Role
	if role == "" {
		role = RoleUser
	}
	perms := core.StringList(req.Permissions)
	if perms == nil {
		perms = core.StringList{}
	}

	companyID := caller.CompanyID
	u := &User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Phone:        optional(strings.TrimSpace(req.Phone)),
		CompanyID:    &companyID,
		Role:         role,
		Permissions:  perms,
		IsActive:     true,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		return nil, translateCreateError(err)
	}
	if err := s.repo.UpsertProfile(ctx, defaultProfile(u.ID)); err != nil {
		s.logger.Warn("default profile not created", "user_id", u.ID, "error", err)
	}

	s.logger.Info("user created",
		"user_id", u.ID,
		"company_id", companyID,
		"created_by", caller.UserID,
	)

	return u, nil
}

// Update lets a user edit themselves and an admin edit anyone in the
// same company.
func (s *Service) Update(
	ctx context.Context,
	caller *middleware.Identity,
	id string,
	req UpdateUserRequest,
) (*User, error) {
	u, err := s.companyUser(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	isAdmin := caller.Role == RoleAdmin
	if u.ID != caller.UserID && !isAdmin {
		return nil, ErrAccessDenied
	}
	if req.IsVerified != nil && !isAdmin {
		return nil, ErrVerifyAdminOnly
	}

	if req.FirstName != nil {
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		u.Phone = optional(strings.TrimSpace(*req.Phone))
	}
	if req.IsVerified != nil {
		u.IsVerified = *req.IsVerified
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *Service) UpdateRole(
	ctx context.Context,
	caller *middleware.Identity,
	id string,
	req UpdateRoleRequest,
) (*User, error) {
	u, err := s.companyUser(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if u.ID == caller.UserID {
		return nil, ErrOwnRole
	}

	if u.IsAdmin() && u.IsActive && req.Role != RoleAdmin {
		if err := s.ensureAnotherAdmin(ctx, caller.CompanyID, ErrLastAdminDemote); err != nil {
			return nil, err
		}
	}

	u.Role = req.Role
	u.Permissions = core.StringList(req.Permissions)
	if u.Permissions == nil {
		u.Permissions = core.StringList{}
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user role changed",
		"user_id", u.ID,
		"role", u.Role,
		"changed_by", caller.UserID,
	)

	return u, nil
}

// SetActive activates or deactivates a user. Deactivation revokes every
// refresh grant the user holds.
func (s *Service) SetActive(
	ctx context.Context,
	caller *middleware.Identity,
	id string,
	active bool,
) (*User, error) {
	u, err := s.companyUser(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if !active {
		if u.ID == caller.UserID {
			return nil, ErrOwnDeactivation
		}
		if u.IsAdmin() && u.IsActive {
			if err := s.ensureAnotherAdmin(ctx, caller.CompanyID, ErrLastAdminDeactivate); err != nil {
				return nil, err
			}
		}
	}

	u.IsActive = active
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}

	if !active && s.sessions != nil {
		n, err := s.sessions.RevokeAllForUser(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("revoke sessions: %w", err)
		}
		s.logger.Info("user deactivated",
			"user_id", u.ID,
			"revoked_sessions", n,
			"changed_by", caller.UserID,
		)
	}

	return u, nil
}

func (s *Service) Delete(
	ctx context.Context,
	caller *middleware.Identity,
	id string,
) error {
	u, err := s.companyUser(ctx, caller, id)
	if err != nil {
		return err
	}
	if u.ID == caller.UserID {
		return ErrOwnDeletion
	}
	if u.IsAdmin() && u.IsActive {
		if err := s.ensureAnotherAdmin(ctx, caller.CompanyID, ErrLastAdminDelete); err != nil {
			return err
		}
	}

	if err := s.repo.Delete(ctx, u.ID); err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", u.ID, "deleted_by", caller.UserID)
	return nil
}

func (s *Service) companyUser(
	ctx context.Context,
	caller *middleware.Identity,
	id string,
) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.InCompany(caller.CompanyID) {
		return nil, ErrAccessDenied
	}
	return u, nil
}

func (s *Service) ensureAnotherAdmin(
	ctx context.Context,
	companyID string,
	lastAdminErr error,
) error {
	count, err := s.repo.CountActiveAdmins(ctx, companyID)
	if err != nil {
		return err
	}
	if count <= 1 {
		return lastAdminErr
	}
	return nil
}

func translateCreateError(err error) error {
	if errors.Is(err, core.ErrDuplicateKey) {
		return auth.ErrEmailTaken
	}
	return err
}

func toUserInfo(u *User, p *Profile) *auth.UserInfo {
	info := &auth.UserInfo{
		ID:            u.ID,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Phone:         deref(u.Phone),
		Role:          u.Role,
		Permissions:   []string(u.Permissions),
		CompanyID:     deref(u.CompanyID),
		CompanySlug:   deref(u.CompanySlug),
		CompanyName:   deref(u.CompanyName),
		CompanyStatus: deref(u.CompanyStatus),
		CompanyPlan:   deref(u.CompanyPlan),
		IsActive:      u.IsActive,
		IsVerified:    u.IsVerified,
		LastLogin:     u.LastLogin,
		CreatedAt:     u.CreatedAt,
	}

	if p != nil {
		info.Profile = &auth.ProfileInfo{
			Bio:                   deref(p.Bio),
			Position:              deref(p.Position),
			Department:            deref(p.Department),
			Preferences:           p.Preferences,
			NotificationsSettings: p.NotificationsSettings,
		}
	}

	return info
}
