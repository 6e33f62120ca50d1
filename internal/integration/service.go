// AngelaMos | 2026
// service.go

package integration

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/terminar/core-service/internal/auth"
	"github.com/terminar/core-service/internal/company"
	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

var (
	ErrUserUnavailable     = errors.New("user not found or inactive")
	ErrUserCompanyMismatch = errors.New("user does not belong to specified company")
	ErrCompanyAccess       = errors.New("caller does not have access to this company")
	ErrCompanyUnavailable  = errors.New("company not found or inactive")
)

type UserDirectory interface {
	GetByID(ctx context.Context, id string) (*auth.UserInfo, error)
}

type CompanyDirectory interface {
	Get(ctx context.Context, id string) (*company.Company, error)
	GetBySlug(ctx context.Context, slug string) (*company.Company, error)
	ListUsers(
		ctx context.Context,
		params company.ListUsersParams,
	) ([]company.CompanyUser, int, error)
}

type Service struct {
	repo      Repository
	users     UserDirectory
	companies CompanyDirectory
	logger    *slog.Logger
}

func NewService(
	repo Repository,
	users UserDirectory,
	companies CompanyDirectory,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:      repo,
		users:     users,
		companies: companies,
		logger:    logger,
	}
}

type Validation struct {
	User    *auth.UserInfo
	Company *company.Company
}

// ValidateUser confirms that userID is an active user the caller may see.
// companyID, when set, must match the user's company.
func (s *Service) ValidateUser(
	ctx context.Context,
	caller *middleware.Identity,
	userID, companyID string,
) (*Validation, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrUserUnavailable
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserUnavailable
	}

	if companyID != "" && u.CompanyID != companyID {
		return nil, ErrUserCompanyMismatch
	}
	if !caller.CanAccessCompany(u.CompanyID) {
		return nil, ErrCompanyAccess
	}

	result := &Validation{User: u}
	if u.CompanyID == "" {
		return result, nil
	}

	c, err := s.companies.Get(ctx, u.CompanyID)
	switch {
	case err == nil:
		result.Company = c
	case !errors.Is(err, core.ErrNotFound):
		return nil, err
	}

	return result, nil
}

func (s *Service) Company(
	ctx context.Context,
	caller *middleware.Identity,
	companyID string,
) (*company.Company, error) {
	if !caller.CanAccessCompany(companyID) {
		return nil, ErrCompanyAccess
	}

	c, err := s.companies.Get(ctx, companyID)
	return activeCompany(c, err)
}

func (s *Service) CompanyBySlug(
	ctx context.Context,
	caller *middleware.Identity,
	slug string,
) (*company.Company, error) {
	c, err := activeCompany(s.companies.GetBySlug(ctx, slug))
	if err != nil {
		return nil, err
	}

	if !caller.CanAccessCompany(c.ID) {
		return nil, ErrCompanyAccess
	}

	return c, nil
}

// CompanyUsers lists at most maxUserLimit users. isActive defaults to
// active users only.
func (s *Service) CompanyUsers(
	ctx context.Context,
	caller *middleware.Identity,
	companyID, role string,
	isActive *bool,
	limit int,
) ([]company.CompanyUser, error) {
	if !caller.CanAccessCompany(companyID) {
		return nil, ErrCompanyAccess
	}

	if isActive == nil {
		active := true
		isActive = &active
	}
	if limit < 1 {
		limit = defaultUserLimit
	}
	if limit > maxUserLimit {
		limit = maxUserLimit
	}

	users, _, err := s.companies.ListUsers(ctx, company.ListUsersParams{
		CompanyID: companyID,
		Page:      1,
		PageSize:  limit,
		Role:      role,
		IsActive:  isActive,
	})
	return users, err
}

func (s *Service) RecordActivity(
	ctx context.Context,
	companyID string,
	req LogRequest,
) (*ActivityLog, error) {
	entry := &ActivityLog{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
		Service:    strings.TrimSpace(req.Service),
		Action:     strings.TrimSpace(req.Action),
		Status:     strings.TrimSpace(req.Status),
		DurationMs: req.DurationMs,
	}
	if req.RequestData != nil {
		data := core.JSONMap(req.RequestData)
		entry.RequestData = &data
	}
	if req.ResponseData != nil {
		data := core.JSONMap(req.ResponseData)
		entry.ResponseData = &data
	}
	if req.ErrorMessage != nil && *req.ErrorMessage != "" {
		entry.ErrorMessage = req.ErrorMessage
	}

	if err := s.repo.CreateLog(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Debug("integration activity recorded",
		"company_id", companyID,
		"service", entry.Service,
		"action", entry.Action,
		"status", entry.Status,
	)

	return entry, nil
}

func (s *Service) Logs(
	ctx context.Context,
	filter LogFilter,
) ([]ActivityLog, int, error) {
	filter.Normalize()
	return s.repo.ListLogs(ctx, filter)
}

func activeCompany(c *company.Company, err error) (*company.Company, error) {
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, ErrCompanyUnavailable
		}
		return nil, err
	}
	if !c.IsActive() {
		return nil, ErrCompanyUnavailable
	}
	return c, nil
}
