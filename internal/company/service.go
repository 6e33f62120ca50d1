// AngelaMos | 2026
// service.go

package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/terminar/core-service/internal/auth"
	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

var (
	ErrSlugTaken     = errors.New("company slug is already taken")
	ErrEmailTaken    = errors.New("email is already taken by another company")
	ErrHasUsers      = errors.New("cannot delete company with existing users")
	ErrNoLogo        = errors.New("company has no logo")
	ErrEmptySettings = errors.New("settings must not be empty")
)

var (
	_ middleware.CompanyLoader = (*Service)(nil)
	_ auth.CompanyProvider     = (*Service)(nil)
)

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// LoadActiveCompany backs the tenant gate. Inactive and suspended
// companies are reported as missing.
func (s *Service) LoadActiveCompany(
	ctx context.Context,
	companyID string,
) (*middleware.CompanyRecord, error) {
	c, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, fmt.Errorf("load company %s: %w", companyID, core.ErrNotFound)
	}

	return &middleware.CompanyRecord{
		ID:               c.ID,
		Name:             c.Name,
		Slug:             c.Slug,
		Status:           c.Status,
		SubscriptionPlan: c.SubscriptionPlan,
	}, nil
}

func (s *Service) GetCompanyInfo(
	ctx context.Context,
	companyID string,
) (*auth.CompanyInfo, error) {
	c, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return nil, err
	}

	return &auth.CompanyInfo{
		ID:               c.ID,
		Name:             c.Name,
		Slug:             c.Slug,
		Email:            deref(c.Email),
		Status:           c.Status,
		SubscriptionPlan: c.SubscriptionPlan,
		CreatedAt:        c.CreatedAt,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Company, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Company, error) {
	return s.repo.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(slug)))
}

// GetPublicProfile returns an active company by slug.
func (s *Service) GetPublicProfile(
	ctx context.Context,
	slug string,
) (*Company, error) {
	c, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, fmt.Errorf("public profile %s: %w", slug, core.ErrNotFound)
	}
	return c, nil
}

func (s *Service) List(
	ctx context.Context,
	params ListCompaniesParams,
) ([]Company, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) Create(
	ctx context.Context,
	req CreateCompanyRequest,
) (*Company, error) {
	ctx, span := core.StartSpan(ctx, "company.create")
	defer span.End()

	slug := strings.ToLower(strings.TrimSpace(req.Slug))
	email := strings.ToLower(strings.TrimSpace(req.Email))

	taken, err := s.repo.SlugTaken(ctx, slug, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrSlugTaken
	}

	taken, err = s.repo.EmailTaken(ctx, email, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	c := New(req.Name, slug, email)
	c.Phone = optional(req.Phone)
	c.Address = optional(req.Address)
	c.City = optional(req.City)
	c.PostalCode = optional(req.PostalCode)
	c.Website = optional(req.Website)
	c.Description = optional(req.Description)
	if country := optional(req.Country); country != nil {
		c.Country = country
	}
	if req.SubscriptionPlan != "" {
		c.SubscriptionPlan = req.SubscriptionPlan
	}

	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	s.logger.Info("company created",
		"company_id", c.ID,
		"slug", c.Slug,
	)

	return c, nil
}

// Update applies a tenant-side edit. Status and plan are untouched.
func (s *Service) Update(
	ctx context.Context,
	id string,
	req UpdateCompanyRequest,
) (*Company, error) {
	return s.update(ctx, id, req, nil, nil)
}

// AdminUpdate is Update plus status and plan changes.
func (s *Service) AdminUpdate(
	ctx context.Context,
	id string,
	req AdminUpdateCompanyRequest,
) (*Company, error) {
	return s.update(ctx, id, req.UpdateCompanyRequest, req.Status, req.SubscriptionPlan)
}

func (s *Service) update(
	ctx context.Context,
	id string,
	req UpdateCompanyRequest,
	status, plan *string,
) (*Company, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*req.Email))
		if email != deref(c.Email) {
			taken, err := s.repo.EmailTaken(ctx, email, c.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, ErrEmailTaken
			}
		}
		c.Email = &email
	}

	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	setOptional(&c.Phone, req.Phone)
	setOptional(&c.Address, req.Address)
	setOptional(&c.City, req.City)
	setOptional(&c.PostalCode, req.PostalCode)
	setOptional(&c.Country, req.Country)
	setOptional(&c.Website, req.Website)
	setOptional(&c.Description, req.Description)

	if req.Settings != nil {
		c.Settings = c.Settings.Merge(req.Settings)
	}
	if status != nil {
		c.Status = *status
	}
	if plan != nil {
		c.SubscriptionPlan = *plan
	}

	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// UpdateSettings shallow-merges patch into the stored settings.
func (s *Service) UpdateSettings(
	ctx context.Context,
	id string,
	patch map[string]any,
) (core.JSONMap, error) {
	if len(patch) == 0 {
		return nil, ErrEmptySettings
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := c.Settings.Merge(patch)
	if err := s.repo.UpdateSettings(ctx, id, merged); err != nil {
		return nil, err
	}

	return merged, nil
}

func (s *Service) RemoveLogo(ctx context.Context, id string) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c.LogoURL == nil {
		return ErrNoLogo
	}

	return s.repo.SetLogo(ctx, id, nil)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.repo.CountUsers(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrHasUsers
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("company deleted", "company_id", id)
	return nil
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]CompanyUser, int, error) {
	return s.repo.ListUsers(ctx, params)
}

func (s *Service) Stats(
	ctx context.Context,
	id string,
) (*CompanyStatsResponse, error) {
	users, err := s.repo.UserStats(ctx, id)
	if err != nil {
		return nil, err
	}

	keys, err := s.repo.APIKeyStats(ctx, id)
	if err != nil {
		return nil, err
	}

	return &CompanyStatsResponse{UserStats: *users, APIKeyStats: *keys}, nil
}

func (s *Service) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	return s.repo.GlobalStats(ctx)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// setOptional treats an explicit empty string as clearing the column.
func setOptional(dst **string, src *string) {
	if src == nil {
		return
	}
	*dst = optional(*src)
}
