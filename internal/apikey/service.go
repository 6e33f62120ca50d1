// AngelaMos | 2026
// service.go

package apikey

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
	ErrNoFields      = errors.New("no fields to update")
	ErrExpiryInPast  = errors.New("expiration date must be in the future")
	ErrMissingSecret = errors.New("api key hash secret is not configured")
)

var _ middleware.KeyAuthenticator = (*Service)(nil)

type Service struct {
	repo   Repository
	secret string
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, hashSecret string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		secret: hashSecret,
		logger: logger,
		now:    time.Now,
	}
}

// AuthenticateKey resolves a raw key to its principal. Unknown, inactive
// and expired keys, and keys of inactive companies, all report
// core.ErrNotFound.
func (s *Service) AuthenticateKey(
	ctx context.Context,
	rawKey string,
) (*middleware.APIKeyPrincipal, error) {
	if s.secret == "" {
		return nil, ErrMissingSecret
	}

	key, err := s.repo.FindByHash(ctx, core.HashAPIKey(s.secret, rawKey))
	if err != nil {
		return nil, err
	}

	if !key.IsUsable(s.now()) {
		return nil, fmt.Errorf("api key %s unusable: %w", key.ID, core.ErrNotFound)
	}
	if key.CompanyStatus != middleware.CompanyStatusActive {
		return nil, fmt.Errorf("api key %s company inactive: %w", key.ID, core.ErrNotFound)
	}

	if err := s.repo.TouchLastUsed(ctx, key.ID); err != nil {
		s.logger.Warn("api key last-used update failed", "key_id", key.ID, "error", err)
	}

	perms := []string(key.Permissions)
	if perms == nil {
		perms = []string{}
	}

	return &middleware.APIKeyPrincipal{
		KeyID:       key.ID,
		Name:        key.Name,
		Permissions: perms,
		CompanyID:   key.CompanyID,
		CompanySlug: key.CompanySlug,
		CompanyName: key.CompanyName,
		CompanyPlan: key.CompanyPlan,
	}, nil
}

func (s *Service) List(
	ctx context.Context,
	companyID string,
	isActive *bool,
) ([]APIKey, error) {
	return s.repo.List(ctx, companyID, isActive)
}

func (s *Service) Get(ctx context.Context, companyID, id string) (*APIKey, error) {
	return s.repo.GetByID(ctx, companyID, id)
}

// Create returns the new key together with its raw secret. The secret is
// not recoverable afterwards.
func (s *Service) Create(
	ctx context.Context,
	companyID, createdBy string,
	req CreateRequest,
) (*APIKey, string, error) {
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, "", ErrExpiryInPast
	}

	raw, hash, err := s.newSecret()
	if err != nil {
		return nil, "", err
	}

	perms := core.StringList(req.Permissions)
	if perms == nil {
		perms = core.StringList{}
	}

	key := &APIKey{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		Name:        strings.TrimSpace(req.Name),
		KeyHash:     hash,
		KeyPrefix:   keyPrefix(raw),
		Permissions: perms,
		IsActive:    true,
		ExpiresAt:   req.ExpiresAt,
	}
	if createdBy != "" {
		key.CreatedBy = &createdBy
	}

	if err := s.repo.Create(ctx, key); err != nil {
		return nil, "", err
	}

	s.logger.Info("api key created",
		"key_id", key.ID,
		"company_id", companyID,
		"created_by", createdBy,
	)

	return key, raw, nil
}

func (s *Service) Update(
	ctx context.Context,
	companyID, id string,
	req UpdateRequest,
) (*APIKey, error) {
	if req.empty() {
		return nil, ErrNoFields
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(s.now()) {
		return nil, ErrExpiryInPast
	}

	key, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		key.Name = strings.TrimSpace(*req.Name)
	}
	if req.Permissions != nil {
		key.Permissions = core.StringList(req.Permissions)
	}
	if req.ExpiresAt != nil {
		key.ExpiresAt = req.ExpiresAt
	}
	if req.IsActive != nil {
		key.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, key); err != nil {
		return nil, err
	}

	return key, nil
}

func (s *Service) SetActive(
	ctx context.Context,
	companyID, id string,
	active bool,
) (*APIKey, error) {
	return s.Update(ctx, companyID, id, UpdateRequest{IsActive: &active})
}

// Regenerate replaces the secret of an existing key. The old secret stops
// working immediately.
func (s *Service) Regenerate(
	ctx context.Context,
	companyID, id string,
) (*APIKey, string, error) {
	key, err := s.repo.GetByID(ctx, companyID, id)
	if err != nil {
		return nil, "", err
	}

	raw, hash, err := s.newSecret()
	if err != nil {
		return nil, "", err
	}

	key.KeyHash = hash
	key.KeyPrefix = keyPrefix(raw)

	if err := s.repo.Rotate(ctx, key); err != nil {
		return nil, "", err
	}

	s.logger.Info("api key regenerated", "key_id", key.ID, "company_id", companyID)

	return key, raw, nil
}

func (s *Service) Delete(ctx context.Context, companyID, id string) error {
	if err := s.repo.Delete(ctx, companyID, id); err != nil {
		return err
	}

	s.logger.Info("api key deleted", "key_id", id, "company_id", companyID)
	return nil
}

func (s *Service) newSecret() (raw, hash string, err error) {
	if s.secret == "" {
		return "", "", ErrMissingSecret
	}

	raw, err = core.GenerateServiceKey()
	if err != nil {
		return "", "", err
	}

	return raw, core.HashAPIKey(s.secret, raw), nil
}
