// AngelaMos | 2026
// repository.go

package apikey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/terminar/core-service/internal/core"
)

type Repository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByID(ctx context.Context, companyID, id string) (*APIKey, error)
	FindByHash(ctx context.Context, keyHash string) (*KeyWithCompany, error)
	List(ctx context.Context, companyID string, isActive *bool) ([]APIKey, error)
	Update(ctx context.Context, key *APIKey) error
	Rotate(ctx context.Context, key *APIKey) error
	TouchLastUsed(ctx context.Context, id string) error
	Delete(ctx context.Context, companyID, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const keyColumns = `
	id, company_id, name, key_hash, key_prefix, permissions, created_by,
	is_active, expires_at, last_used_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, key *APIKey) error {
	query := `
		INSERT INTO api_keys (
			id, company_id, name, key_hash, key_prefix, permissions,
			created_by, is_active, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		key.ID,
		key.CompanyID,
		key.Name,
		key.KeyHash,
		key.KeyPrefix,
		key.Permissions,
		key.CreatedBy,
		key.IsActive,
		key.ExpiresAt,
	).Scan(&key.CreatedAt, &key.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create api key: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create api key: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	companyID, id string,
) (*APIKey, error) {
	query := `SELECT` + keyColumns + `
		FROM api_keys
		WHERE id = $1 AND company_id = $2`

	var key APIKey
	err := r.db.GetContext(ctx, &key, query, id, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get api key: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get api key: %w", err)
	}

	return &key, nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	keyHash string,
) (*KeyWithCompany, error) {
	query := `
		SELECT k.id, k.company_id, k.name, k.key_hash, k.key_prefix,
		       k.permissions, k.created_by, k.is_active, k.expires_at,
		       k.last_used_at, k.created_at, k.updated_at,
		       c.slug AS company_slug, c.name AS company_name,
		       c.status AS company_status,
		       c.subscription_plan AS company_plan
		FROM api_keys k
		INNER JOIN companies c ON c.id = k.company_id
		WHERE k.key_hash = $1`

	var key KeyWithCompany
	err := r.db.GetContext(ctx, &key, query, keyHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find api key: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find api key: %w", err)
	}

	return &key, nil
}

func (r *repository) List(
	ctx context.Context,
	companyID string,
	isActive *bool,
) ([]APIKey, error) {
	query := `SELECT` + keyColumns + `
		FROM api_keys
		WHERE company_id = $1`
	args := []any{companyID}

	if isActive != nil {
		query += ` AND is_active = $2`
		args = append(args, *isActive)
	}
	query += ` ORDER BY created_at DESC`

	keys := []APIKey{}
	if err := r.db.SelectContext(ctx, &keys, query, args...); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}

	return keys, nil
}

func (r *repository) Update(ctx context.Context, key *APIKey) error {
	query := `
		UPDATE api_keys
		SET name = $3, permissions = $4, expires_at = $5, is_active = $6,
		    updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &key.UpdatedAt, query,
		key.ID,
		key.CompanyID,
		key.Name,
		key.Permissions,
		key.ExpiresAt,
		key.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update api key: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update api key: %w", err)
	}

	return nil
}

// Rotate stores a new secret and clears the last-used timestamp.
func (r *repository) Rotate(ctx context.Context, key *APIKey) error {
	query := `
		UPDATE api_keys
		SET key_hash = $3, key_prefix = $4, last_used_at = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &key.UpdatedAt, query,
		key.ID,
		key.CompanyID,
		key.KeyHash,
		key.KeyPrefix,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("rotate api key: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("rotate api key: %w", err)
	}

	key.LastUsedAt = nil
	return nil
}

func (r *repository) TouchLastUsed(ctx context.Context, id string) error {
	query := `UPDATE api_keys SET last_used_at = NOW() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("touch api key: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, companyID, id string) error {
	query := `DELETE FROM api_keys WHERE id = $1 AND company_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, companyID)
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete api key: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete api key: %w", core.ErrNotFound)
	}

	return nil
}
