// AngelaMos | 2026
// repository.go

package company

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/terminar/core-service/internal/core"
)

type Repository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id string) (*Company, error)
	GetBySlug(ctx context.Context, slug string) (*Company, error)
	SlugTaken(ctx context.Context, slug, excludeID string) (bool, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	Update(ctx context.Context, c *Company) error
	UpdateSettings(ctx context.Context, id string, settings core.JSONMap) error
	SetLogo(ctx context.Context, id string, logoURL *string) error
	Delete(ctx context.Context, id string) error
	CountUsers(ctx context.Context, id string) (int, error)
	List(ctx context.Context, params ListCompaniesParams) ([]Company, int, error)
	ListUsers(ctx context.Context, params ListUsersParams) ([]CompanyUser, int, error)
	UserStats(ctx context.Context, id string) (*UserStats, error)
	APIKeyStats(ctx context.Context, id string) (*APIKeyStats, error)
	GlobalStats(ctx context.Context) (*GlobalStats, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const companyColumns = `
	id, name, slug, email, phone, address, city, postal_code, country,
	website, description, logo_url, status, subscription_plan, settings,
	created_at, updated_at`

func (r *repository) Create(ctx context.Context, c *Company) error {
	query := `
		INSERT INTO companies (
			id, name, slug, email, phone, address, city, postal_code,
			country, website, description, status, subscription_plan, settings
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14
		)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		c.ID,
		c.Name,
		c.Slug,
		c.Email,
		c.Phone,
		c.Address,
		c.City,
		c.PostalCode,
		c.Country,
		c.Website,
		c.Description,
		c.Status,
		c.SubscriptionPlan,
		c.Settings,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create company: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create company: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Company, error) {
	query := `SELECT` + companyColumns + ` FROM companies WHERE id = $1`

	var c Company
	err := r.db.GetContext(ctx, &c, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get company: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get company: %w", err)
	}

	return &c, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Company, error) {
	query := `SELECT` + companyColumns + ` FROM companies WHERE slug = $1`

	var c Company
	err := r.db.GetContext(ctx, &c, query, slug)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get company by slug: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get company by slug: %w", err)
	}

	return &c, nil
}

func (r *repository) SlugTaken(
	ctx context.Context,
	slug, excludeID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM companies
			WHERE slug = $1 AND ($2 = '' OR id::text <> $2)
		)`

	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, slug, excludeID); err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}

	return taken, nil
}

func (r *repository) EmailTaken(
	ctx context.Context,
	email, excludeID string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM companies
			WHERE email = $1 AND ($2 = '' OR id::text <> $2)
		)`

	var taken bool
	if err := r.db.GetContext(ctx, &taken, query, email, excludeID); err != nil {
		return false, fmt.Errorf("check company email: %w", err)
	}

	return taken, nil
}

func (r *repository) Update(ctx context.Context, c *Company) error {
	query := `
		UPDATE companies
		SET name = $2, email = $3, phone = $4, address = $5, city = $6,
		    postal_code = $7, country = $8, website = $9, description = $10,
		    status = $11, subscription_plan = $12, settings = $13,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &c.UpdatedAt, query,
		c.ID,
		c.Name,
		c.Email,
		c.Phone,
		c.Address,
		c.City,
		c.PostalCode,
		c.Country,
		c.Website,
		c.Description,
		c.Status,
		c.SubscriptionPlan,
		c.Settings,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update company: %w", core.ErrNotFound)
	}
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("update company: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("update company: %w", err)
	}

	return nil
}

func (r *repository) UpdateSettings(
	ctx context.Context,
	id string,
	settings core.JSONMap,
) error {
	query := `
		UPDATE companies
		SET settings = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update company settings", query, id, settings)
}

func (r *repository) SetLogo(ctx context.Context, id string, logoURL *string) error {
	query := `
		UPDATE companies
		SET logo_url = $2, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "set company logo", query, id, logoURL)
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete company", `DELETE FROM companies WHERE id = $1`, id)
}

func (r *repository) CountUsers(ctx context.Context, id string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM users WHERE company_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("count company users: %w", err)
	}

	return count, nil
}

func (r *repository) List(
	ctx context.Context,
	params ListCompaniesParams,
) ([]Company, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "TRUE")

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	if params.Plan != "" {
		conditions = append(conditions, fmt.Sprintf("subscription_plan = $%d", argIdx))
		args = append(args, params.Plan)
		argIdx++
	}

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(name ILIKE $%d OR slug ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM companies WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count companies: %w", err)
	}

	query := fmt.Sprintf(`SELECT`+companyColumns+`
		FROM companies
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var companies []Company
	if err := r.db.SelectContext(ctx, &companies, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}

	return companies, total, nil
}

func (r *repository) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]CompanyUser, int, error) {
	params.Normalize()

	conditions := []string{"company_id = $1"}
	args := []any{params.CompanyID}
	argIdx := 2

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", argIdx))
		args = append(args, *params.IsActive)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count company users: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, email, first_name, last_name, role, is_active,
		       last_login, created_at
		FROM users
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []CompanyUser
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list company users: %w", err)
	}

	return users, total, nil
}

func (r *repository) UserStats(ctx context.Context, id string) (*UserStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_users,
			COUNT(*) FILTER (WHERE is_active) AS active_users,
			COUNT(*) FILTER (WHERE is_verified) AS verified_users,
			COUNT(*) FILTER (WHERE role = 'admin') AS admin_users,
			COUNT(*) FILTER (WHERE last_login > NOW() - INTERVAL '30 days') AS recent_logins
		FROM users
		WHERE company_id = $1`

	var stats UserStats
	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		return nil, fmt.Errorf("company user stats: %w", err)
	}

	return &stats, nil
}

func (r *repository) APIKeyStats(ctx context.Context, id string) (*APIKeyStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_keys,
			COUNT(*) FILTER (
				WHERE is_active AND (expires_at IS NULL OR expires_at > NOW())
			) AS active_keys
		FROM api_keys
		WHERE company_id = $1`

	var stats APIKeyStats
	if err := r.db.GetContext(ctx, &stats, query, id); err != nil {
		return nil, fmt.Errorf("company api key stats: %w", err)
	}

	return &stats, nil
}

func (r *repository) GlobalStats(ctx context.Context) (*GlobalStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_companies,
			COUNT(*) FILTER (WHERE status = 'active') AS active_companies,
			COUNT(*) FILTER (WHERE subscription_plan = 'premium') AS premium_companies,
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '30 days') AS new_companies
		FROM companies`

	var stats GlobalStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("global company stats: %w", err)
	}

	return &stats, nil
}

func (r *repository) execOne(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}
