// AngelaMos | 2026
// repository.go

package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/terminar/core-service/internal/core"
)

type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailInCompany(ctx context.Context, email, companySlug string) (*User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string) error
	SetResetToken(ctx context.Context, id, tokenHash string, expiresAt time.Time) error
	ConsumeResetToken(ctx context.Context, tokenHash, passwordHash string) (string, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, params ListUsersParams) ([]User, int, error)
	CountActiveAdmins(ctx context.Context, companyID string) (int, error)
	Stats(ctx context.Context, companyID string) (*Stats, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpsertProfile(ctx context.Context, profile *Profile) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const userSelect = `
	SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name,
	       u.phone, u.company_id, u.role, u.permissions, u.is_active,
	       u.is_verified, u.last_login, u.reset_token_hash,
	       u.reset_token_expires, u.created_at, u.updated_at,
	       c.slug AS company_slug, c.name AS company_name,
	       c.status AS company_status,
	       c.subscription_plan AS company_plan
	FROM users u`

func (r *repository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (
			id, email, password_hash, first_name, last_name, phone,
			company_id, role, permissions, is_active, is_verified
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.CompanyID,
		user.Role,
		user.Permissions,
		user.IsActive,
		user.IsVerified,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if core.IsDuplicateKeyError(err) {
			return fmt.Errorf("create user: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*User, error) {
	query := userSelect + `
		LEFT JOIN companies c ON c.id = u.company_id
		WHERE u.id = $1`

	return r.getOne(ctx, "get user", query, id)
}

func (r *repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := userSelect + `
		LEFT JOIN companies c ON c.id = u.company_id
		WHERE u.email = $1`

	return r.getOne(ctx, "get user by email", query, email)
}

// GetByEmailInCompany only finds users attached to the company with the
// given slug.
func (r *repository) GetByEmailInCompany(
	ctx context.Context,
	email, companySlug string,
) (*User, error) {
	query := userSelect + `
		INNER JOIN companies c ON c.id = u.company_id
		WHERE u.email = $1 AND c.slug = $2`

	return r.getOne(ctx, "get user in company", query, email, companySlug)
}

func (r *repository) getOne(
	ctx context.Context,
	op, query string,
	args ...any,
) (*User, error) {
	var user User
	err := r.db.GetContext(ctx, &user, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &user, nil
}

func (r *repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}

	return exists, nil
}

func (r *repository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET first_name = $2, last_name = $3, phone = $4, role = $5,
		    permissions = $6, is_active = $7, is_verified = $8,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &user.UpdatedAt, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Phone,
		user.Role,
		user.Permissions,
		user.IsActive,
		user.IsVerified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update user: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

// UpdatePassword also drops any outstanding reset token.
func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_token_hash = NULL,
		    reset_token_expires = NULL, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "update password", query, id, passwordHash)
}

func (r *repository) UpdateLastLogin(ctx context.Context, id string) error {
	query := `UPDATE users SET last_login = NOW() WHERE id = $1`

	return r.execOne(ctx, "update last login", query, id)
}

func (r *repository) SetResetToken(
	ctx context.Context,
	id, tokenHash string,
	expiresAt time.Time,
) error {
	query := `
		UPDATE users
		SET reset_token_hash = $2, reset_token_expires = $3, updated_at = NOW()
		WHERE id = $1`

	return r.execOne(ctx, "set reset token", query, id, tokenHash, expiresAt)
}

// ConsumeResetToken swaps the password of the user holding an unexpired
// reset token and clears the token in the same statement.
func (r *repository) ConsumeResetToken(
	ctx context.Context,
	tokenHash, passwordHash string,
) (string, error) {
	query := `
		UPDATE users
		SET password_hash = $2, reset_token_hash = NULL,
		    reset_token_expires = NULL, updated_at = NOW()
		WHERE reset_token_hash = $1 AND reset_token_expires > NOW()
		RETURNING id`

	var id string
	err := r.db.GetContext(ctx, &id, query, tokenHash, passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("consume reset token: %w", core.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("consume reset token: %w", err)
	}

	return id, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return r.execOne(ctx, "delete user", `DELETE FROM users WHERE id = $1`, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	params.Normalize()

	conditions := []string{"u.company_id = $1"}
	args := []any{params.CompanyID}
	argIdx := 2

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(u.email ILIKE $%d OR u.first_name ILIKE $%d OR u.last_name ILIKE $%d)",
			argIdx, argIdx, argIdx))
		args = append(args, "%"+core.EscapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("u.role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	if params.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("u.is_active = $%d", argIdx))
		args = append(args, *params.IsActive)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM users u WHERE " + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	query := fmt.Sprintf(userSelect+`
		LEFT JOIN companies c ON c.id = u.company_id
		WHERE %s
		ORDER BY u.created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var users []User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	return users, total, nil
}

func (r *repository) CountActiveAdmins(
	ctx context.Context,
	companyID string,
) (int, error) {
	query := `
		SELECT COUNT(*) FROM users
		WHERE company_id = $1 AND role = 'admin' AND is_active`

	var count int
	if err := r.db.GetContext(ctx, &count, query, companyID); err != nil {
		return 0, fmt.Errorf("count active admins: %w", err)
	}

	return count, nil
}

func (r *repository) Stats(ctx context.Context, companyID string) (*Stats, error) {
	query := `
		SELECT
			COUNT(*) AS total_users,
			COUNT(*) FILTER (WHERE is_active) AS active_users,
			COUNT(*) FILTER (WHERE is_verified) AS verified_users,
			COUNT(*) FILTER (WHERE role = 'admin') AS admin_users,
			COUNT(*) FILTER (WHERE role = 'manager') AS manager_users,
			COUNT(*) FILTER (WHERE last_login > NOW() - INTERVAL '30 days') AS recent_logins
		FROM users
		WHERE company_id = $1`

	var stats Stats
	if err := r.db.GetContext(ctx, &stats, query, companyID); err != nil {
		return nil, fmt.Errorf("user stats: %w", err)
	}

	return &stats, nil
}

func (r *repository) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	query := `
		SELECT user_id, bio, position, department, preferences,
		       notifications_settings, updated_at
		FROM user_profiles
		WHERE user_id = $1`

	var p Profile
	err := r.db.GetContext(ctx, &p, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

func (r *repository) UpsertProfile(ctx context.Context, p *Profile) error {
	query := `
		INSERT INTO user_profiles (
			user_id, bio, position, department, preferences,
			notifications_settings
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE SET
			bio = EXCLUDED.bio,
			position = EXCLUDED.position,
			department = EXCLUDED.department,
			preferences = EXCLUDED.preferences,
			notifications_settings = EXCLUDED.notifications_settings,
			updated_at = NOW()
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.UserID,
		p.Bio,
		p.Position,
		p.Department,
		p.Preferences,
		p.NotificationsSettings,
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}

	return nil
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
