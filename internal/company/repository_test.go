// AngelaMos | 2026
// repository_test.go

package company

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminar/core-service/internal/core"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func companyRow(id, slug, status string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "slug", "email", "phone", "address", "city",
		"postal_code", "country", "website", "description", "logo_url",
		"status", "subscription_plan", "settings", "created_at", "updated_at",
	}).AddRow(
		id, "Acme", slug, "office@acme.sk", nil, nil, nil,
		nil, "Slovakia", nil, nil, nil,
		status, PlanBasic, []byte(`{"theme":"dark"}`), now, now,
	)
}

func TestRepositoryGetBySlug(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM companies WHERE slug = $1")).
		WithArgs("acme").
		WillReturnRows(companyRow("c-1", "acme", StatusActive))

	c, err := repo.GetBySlug(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, "c-1", c.ID)
	assert.Equal(t, "office@acme.sk", deref(c.Email))
	assert.Nil(t, c.Phone)
	assert.Equal(t, "dark", c.Settings["theme"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryGetByIDNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM companies WHERE id = $1")).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRepositoryDeleteMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM companies WHERE id = $1")).
		WithArgs("c-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "c-9"), core.ErrNotFound)
}

func TestRepositoryListFilters(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM companies WHERE TRUE AND status = $1 AND (name ILIKE $2 OR slug ILIKE $2)")).
		WithArgs(StatusActive, `%50\%%`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $3 OFFSET $4")).
		WithArgs(StatusActive, `%50\%%`, 20, 0).
		WillReturnRows(companyRow("c-1", "acme", StatusActive))

	companies, total, err := repo.List(context.Background(), ListCompaniesParams{
		Status: StatusActive,
		Search: "50%",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, companies, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryListUsersActiveFilter(t *testing.T) {
	repo, mock := newMockRepo(t)
	active := true

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM users WHERE company_id = $1 AND is_active = $2")).
		WithArgs("c-1", true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $3 OFFSET $4")).
		WithArgs("c-1", true, 50, 50).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "email", "first_name", "last_name", "role", "is_active",
			"last_login", "created_at",
		}))

	_, total, err := repo.ListUsers(context.Background(), ListUsersParams{
		CompanyID: "c-1",
		IsActive:  &active,
		Page:      2,
		PageSize:  50,
	})
	require.NoError(t, err)
	assert.Zero(t, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
