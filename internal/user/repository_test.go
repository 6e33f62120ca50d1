// AngelaMos | 2026
// repository_test.go

package user

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

var userColumns = []string{
	"id", "email", "password_hash", "first_name", "last_name", "phone",
	"company_id", "role", "permissions", "is_active", "is_verified",
	"last_login", "reset_token_hash", "reset_token_expires", "created_at",
	"updated_at", "company_slug", "company_name", "company_status",
	"company_plan",
}

func TestGetByEmailInCompanyJoinsCompany(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INNER JOIN companies c ON c.id = u.company_id")).
		WithArgs("ada@acme.sk", "acme").
		WillReturnRows(sqlmock.NewRows(userColumns).AddRow(
			"u-1", "ada@acme.sk", "hash", "Ada", "Owner", nil,
			"c-1", RoleAdmin, []byte(`["*"]`), true, false,
			nil, nil, nil, now,
			now, "acme", "Acme", "active",
			"premium",
		))

	u, err := repo.GetByEmailInCompany(context.Background(), "ada@acme.sk", "acme")
	require.NoError(t, err)
	assert.Equal(t, "c-1", deref(u.CompanyID))
	assert.Equal(t, "premium", deref(u.CompanyPlan))
	assert.True(t, u.Permissions.Contains("*"))
	assert.Nil(t, u.Phone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmailInCompanyMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("INNER JOIN companies").
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetByEmailInCompany(context.Background(), "x@y.sk", "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestConsumeResetToken(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE reset_token_hash = $1 AND reset_token_expires > NOW()")).
		WithArgs("token-hash", "new-hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))

	id, err := repo.ConsumeResetToken(context.Background(), "token-hash", "new-hash")
	require.NoError(t, err)
	assert.Equal(t, "u-1", id)

	mock.ExpectQuery("reset_token_hash").
		WithArgs("stale", "new-hash").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = repo.ConsumeResetToken(context.Background(), "stale", "new-hash")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestCountActiveAdmins(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery(regexp.QuoteMeta("role = 'admin' AND is_active")).
		WithArgs("c-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := repo.CountActiveAdmins(context.Background(), "c-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUpdatePasswordMissingUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE users").
		WithArgs("ghost", "hash").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePassword(context.Background(), "ghost", "hash")
	assert.ErrorIs(t, err, core.ErrNotFound)
}
