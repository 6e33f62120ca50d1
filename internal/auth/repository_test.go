// AngelaMos | 2026
// repository_test.go

package auth

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

var refreshColumns = []string{
	"id", "user_id", "token_hash", "expires_at", "created_at",
	"revoked_at", "user_agent", "ip_address",
}

func TestCreateRefreshToken(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	expires := now.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WithArgs("t-1", "u-1", "hash", expires, "curl", "10.0.0.1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	token := &RefreshToken{
		ID:        "t-1",
		UserID:    "u-1",
		TokenHash: "hash",
		ExpiresAt: expires,
		UserAgent: "curl",
		IPAddress: "10.0.0.1",
	}
	require.NoError(t, repo.Create(context.Background(), token))
	assert.Equal(t, now, token.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByHash(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE token_hash = $1")).
		WithArgs("hash").
		WillReturnRows(sqlmock.NewRows(refreshColumns).AddRow(
			"t-1", "u-1", "hash", now.Add(time.Hour), now, now, "curl", "10.0.0.1",
		))

	token, err := repo.FindByHash(context.Background(), "hash")
	require.NoError(t, err)
	assert.True(t, token.IsRevoked())
	assert.False(t, token.IsUsable(now))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByHashMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("FROM refresh_tokens").
		WillReturnRows(sqlmock.NewRows(refreshColumns))

	_, err := repo.FindByHash(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRevokeByHashIgnoresUnknown(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("revoked_at IS NULL")).
		WithArgs("nope").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.RevokeByHash(context.Background(), "nope"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeByIDMissing(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE refresh_tokens").
		WithArgs("t-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RevokeByID(context.Background(), "t-9")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestRevokeAllForUser(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("WHERE user_id = $1 AND revoked_at IS NULL")).
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.RevokeAllForUser(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestDeleteExpired(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	require.NoError(t, mock.ExpectationsWereMet())
}
