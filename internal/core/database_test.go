// AngelaMos | 2026
// database_test.go

package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminar/core-service/internal/config"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "pgx"), mock
}

func TestInTxCommits(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO companies").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := InTx(context.Background(), db, func(tx DBTX) error {
		_, err := tx.ExecContext(context.Background(), "INSERT INTO companies DEFAULT VALUES")
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := InTx(context.Background(), db, func(DBTX) error { return boom })
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = InTx(context.Background(), db, func(DBTX) error { panic("bad") })
	})
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now`, EscapeLike("50% off_now"))
	assert.Equal(t, `a\\b`, EscapeLike(`a\b`))
}

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	r, err := NewRedis(context.Background(), config.RedisConfig{
		URL:      "redis://" + mr.Addr(),
		PoolSize: 2,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	assert.NoError(t, r.Ping(context.Background()))
	assert.NotNil(t, r.PoolStats())

	mr.Close()
	assert.Error(t, r.Ping(context.Background()))
}

func TestNewRedisRejectsBadURL(t *testing.T) {
	_, err := NewRedis(context.Background(), config.RedisConfig{URL: "://nope"})
	assert.Error(t, err)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "login:lock:a|acme", RedisKey("login", "lock", "a|acme"))
	assert.Equal(t, "ratelimit", RedisKey("ratelimit"))
}

func TestJitteredDuration(t *testing.T) {
	assert.Equal(t, time.Duration(0), jitteredDuration(0))

	got := jitteredDuration(time.Hour)
	assert.GreaterOrEqual(t, got, time.Hour)
	assert.Less(t, got, time.Hour+time.Hour/7)
}
