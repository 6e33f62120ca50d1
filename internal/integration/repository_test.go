// AngelaMos | 2026
// repository_test.go

package integration

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRepository(sqlx.NewDb(db, "pgx")), mock
}

func TestCreateLogStoresNullsForAbsentData(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO integration_logs").
		WithArgs("l-1", "c-1", "booking", "sync", nil, nil, "success", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(now))

	entry := &ActivityLog{
		ID:        "l-1",
		CompanyID: "c-1",
		Service:   "booking",
		Action:    "sync",
		Status:    "success",
	}
	require.NoError(t, repo.CreateLog(context.Background(), entry))
	assert.Equal(t, now, entry.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListLogsBuildsFilters(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM integration_logs WHERE company_id = $1 AND service = $2 AND status = $3")).
		WithArgs("c-1", "booking", "failed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	mock.ExpectQuery(regexp.QuoteMeta("LIMIT $4 OFFSET $5")).
		WithArgs("c-1", "booking", "failed", 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "company_id", "service", "action", "request_data",
			"response_data", "status", "error_message", "duration_ms", "created_at",
		}).AddRow(
			"l-1", "c-1", "booking", "sync", []byte(`{"items":3}`),
			nil, "failed", "timeout", 900, now,
		))

	logs, total, err := repo.ListLogs(context.Background(), LogFilter{
		CompanyID: "c-1",
		Service:   "booking",
		Status:    "failed",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, logs, 1)
	require.NotNil(t, logs[0].RequestData)
	assert.Equal(t, float64(3), (*logs[0].RequestData)["items"])
	assert.Nil(t, logs[0].ResponseData)
	require.NotNil(t, logs[0].DurationMs)
	assert.Equal(t, 900, *logs[0].DurationMs)
	require.NoError(t, mock.ExpectationsWereMet())
}
