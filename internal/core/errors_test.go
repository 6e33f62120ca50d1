// AngelaMos | 2026
// errors_test.go

package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", fmt.Errorf("get: %w", ErrNotFound), http.StatusNotFound, "NOT_FOUND"},
		{"duplicate", ErrDuplicateKey, http.StatusBadRequest, "DUPLICATE"},
		{"forbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"expired", ErrTokenExpired, http.StatusUnauthorized, "TOKEN_INVALID"},
		{"rate limited", ErrRateLimited, http.StatusTooManyRequests, "RATE_LIMITED"},
		{
			"unique violation",
			&pgconn.PgError{Code: pgUniqueViolation},
			http.StatusBadRequest,
			"DUPLICATE",
		},
		{
			"fk violation",
			fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgForeignKeyViolation}),
			http.StatusBadRequest,
			"INVALID_REFERENCE",
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"app error", ForbiddenError("nope"), http.StatusForbidden, "FORBIDDEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := TranslateError(tt.err)
			assert.Equal(t, tt.status, appErr.StatusCode)
			assert.Equal(t, tt.code, appErr.Code)
		})
	}
}

func TestAppErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFoundError("company"))
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, IsAppError(err))
	assert.Equal(t, "company not found: resource not found", NotFoundError("company").Error())
}

func TestJSONErrorHidesInternalDetail(t *testing.T) {
	t.Cleanup(func() { SetExposeInternalErrors(false) })

	write := func() ErrorBody {
		rec := httptest.NewRecorder()
		JSONError(rec, errors.New("dial tcp: refused"))
		require.Equal(t, http.StatusInternalServerError, rec.Code)

		var resp Response
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		return *resp.Error
	}

	SetExposeInternalErrors(false)
	assert.Empty(t, write().Detail)

	SetExposeInternalErrors(true)
	assert.Equal(t, "dial tcp: refused", write().Detail)
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, IsDuplicateKeyError(fmt.Errorf("x: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsDuplicateKeyError(errors.New("23505")))
}

func TestPaginatedTotalPages(t *testing.T) {
	rec := httptest.NewRecorder()
	Paginated(rec, []string{"a"}, 2, 10, 21)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
}
