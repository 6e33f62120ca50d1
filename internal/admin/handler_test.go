// AngelaMos | 2026
// handler_test.go

package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminar/core-service/internal/company"
	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

type fakeLedger struct {
	purged int64
	calls  int
}

func (f *fakeLedger) PurgeExpired(context.Context) (int64, error) {
	f.calls++
	return f.purged, nil
}

type fakeTenants struct{}

func (fakeTenants) GlobalStats(context.Context) (*company.GlobalStats, error) {
	return &company.GlobalStats{TotalCompanies: 4, ActiveCompanies: 3}, nil
}

func as(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := &middleware.Identity{Kind: middleware.KindUser, UserID: "u-1", Role: role}
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), id)))
		})
	}
}

func newRouter(role string, cfg HandlerConfig) http.Handler {
	r := chi.NewRouter()
	NewHandler(cfg).RegisterRoutes(r, as(role))
	return r
}

func do(h http.Handler, method, path string) (*httptest.ResponseRecorder, core.Response) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	var resp core.Response
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	return rec, resp
}

func TestAdminRoutesRequireSystemAdmin(t *testing.T) {
	router := newRouter(middleware.RoleAdmin, HandlerConfig{})

	rec, _ := do(router, http.MethodGet, "/admin/stats")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestSystemStats(t *testing.T) {
	router := newRouter(middleware.RoleSystemAdmin, HandlerConfig{
		DBStats: func() sql.DBStats { return sql.DBStats{OpenConnections: 3} },
		DBPing:  func(context.Context) error { return nil },
		RedisPing: func(context.Context) error {
			return errors.New("redis down")
		},
	})

	rec, resp := do(router, http.MethodGet, "/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	data := resp.Data.(map[string]any)
	db := data["database"].(map[string]any)
	assert.Equal(t, true, db["healthy"])
	assert.Equal(t, float64(3), db["stats"].(map[string]any)["openConnections"])
	assert.Equal(t, false, data["redis"].(map[string]any)["healthy"])
	assert.NotEmpty(t, data["runtime"].(map[string]any)["goVersion"])
}

func TestPurgeSessions(t *testing.T) {
	ledger := &fakeLedger{purged: 7}
	router := newRouter(middleware.RoleSystemAdmin, HandlerConfig{Sessions: ledger})

	rec, resp := do(router, http.MethodPost, "/admin/sessions/purge")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ledger.calls)
	assert.Equal(t, float64(7), resp.Data.(map[string]any)["deleted"])
}

func TestTenantStats(t *testing.T) {
	router := newRouter(middleware.RoleSystemAdmin, HandlerConfig{Tenants: fakeTenants{}})

	rec, resp := do(router, http.MethodGet, "/admin/stats/tenants")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), resp.Data.(map[string]any)["totalCompanies"])
}
