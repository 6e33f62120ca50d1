// AngelaMos | 2026
// handler_test.go

package company

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terminar/core-service/internal/core"
	"github.com/terminar/core-service/internal/middleware"
)

func asIdentity(id *middleware.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), id)))
		})
	}
}

func passthrough(next http.Handler) http.Handler { return next }

func newTestRouter(repo *fakeRepo, id *middleware.Identity) http.Handler {
	r := chi.NewRouter()
	NewHandler(NewService(repo, nil)).RegisterRoutes(r, asIdentity(id), passthrough)
	return r
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) core.Response {
	t.Helper()
	var resp core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestPublicProfileRoute(t *testing.T) {
	router := newTestRouter(newFakeRepo(acme()), nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/public/acme", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.True(t, resp.Success)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "Acme", data["name"])
	assert.Equal(t, "salon", data["category"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/public/nobody", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSystemAdminRoutesRejectTenants(t *testing.T) {
	admin := &middleware.Identity{
		Kind:      middleware.KindUser,
		UserID:    "u-1",
		Role:      middleware.RoleAdmin,
		CompanyID: "c-1",
	}
	router := newTestRouter(newFakeRepo(acme()), admin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/companies/all", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteWithUsersIsBadRequest(t *testing.T) {
	repo := newFakeRepo(acme())
	repo.users["c-1"] = 1
	sysAdmin := &middleware.Identity{
		Kind:   middleware.KindUser,
		UserID: "root",
		Role:   middleware.RoleSystemAdmin,
	}
	router := newTestRouter(repo, sysAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/companies/c-1", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, ErrHasUsers.Error(), resp.Error.Message)
}

func TestUpdateSettingsRequiresManager(t *testing.T) {
	member := &middleware.Identity{
		Kind:      middleware.KindUser,
		UserID:    "u-2",
		Role:      middleware.RoleUser,
		CompanyID: "c-1",
	}
	router := newTestRouter(newFakeRepo(acme()), member)

	body := `{"settings":{"theme":"light"}}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPut, "/companies/settings", strings.NewReader(body)))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	member.Role = middleware.RoleManager
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodPut, "/companies/settings", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)

	settings := decode(t, rec).Data.(map[string]any)["settings"].(map[string]any)
	assert.Equal(t, "light", settings["theme"])
	assert.Equal(t, "salon", settings["category"])
}

func TestListAllPaginates(t *testing.T) {
	sysAdmin := &middleware.Identity{Kind: middleware.KindUser, Role: middleware.RoleSystemAdmin}
	router := newTestRouter(newFakeRepo(acme()), sysAdmin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(
		http.MethodGet, "/companies/all?page=0&pageSize=1000", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 1, resp.Pagination.Page)
	assert.Equal(t, 100, resp.Pagination.PageSize)
	assert.Equal(t, 1, resp.Pagination.Total)
}
