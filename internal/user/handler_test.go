// AngelaMos | 2026
// handler_test.go

package user

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

func asCaller(id *middleware.Identity) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithIdentity(r.Context(), id)))
		})
	}
}

func noop(next http.Handler) http.Handler { return next }

func newTestRouter(repo *fakeRepo, caller *middleware.Identity) http.Handler {
	svc, _ := newTestService(repo, &fakeCompanies{})
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, asCaller(caller), noop)
	return r
}

func send(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateUserRouteIsAdminOnly(t *testing.T) {
	admin := member("u-1", RoleAdmin)
	worker := member("u-2", RoleUser)
	repo := newFakeRepo(admin, worker)

	body := `{"email":"new@acme.sk","password":"secret1","firstName":"Nova","lastName":"Novak"}`

	rec := send(newTestRouter(repo, callerFor(worker)), http.MethodPost, "/users", body)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(newTestRouter(repo, callerFor(admin)), http.MethodPost, "/users", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	created := resp.Data.(map[string]any)["user"].(map[string]any)
	assert.Equal(t, "new@acme.sk", created["email"])
	assert.Equal(t, RoleUser, created["role"])

	rec = send(newTestRouter(repo, callerFor(admin)), http.MethodPost, "/users", body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetUserAcrossTenantsIsForbidden(t *testing.T) {
	admin := member("u-1", RoleAdmin)
	outsider := member("u-9", RoleUser)
	other := "c-2"
	outsider.CompanyID = &other
	repo := newFakeRepo(admin, outsider)

	router := newTestRouter(repo, callerFor(admin))

	assert.Equal(t, http.StatusForbidden, send(router, http.MethodGet, "/users/u-9", "").Code)
	assert.Equal(t, http.StatusNotFound, send(router, http.MethodGet, "/users/missing", "").Code)
	assert.Equal(t, http.StatusOK, send(router, http.MethodGet, "/users/u-1", "").Code)
}

func TestRoleRouteGuards(t *testing.T) {
	admin := member("u-1", RoleAdmin)
	peer := member("u-2", RoleAdmin)
	peer.IsActive = false
	repo := newFakeRepo(admin, peer)

	router := newTestRouter(repo, callerFor(admin))

	rec := send(router, http.MethodPut, "/users/u-1/role", `{"role":"user"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = send(router, http.MethodPut, "/users/u-2/role", `{"role":"owner"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeactivateRouteRevokesSessions(t *testing.T) {
	admin := member("u-1", RoleAdmin)
	worker := member("u-2", RoleUser)
	repo := newFakeRepo(admin, worker)

	svc, revoker := newTestService(repo, &fakeCompanies{})
	r := chi.NewRouter()
	NewHandler(svc).RegisterRoutes(r, asCaller(callerFor(admin)), noop)

	rec := send(r, http.MethodPut, "/users/u-2/deactivate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"u-2"}, revoker.revoked)
	assert.False(t, repo.users["u-2"].IsActive)

	rec = send(r, http.MethodPut, "/users/u-1/deactivate", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatsRouteNeedsManager(t *testing.T) {
	worker := member("u-2", RoleUser)
	manager := member("u-3", RoleManager)
	repo := newFakeRepo(worker, manager)

	assert.Equal(t, http.StatusForbidden,
		send(newTestRouter(repo, callerFor(worker)), http.MethodGet, "/users/stats", "").Code)
	assert.Equal(t, http.StatusOK,
		send(newTestRouter(repo, callerFor(manager)), http.MethodGet, "/users/stats", "").Code)
}

func TestListUsersRoute(t *testing.T) {
	repo := newFakeRepo(member("u-1", RoleAdmin))

	rec := send(newTestRouter(repo, callerFor(repo.users["u-1"])), http.MethodGet, "/users?page=0&limit=500", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp core.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Pagination)
	assert.Equal(t, 1, resp.Pagination.Page)
}
