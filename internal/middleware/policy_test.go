// AngelaMos | 2026
// policy_test.go

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func serveWith(h http.Handler, id *Identity, key *APIKeyPrincipal) int {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := r.Context()
	if id != nil {
		ctx = WithIdentity(ctx, id)
	}
	if key != nil {
		ctx = WithAPIKey(ctx, key)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r.WithContext(ctx))
	return rec.Code
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(RoleAdmin, RoleManager)(ok())

	assert.Equal(t, http.StatusUnauthorized, serveWith(h, nil, nil))
	assert.Equal(t, http.StatusForbidden, serveWith(h, &Identity{Role: RoleUser}, nil))
	assert.Equal(t, http.StatusOK, serveWith(h, &Identity{Role: RoleManager}, nil))
	assert.Equal(t, http.StatusOK, serveWith(h, &Identity{Role: RoleAdmin}, nil))
}

func TestRequireRoleHasNoHierarchy(t *testing.T) {
	h := RequireRole(RoleAdmin)(ok())
	assert.Equal(t, http.StatusForbidden, serveWith(h, &Identity{Role: RoleSystemAdmin}, nil))
}

func TestRequireSystemAdmin(t *testing.T) {
	assert.Equal(t, http.StatusForbidden,
		serveWith(RequireSystemAdmin(ok()), &Identity{Role: RoleAdmin}, nil))
	assert.Equal(t, http.StatusOK,
		serveWith(RequireSystemAdmin(ok()), &Identity{Role: RoleSystemAdmin}, nil))
}

func TestRequirePermissionIsExact(t *testing.T) {
	h := RequirePermission("reports:read")(ok())

	assert.Equal(t, http.StatusUnauthorized, serveWith(h, nil, nil))
	assert.Equal(t, http.StatusForbidden,
		serveWith(h, &Identity{Permissions: []string{PermissionWildcard}}, nil))
	assert.Equal(t, http.StatusOK,
		serveWith(h, &Identity{Permissions: []string{"reports:read"}}, nil))
}

func TestRequireAPIPermission(t *testing.T) {
	h := RequireAPIPermission("users:read")(ok())

	human := &Identity{Kind: KindUser, Role: RoleAdmin, Permissions: []string{"users:read"}}
	assert.Equal(t, http.StatusUnauthorized, serveWith(h, human, nil))

	assert.Equal(t, http.StatusForbidden,
		serveWith(h, nil, &APIKeyPrincipal{Permissions: []string{"logs:write"}}))
	assert.Equal(t, http.StatusOK,
		serveWith(h, nil, &APIKeyPrincipal{Permissions: []string{"users:read"}}))
	assert.Equal(t, http.StatusOK,
		serveWith(h, nil, &APIKeyPrincipal{Permissions: []string{PermissionWildcard}}))
}

func TestCanAccessCompany(t *testing.T) {
	var nobody *Identity
	assert.False(t, nobody.CanAccessCompany("c-1"))

	member := &Identity{Role: RoleAdmin, CompanyID: "c-1"}
	assert.True(t, member.CanAccessCompany("c-1"))
	assert.False(t, member.CanAccessCompany("c-2"))

	orphan := &Identity{Role: RoleUser}
	assert.False(t, orphan.CanAccessCompany(""))

	root := &Identity{Role: RoleSystemAdmin}
	assert.True(t, root.CanAccessCompany("c-2"))

	svc := ServiceIdentity(&APIKeyPrincipal{CompanyID: "c-1"})
	assert.True(t, svc.CanAccessCompany("c-1"))
	assert.False(t, svc.CanAccessCompany("c-2"))
}

func TestMergeIdentityPrefersRow(t *testing.T) {
	claims := &AccessTokenClaims{
		UserID:      "u-1",
		CompanyID:   "c-1",
		Role:        RoleAdmin,
		Permissions: []string{"*"},
	}
	row := &UserRecord{ID: "u-1", Role: RoleUser, IsActive: true}

	id := MergeIdentity(claims, row)
	assert.Equal(t, RoleUser, id.Role)
	assert.Empty(t, id.CompanyID)
	assert.Equal(t, []string{}, id.Permissions)

	fromClaims := MergeIdentity(claims, nil)
	assert.Equal(t, "c-1", fromClaims.CompanyID)
	assert.Equal(t, RoleAdmin, fromClaims.Role)
}
