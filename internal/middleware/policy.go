// AngelaMos | 2026
// policy.go

package middleware

import (
	"fmt"
	"net/http"

	"github.com/terminar/core-service/internal/core"
)

func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if _, ok := roleSet[identity.Role]; !ok {
				core.JSONError(
					w,
					core.ForbiddenError("insufficient permissions"),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func RequireSystemAdmin(next http.Handler) http.Handler {
	return RequireRole(RoleSystemAdmin)(next)
}

// RequirePermission checks the human permission set by exact membership.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("authentication required"),
				)
				return
			}

			if !identity.HasPermission(permission) {
				core.JSONError(w, core.ForbiddenError(
					fmt.Sprintf("permission '%s' required", permission),
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAPIPermission checks the API key permission set, where "*"
// grants every permission.
func RequireAPIPermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := GetAPIKey(r.Context())
			if key == nil {
				core.JSONError(
					w,
					core.UnauthorizedError("API key authentication required"),
				)
				return
			}

			if !key.HasPermission(permission) {
				core.JSONError(w, core.ForbiddenError(
					fmt.Sprintf("API permission '%s' required", permission),
				))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
