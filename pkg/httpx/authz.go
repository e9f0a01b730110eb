package httpx

import (
	"net/http"
	"slices"
)

// RequireRole lets the request through only if the caller's role claim is one
// of roles. It must run after AuthnMiddleware.
func RequireRole(roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(roles, roleFromCtx(r.Context())) {
				WriteError(w, http.StatusForbidden, "insufficient_role", "This operation requires a different role.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
