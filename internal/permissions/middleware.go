package permissions

import (
	"log/slog"
	"net/http"

	"github.com/aldercommerce/alder-admin/internal/platform/httpx"
	"github.com/aldercommerce/alder-admin/internal/shared"
)

// Middleware gates HTTP routes on resolved permissions.
type Middleware struct {
	Resolver *Resolver
	Logger   *slog.Logger
}

// Require ensures the caller holds the given permission.
func (m Middleware) Require(permission string) func(http.Handler) http.Handler {
	return m.RequireAny(permission)
}

// RequireAny ensures the caller holds at least one of the given permissions.
// A request without identity is unauthorized; a resolver failure or an empty
// match denies with a problem payload distinguishing the two.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			id := shared.IdentityFromContext(r.Context())
			if !id.Valid() {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			snap, err := m.Resolver.Resolve(r.Context(), id)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("permission gate resolve", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "permission data unavailable")
				return
			}
			if MatchesAny(snap.Permissions, perms, snap.Priority) {
				next.ServeHTTP(w, r)
				return
			}
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "missing required permission")
		})
	}
}
