package middleware

import (
	"net/http"

	"github.com/mvelasco/clipvault/api/responses"
	pkgerrors "github.com/mvelasco/clipvault/pkg/errors"
	"github.com/mvelasco/clipvault/pkg/logger"
)

// RequireAdmin rejects requests whose session does not carry the admin role.
// Anonymous requests are unauthorized; requests that presented a valid
// non-admin token are forbidden.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !RoleFromContext(ctx).IsAdmin() {
				err := pkgerrors.New(pkgerrors.CodeUnauthorized, "admin session required")
				if SessionIDFromContext(ctx) != "" {
					err = pkgerrors.New(pkgerrors.CodeForbidden, "admin role required")
				}
				responses.WriteError(ctx, logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
