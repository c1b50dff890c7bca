package middleware

import (
	"net/http"
	"strings"

	"github.com/mvelasco/clipvault/api/responses"
	pkgAuth "github.com/mvelasco/clipvault/pkg/auth"
	"github.com/mvelasco/clipvault/pkg/config"
	"github.com/mvelasco/clipvault/pkg/enums"
	pkgerrors "github.com/mvelasco/clipvault/pkg/errors"
	"github.com/mvelasco/clipvault/pkg/logger"
)

// Session resolves the optional bearer token into a role. An absent token is
// a valid guest request; a token that is present but invalid is rejected so
// a client never silently loses admin status mid-session.
func Session(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithRole(r.Context(), enums.RoleGuest)

			token := bearerToken(r)
			if token != "" {
				claims, err := pkgAuth.ParseSessionToken(cfg, token)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid session token"))
					return
				}
				ctx = WithRole(ctx, claims.Role)
				ctx = withSessionID(ctx, claims.ID)
			}

			if logg != nil {
				ctx = logg.WithActorRole(ctx, string(RoleFromContext(ctx)))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
