package controllers

import (
	"net/http"
	"time"

	"github.com/mvelasco/clipvault/api/middleware"
	"github.com/mvelasco/clipvault/api/responses"
	"github.com/mvelasco/clipvault/api/validators"
	pkgAuth "github.com/mvelasco/clipvault/pkg/auth"
	"github.com/mvelasco/clipvault/pkg/config"
	"github.com/mvelasco/clipvault/pkg/enums"
	pkgerrors "github.com/mvelasco/clipvault/pkg/errors"
	"github.com/mvelasco/clipvault/pkg/logger"
	"github.com/mvelasco/clipvault/pkg/security"
)

type loginRequest struct {
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	Role      string `json:"role"`
	ExpiresAt string `json:"expires_at"`
}

type sessionInfo struct {
	Role    string `json:"role"`
	IsAdmin bool   `json:"is_admin"`
}

// SessionLogin verifies the shared admin credential and mints a session
// token. Wrong passwords get the same error shape as other auth failures.
func SessionLogin(cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ok, err := security.VerifyPassword(body.Password, cfg.Auth.AdminPasswordHash)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify credential"))
			return
		}
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid password"))
			return
		}

		now := time.Now().UTC()
		token, err := pkgAuth.MintSessionToken(cfg.JWT, now, pkgAuth.SessionTokenPayload{Role: enums.RoleAdmin})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt"))
			return
		}

		if logg != nil {
			logg.Info(r.Context(), "session.login")
		}

		expiresAt := now.Add(time.Duration(cfg.JWT.ExpirationMinutes) * time.Minute)
		responses.WriteSuccess(w, loginResponse{
			Token:     token,
			Role:      string(enums.RoleAdmin),
			ExpiresAt: expiresAt.Format(time.RFC3339),
		})
	}
}

// SessionMe reports the role resolved for the current request.
func SessionMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role := middleware.RoleFromContext(r.Context())
		responses.WriteSuccess(w, sessionInfo{
			Role:    string(role),
			IsAdmin: role.IsAdmin(),
		})
	}
}
