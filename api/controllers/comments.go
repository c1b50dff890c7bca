package controllers

import (
	"net/http"

	"github.com/mvelasco/clipvault/api/middleware"
	"github.com/mvelasco/clipvault/api/responses"
	"github.com/mvelasco/clipvault/api/validators"
	"github.com/mvelasco/clipvault/internal/videos"
	"github.com/mvelasco/clipvault/pkg/logger"
)

type commentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// CommentCreate appends one comment to a video. Guests may comment; the
// author label comes from the session role.
func CommentCreate(service *videos.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := videoIDFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body commentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comment, err := service.AddComment(r.Context(), id, body.Text, middleware.RoleFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, comment)
	}
}
