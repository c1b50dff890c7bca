package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/mvelasco/clipvault/api/responses"
	"github.com/mvelasco/clipvault/pkg/config"
	pkgerrors "github.com/mvelasco/clipvault/pkg/errors"
	"github.com/mvelasco/clipvault/pkg/logger"
)

const readyCheckTimeout = 3 * time.Second

// Pinger is the health-check surface shared by the database, blob store and
// optional Redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ClipVault-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady verifies every wired dependency. Nil pingers are skipped so
// optional backends do not fail readiness when disabled.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-ClipVault-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readyCheckTimeout)
		defer cancel()

		status := map[string]string{}
		for name, pinger := range checks {
			if pinger == nil {
				status[name] = "disabled"
				continue
			}
			if err := pinger.Ping(ctx); err != nil {
				status[name] = "unavailable"
				responses.WriteError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, name+" unavailable").WithDetails(status))
				return
			}
			status[name] = "ready"
		}

		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": status})
	}
}
