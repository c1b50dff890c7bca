package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mvelasco/clipvault/api/controllers"
	"github.com/mvelasco/clipvault/api/middleware"
	"github.com/mvelasco/clipvault/internal/videos"
	"github.com/mvelasco/clipvault/pkg/config"
	"github.com/mvelasco/clipvault/pkg/logger"
)

// RateLimiterStore is the counter surface backing the login throttle. A nil
// store disables throttling.
type RateLimiterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	VideoService *videos.Service
	RateLimiter  RateLimiterStore
	HealthChecks map[string]controllers.Pinger
	Metrics      prometheus.Gatherer
}

func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewLoginRateLimitPolicy(
		deps.Config.LoginRateLimit.Window,
		deps.Config.LoginRateLimit.IPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(deps.Config))
		r.Get("/ready", controllers.HealthReady(deps.Config, deps.Logger, deps.HealthChecks))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Session(deps.Config.JWT, deps.Logger))

		r.Route("/session", func(r chi.Router) {
			r.With(middleware.LoginRateLimit(loginPolicy, deps.RateLimiter, deps.Logger)).
				Post("/login", controllers.SessionLogin(deps.Config, deps.Logger))
			r.Get("/me", controllers.SessionMe())
		})

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", controllers.VideoList(deps.VideoService, deps.Logger))
			r.Get("/{videoId}", controllers.VideoDetail(deps.VideoService, deps.Logger))
			r.Get("/{videoId}/media", controllers.VideoMedia(deps.VideoService, deps.Logger))
			r.Post("/{videoId}/comments", controllers.CommentCreate(deps.VideoService, deps.Logger))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(deps.Logger))
				r.Post("/", controllers.VideoUpload(deps.VideoService, deps.Logger))
				r.Delete("/", controllers.VideoDeleteAll(deps.VideoService, deps.Logger))
				r.Delete("/{videoId}", controllers.VideoDelete(deps.VideoService, deps.Logger))
			})
		})
	})

	return r
}
