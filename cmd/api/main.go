package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mvelasco/clipvault/api/controllers"
	"github.com/mvelasco/clipvault/api/routes"
	"github.com/mvelasco/clipvault/internal/analysis"
	"github.com/mvelasco/clipvault/internal/blob"
	"github.com/mvelasco/clipvault/internal/thumbnail"
	"github.com/mvelasco/clipvault/internal/videos"
	"github.com/mvelasco/clipvault/pkg/config"
	"github.com/mvelasco/clipvault/pkg/db"
	"github.com/mvelasco/clipvault/pkg/logger"
	"github.com/mvelasco/clipvault/pkg/metrics"
	"github.com/mvelasco/clipvault/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	repo := videos.NewRepository(dbClient.DB())
	if err := repo.Migrate(context.Background()); err != nil {
		logg.Error(context.Background(), "failed to migrate database", err)
		os.Exit(1)
	}

	blobs, err := blob.NewStore(cfg.Blob.Dir)
	if err != nil {
		logg.Error(context.Background(), "failed to open blob store", err)
		os.Exit(1)
	}

	checks := map[string]controllers.Pinger{
		"database":   dbClient,
		"blob_store": blobs,
	}

	var rateLimiter routes.RateLimiterStore
	if cfg.Redis.URL != "" {
		redisClient, err := redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
		rateLimiter = redisClient
		checks["redis"] = redisClient
	}

	registry := prometheus.NewRegistry()

	videoService, err := videos.NewService(videos.ServiceParams{
		Metadata: repo,
		Blobs:    blobs,
		Thumbs:   thumbnail.NewExtractor(cfg.Thumbnail),
		Analyzer: analysis.NewClient(cfg.Analysis, logg),
		Logger:   logg,
		Metrics:  metrics.NewUploadMetrics(registry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create video service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		logg.Error(ctx, "failed to bind listener", err)
		os.Exit(1)
	}

	server := &http.Server{
		Handler: routes.NewRouter(routes.Deps{
			Config:       cfg,
			Logger:       logg,
			VideoService: videoService,
			RateLimiter:  rateLimiter,
			HealthChecks: checks,
			Metrics:      registry,
		}),
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(runCtx, server, ln, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "api server stopped")
}
