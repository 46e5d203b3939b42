package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/stemsi/partnermap/internal/config"
	"github.com/stemsi/partnermap/internal/database"
	"github.com/stemsi/partnermap/internal/handler"
	"github.com/stemsi/partnermap/internal/logger"
	"github.com/stemsi/partnermap/internal/mapview"
	"github.com/stemsi/partnermap/internal/metrics"
	"github.com/stemsi/partnermap/internal/middleware"
	"github.com/stemsi/partnermap/internal/repository"
	"github.com/stemsi/partnermap/internal/router"
	"github.com/stemsi/partnermap/internal/service"
	"github.com/stemsi/partnermap/internal/source"
	"github.com/stemsi/partnermap/internal/store"
	"github.com/stemsi/partnermap/internal/validator"
	"github.com/stemsi/partnermap/internal/web"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Str("data_source", cfg.DataSource).
		Msg("Starting partnership dashboard")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	fetcher, err := source.NewFetcher(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create data fetcher")
	}

	// ─── Connect to PostgreSQL (database sources only) ─────────────────
	var pool *pgxpool.Pool
	var reader store.RecordReader
	if store.IsDatabaseSource(cfg.DataSource) {
		pool, err = database.NewPostgresPool(ctx, cfg.DataSource, cfg.MaxDBConns, log)
		if err != nil {
			log.Error().Err(err).Msg("Failed to connect to PostgreSQL")
		} else {
			defer pool.Close()
			reader = repository.NewPartnershipRepository(pool)
		}
	}

	// ─── Load Record Store ─────────────────────────────────────────────
	loadCtx, loadCancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	st, loadErr := store.NewLoader(fetcher, reader, log).Load(loadCtx, cfg.DataSource)
	loadCancel()
	if loadErr != nil {
		log.Error().Err(loadErr).Msg("Partnership data could not be loaded; serving an empty dashboard")
		st = store.Empty()
	}

	// ─── Load Country Boundaries ───────────────────────────────────────
	boundaries := loadBoundaries(ctx, cfg, fetcher, logger.Component(log, "boundaries"), st)

	// ─── Connect to Redis (optional cache) ─────────────────────────────
	var cache service.ResultCache
	if cfg.RedisURL != "" {
		rdb, err := database.NewRedisClient(ctx, cfg.RedisURL, log)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, filter cache disabled")
		} else {
			defer rdb.Close()
			cache = service.NewRedisCache(rdb)
		}
	}

	// ─── Initialize Services ──────────────────────────────────────────
	dashboardService := service.NewDashboardService(st, boundaries, cache, m, cfg, log)
	if loadErr != nil {
		dashboardService.MarkUnavailable(loadErr)
	}

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Dashboard: handler.NewDashboardHandler(dashboardService, cfg, log),
		Record:    handler.NewRecordHandler(dashboardService),
		Map:       handler.NewMapHandler(dashboardService),
		Table:     handler.NewTableHandler(dashboardService),
		System:    handler.NewSystemHandler(dashboardService),
	}

	opts := router.Options{
		Metrics:        m,
		Templates:      web.MustTemplates(),
		DatasetVersion: st.Version(),
	}
	if cfg.RateLimitPerMinute > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)
		defer limiter.Stop()
		opts.RateLimiter = limiter
	}

	// ─── Setup Router ──────────────────────────────────────────────────
	r := router.SetupRouter(handlers, cfg, opts)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}

// loadBoundaries fetches the country shapes. Without them the map still
// shows markers; country lookups count zero.
func loadBoundaries(ctx context.Context, cfg *config.Config, fetcher *source.Fetcher, log zerolog.Logger, st *store.Store) *mapview.Boundaries {
	if cfg.BoundariesSource == "" {
		return mapview.EmptyBoundaries()
	}

	fetchCtx, cancel := context.WithTimeout(ctx, cfg.FetchTimeout)
	defer cancel()

	obj, err := fetcher.Fetch(fetchCtx, cfg.BoundariesSource)
	if err != nil {
		log.Warn().Err(err).Str("source", cfg.BoundariesSource).Msg("Country boundaries unavailable")
		return mapview.EmptyBoundaries()
	}
	b, err := mapview.ParseBoundaries(obj.Body)
	if err != nil {
		log.Warn().Err(err).Str("source", cfg.BoundariesSource).Msg("Country boundaries unreadable")
		return mapview.EmptyBoundaries()
	}

	if unmatched := b.Unmatched(st.All()); len(unmatched) > 0 {
		log.Warn().Strs("countries", unmatched).Msg("Countries without a map shape")
	}
	log.Info().Int("countries", b.Len()).Msg("Country boundaries loaded")
	return b
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
