package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/willcagas/goose-trials-sub001/internal/adapters/cache"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/database"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/api"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/http/auth"
	"github.com/willcagas/goose-trials-sub001/internal/adapters/repository"
	app "github.com/willcagas/goose-trials-sub001/internal/app"
	"github.com/willcagas/goose-trials-sub001/internal/config"
	"github.com/willcagas/goose-trials-sub001/pkg/logger"
	"github.com/willcagas/goose-trials-sub001/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 15 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := configureLogging(cfg); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
	}

	if err := run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

func configureLogging(cfg *config.Config) error {
	if cfg.LogFormat == string(logger.FormatJSON) {
		if err := logger.Init(logger.WithFormat(logger.FormatJSON)); err != nil {
			return err
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
		return err
	}
	return nil
}

// run serves until ctx is canceled, then shuts down within cfg.ShutdownTimeout.
func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	store, closeStore, err := buildStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	respCache, err := buildCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := respCache.Close(); err != nil {
			log.Warn(ctx, "cache close failed", logger.Error(err))
		}
	}()

	svc := newService(cfg, store, respCache)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}

	metricsCtx, stopMetrics := context.WithCancel(ctx)
	defer stopMetrics()
	go startSystemMetricsUpdater(metricsCtx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newAPIServer(cfg, svc).Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	log.Info(ctx, "starting HTTP server",
		logger.String("addr", cfg.Addr),
		logger.String("store", cfg.Store),
		logger.Bool("cache", cfg.RedisAddr != ""))
	return serve(ctx, srv, svc, cfg.ShutdownTimeout)
}

// stopper drains background work on shutdown.
type stopper interface {
	Stop(ctx context.Context) error
}

// serve runs srv until ctx is canceled or the listener fails. Either way the
// server is shut down and svc is stopped before returning.
func serve(ctx context.Context, srv *http.Server, svc stopper, shutdownTimeout time.Duration) error {
	log := logger.Get()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			runErr = fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	if err := svc.Stop(shutdownCtx); err != nil {
		log.Error(ctx, "service shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return runErr
}

func buildStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	if cfg.Store != config.StorePostgres {
		return repository.NewMemoryStore(), func() {}, nil
	}
	if cfg.AutoMigrate {
		if err := database.MigrateUp(ctx, cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
	}
	db, err := database.NewConnection(ctx, cfg.DatabaseURL, database.WithMaxConns(int32(cfg.DBMaxConns)))
	if err != nil {
		return nil, nil, err
	}
	return repository.NewPostgresStore(db), db.Close, nil
}

func buildCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.RedisAddr == "" {
		return cache.NopCache{}, nil
	}
	return cache.NewRedisCache(ctx, cfg.RedisAddr,
		cache.WithPassword(cfg.RedisPassword),
		cache.WithDB(cfg.RedisDB),
		cache.WithTTL(cfg.CacheTTL))
}

func newService(cfg *config.Config, store repository.Store, c cache.Cache) *app.Service {
	return app.New(
		app.WithLogger(logger.Named("service")),
		app.WithStore(store),
		app.WithCache(c),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.EventQueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithCurvePoints(cfg.CurvePoints),
		app.WithLeaderboardLimits(cfg.DefaultLeaderboardLimit, cfg.MaxLeaderboardLimit),
		app.WithUserTags(cfg.UserTags),
		app.WithBannedTerms(cfg.BannedTerms),
	)
}

func newAPIServer(cfg *config.Config, svc *app.Service) *api.Server {
	opts := []api.Option{
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithRateLimiter(auth.NewIPRateLimiter(rate.Limit(cfg.SubmitRate), cfg.SubmitBurst)),
	}
	if cfg.JWTSecret != "" {
		var vopts []auth.Option
		if cfg.JWTAudience != "" {
			vopts = append(vopts, auth.WithAudience(cfg.JWTAudience))
		}
		opts = append(opts, api.WithVerifier(auth.NewVerifier(cfg.JWTSecret, vopts...)))
	}
	return api.NewServer(svc, svc, opts...)
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
