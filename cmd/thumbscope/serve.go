package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"thumbscope/internal/adapters/http/api"
	"thumbscope/internal/adapters/http/swagger"
	"thumbscope/internal/adapters/session"
	"thumbscope/internal/adapters/vision"
	app "thumbscope/internal/app"
	"thumbscope/internal/config"
	"thumbscope/pkg/logger"
	"thumbscope/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 30 * time.Second
	writeTimeout           = 120 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func runServe() error {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return err
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return err
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc, err := buildService(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start service: " + err.Error() + "\n")
		return err
	}
	defer svc.Stop(context.Background())

	go startServiceMetricsUpdater(ctx, svc)
	go startSystemMetricsUpdater(ctx)

	// HTTP mux and routes.
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	apiServer := api.NewServer(svc, svc, api.WithMaxUploadBytes(cfg.MaxUploadBytes))
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Error(ctx, "HTTP server failed", logger.Error(err))
		return err
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// buildService assembles the analysis service from configuration.
func buildService(ctx context.Context, cfg *config.Config, log logger.Logger) (*app.Service, error) {
	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.JobQueueSize),
		app.WithMaxTrackedJobs(cfg.MaxTrackedJobs),
		app.WithDedupeDistance(cfg.DedupeDistance),
		app.WithModeTimeouts(
			time.Duration(cfg.ModelTimeoutQuickMS)*time.Millisecond,
			time.Duration(cfg.ModelTimeoutDeepMS)*time.Millisecond,
		),
	}

	if cfg.ModelAPIKey != "" {
		rater := vision.NewRater(cfg.ModelProvider, cfg.ModelName, cfg.ModelAPIKey, cfg.ModelBaseURL)
		opts = append(opts, app.WithRater(rater))
		log.Info(ctx, "remote model enabled", logger.String("provider", cfg.ModelProvider))
	} else {
		log.Info(ctx, "no model api key set; running heuristics-only")
	}

	if cfg.SessionBackend == config.SessionBackendSQLite {
		store, err := session.NewSQLiteStore(cfg.SessionDBPath)
		if err != nil {
			os.Stderr.WriteString("failed to open session store: " + err.Error() + "\n")
			return nil, err
		}
		opts = append(opts, app.WithSessionStore(store))
		log.Info(ctx, "using sqlite session store", logger.String("path", cfg.SessionDBPath))
	}

	return app.New(opts...), nil
}

// startServiceMetricsUpdater refreshes gauge metrics from service stats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if queueLen, ok := stats["queueLength"].(int); ok {
				metrics.UpdateQueueSize(queueLen)
			}
			if workers, ok := stats["workerCount"].(int); ok {
				metrics.UpdateWorkerCount(workers)
			}
		}
	}
}

// startSystemMetricsUpdater keeps the goroutine gauge fresh.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateGoroutineCount(runtime.NumGoroutine())
		}
	}
}
