package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/tribescore/internal/adapters/http/api"
	"github.com/okian/tribescore/internal/adapters/seasonfile"
	app "github.com/okian/tribescore/internal/app"
	"github.com/okian/tribescore/internal/config"
	"github.com/okian/tribescore/internal/domain/scoring"
	"github.com/okian/tribescore/pkg/logger"
	"github.com/okian/tribescore/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logger.Get().Error(ctx, "tribescore exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	log := logger.Get()

	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	svc := newService(cfg, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := svc.Stop(stopCtx); err != nil {
			log.Error(ctx, "service shutdown failed", logger.Error(err))
		}
	}()

	if cfg.SeasonFile != "" {
		if err := submitSeason(ctx, svc, cfg.SeasonFile); err != nil {
			return err
		}
	}

	go func() {
		if err := metrics.CollectSystem(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn(ctx, "system metrics collector stopped", logger.Error(err))
		}
	}()

	srv := newHTTPServer(ctx, cfg, svc)
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
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

// newService maps configuration onto the compile service.
func newService(cfg *config.Config, log logger.Logger) *app.Service {
	return app.New(
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithMaxStandingsLimit(cfg.MaxStandingsLimit),
		app.WithCompilerOptions(
			scoring.WithSurvivalCap(cfg.SurvivalCap),
			scoring.WithPreserveStreak(cfg.PreserveStreak),
			scoring.WithTribePointsToCastaways(cfg.TribePointsToCastaways),
		),
	)
}

// submitSeason queues the configured season file for compilation. The
// path doubles as the request key so a restart with the same file is not
// compiled twice by one process.
func submitSeason(ctx context.Context, svc *app.Service, path string) error {
	in, err := seasonfile.Load(path)
	if err != nil {
		return fmt.Errorf("season file: %w", err)
	}
	id, err := svc.Submit(ctx, path, in)
	if err != nil {
		return fmt.Errorf("submit season file: %w", err)
	}
	logger.Get().Info(ctx, "season file queued",
		logger.String("path", path),
		logger.String("league_id", in.LeagueID),
		logger.String("job_id", id),
	)
	return nil
}

func newHTTPServer(ctx context.Context, cfg *config.Config, svc *app.Service) *http.Server {
	mux := http.NewServeMux()
	api.NewServer(svc).Register(ctx, mux)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
