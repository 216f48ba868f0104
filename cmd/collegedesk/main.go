package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	remoteadapter "github.com/ericfisherdev/collegedesk/internal/adapter/driven/remote"
	sqliteadapter "github.com/ericfisherdev/collegedesk/internal/adapter/driven/sqlite"
	httphandler "github.com/ericfisherdev/collegedesk/internal/adapter/driving/http"
	webhandler "github.com/ericfisherdev/collegedesk/internal/adapter/driving/web"
	"github.com/ericfisherdev/collegedesk/internal/application"
	"github.com/ericfisherdev/collegedesk/internal/config"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
	"github.com/ericfisherdev/collegedesk/internal/observability/metrics"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

// stores groups the driven adapters selected by configuration.
type stores struct {
	reviews  driven.ReviewStore
	colleges driven.CollegeStore
	profiles driven.ProfileStore
	saved    driven.SavedStore
	close    func() error
}

func run() error {
	// 1. Load configuration (fail fast on invalid env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := cfg.NewLogger()
	slog.SetDefault(logger)
	logger.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"datastore", cfg.Datastore,
		"db_path", cfg.DBPath,
		"tier_cache_ttl", cfg.TierCacheTTL,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Open the configured datastore.
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := st.close(); closeErr != nil {
			logger.Error("error closing datastore", "error", closeErr)
		}
	}()

	// 4. Metrics registry.
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m, err := metrics.New(reg)
	if err != nil {
		return err
	}

	// 5. Application services.
	moderationSvc := application.NewModerationService(st.reviews, logger).WithRecorder(m)
	eligibilitySvc := application.NewEligibilityService(st.colleges, logger).WithRecorder(m)
	entitlementSvc := application.NewEntitlementService(st.profiles, st.saved, cfg.TierCacheTTL, logger)

	// 6. HTTP API and moderation console.
	apiHandler := httphandler.NewHandler(
		moderationSvc,
		eligibilitySvc,
		entitlementSvc,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		logger,
	)
	mux := http.NewServeMux()
	httphandler.RegisterAPIRoutes(mux, apiHandler)

	webHandler := webhandler.NewHandler(moderationSvc, entitlementSvc, logger)
	webhandler.RegisterRoutes(mux, webHandler)

	handler := httphandler.ApplyMiddleware(mux, logger, m)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	logger.Info("collegedesk started", "listen_addr", cfg.ListenAddr, "datastore", cfg.Datastore)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	logger.Info("shutting down")

	// 8. Graceful shutdown with 10s timeout for in-flight requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
	return nil
}

// openStores builds the driven adapters for the configured datastore.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	if cfg.UsesRemote() {
		client, err := remoteadapter.NewClient(cfg.DatastoreURL, cfg.DatastoreKey, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("remote datastore configured", "url", cfg.DatastoreURL)
		return &stores{
			reviews:  remoteadapter.NewReviewRepo(client),
			colleges: remoteadapter.NewCollegeRepo(client),
			profiles: remoteadapter.NewProfileRepo(client),
			saved:    remoteadapter.NewSavedRepo(client),
			close:    func() error { return nil },
		}, nil
	}

	// Dual reader/writer with WAL mode.
	db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	logger.Info("database opened", "path", cfg.DBPath)

	version, err := sqliteadapter.RunMigrations(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("migrations complete", "version", version)

	return &stores{
		reviews:  sqliteadapter.NewReviewRepo(db),
		colleges: sqliteadapter.NewCollegeRepo(db),
		profiles: sqliteadapter.NewProfileRepo(db),
		saved:    sqliteadapter.NewSavedRepo(db),
		close:    db.Close,
	}, nil
}
