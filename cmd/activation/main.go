// Package main is the entry point for the activation worker. It wires the
// collaborators together, runs a single change-request activation, and
// exits.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/netgrid/activation/internal/backend"
	"github.com/netgrid/activation/internal/config"
	"github.com/netgrid/activation/internal/incident"
	"github.com/netgrid/activation/internal/journal"
	"github.com/netgrid/activation/internal/observability"
	"github.com/netgrid/activation/internal/workflow"
	"github.com/netgrid/activation/model"
)

// Build-time variables set via ldflags:
//
//	go build -ldflags "-X main.version=1.0.0 -X main.commit=abc1234"
var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return 1
	}

	observability.Version = version
	observability.Commit = commit

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	tracingShutdown, err := observability.InitTracing(ctx, cfg.Observability.Tracing, "activation-worker", version)
	if err != nil {
		logger.Error("tracing initialization failed", zap.Error(err))
		return 1
	}

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	store, storeCloser, err := buildJournalStore(ctx, cfg.Journal, logger)
	if err != nil {
		logger.Error("journal store initialization failed", zap.Error(err))
		return 1
	}

	// Collaborators. The stubs stand in for real device, change system,
	// artifact store, and incident system integrations.
	devices := backend.NewStubDeviceService(cfg.Faults, logger)
	changes := backend.NewStubChangeSystem(cfg.Faults, logger)
	artifacts := backend.NewStubArtifactStore(cfg.Faults, logger)
	incidents := backend.NewStubIncidentSystem(cfg.Faults, logger)

	inst := model.NewWorkflowInstance(cfg.Workflow.ESPInstance, cfg.Workflow.ChangeRequest)
	worker := workflow.NewWorker(inst, devices, changes, artifacts, logger)
	reporter := incident.NewReporter(incidents, store, metrics, logger)
	dispatcher := workflow.NewDispatcher(worker, reporter, store, metrics, logger, cfg.Workflow.RecoveryBackoff)
	sequencer := workflow.NewSequencer(worker, dispatcher, store, metrics, logger)

	adminSrv := startAdminServer(cfg.Observability.Admin, store, logger)

	logger.Info("activation worker started",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("esp_instance", inst.ESPInstance),
		zap.String("change_request", inst.ChangeRequest),
	)

	runErr := sequencer.Run(ctx, worker.Sequence())

	logger.Info("activation finished",
		zap.String("change_state", string(inst.ChangeState)),
		zap.String("activation_state", string(inst.ActivationState)),
		zap.String("outcome", inst.Outcome),
	)

	// Graceful shutdown sequence.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if adminSrv != nil {
		if err := adminSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("admin server shutdown error", zap.Error(err))
		}
	}
	if storeCloser != nil {
		storeCloser()
	}
	if err := tracingShutdown(shutdownCtx); err != nil {
		logger.Error("tracing shutdown error", zap.Error(err))
	}

	if runErr != nil {
		logger.Error("activation run aborted", zap.Error(runErr))
		return 1
	}
	return 0
}

// buildJournalStore creates the journal store based on config.
func buildJournalStore(ctx context.Context, cfg config.JournalConfig, logger *zap.Logger) (journal.Store, func(), error) {
	switch cfg.Driver {
	case "memory", "":
		logger.Info("using in-memory journal store")
		return journal.NewMemoryStore(), nil, nil
	case "postgres":
		dsn := os.Getenv(cfg.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("journal store: %s environment variable not set", cfg.DSNEnv)
		}

		poolCfg, err := pgxpool.ParseConfig(dsn)
		if err != nil {
			return nil, nil, fmt.Errorf("journal store: parse DSN: %w", err)
		}
		poolCfg.MaxConns = int32(cfg.MaxOpenConns)
		poolCfg.MinConns = int32(cfg.MaxIdleConns)
		poolCfg.MaxConnLifetime = cfg.ConnMaxLifetime

		pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("journal store: connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("journal store: ping: %w", err)
		}

		return journal.NewPgStore(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported journal store driver: %q", cfg.Driver)
	}
}

// startAdminServer starts the health/metrics listener if enabled. The
// listener only observes; the workflow runs regardless of its state.
func startAdminServer(cfg config.AdminConfig, store journal.Store, logger *zap.Logger) *http.Server {
	if !cfg.Enabled {
		return nil
	}

	checks := observability.ReadinessChecks{}
	if hc, ok := store.(observability.HealthChecker); ok {
		checks.Journal = hc
	}

	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	router := chi.NewRouter()
	router.Get("/healthz", observability.HandleHealth())
	router.Get("/readyz", observability.HandleReady(checks))
	router.Handle(metricsPath, observability.Handler())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("admin server error", zap.Error(err))
		}
	}()

	logger.Info("admin server started", zap.Int("port", cfg.Port))
	return srv
}
