// Command jamsim-server serves the equilibrium engine over a JSON HTTP API,
// with Prometheus metrics on a dedicated listener and optional OTLP tracing
// and SQLite persistence.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/signalsfoundry/spectrum-deception-sim/internal/httpapi"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/observability"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/persistence"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/registry"
)

// Config carries everything run needs besides the listener.
type Config struct {
	// MetricsAddress is the Prometheus /metrics listener; empty disables
	// the listener and registers collectors against a private registry so
	// repeated in-process starts do not collide.
	MetricsAddress string
	// DBPath enables SQLite persistence of runs and sweeps when non-empty.
	DBPath string
	// SweepWorkers bounds each sweep's solver pool; zero picks one per CPU.
	SweepWorkers int
}

func main() {
	apiAddr := flag.String("api-addr", ":8080", "TCP address the JSON API listens on")
	metricsAddr := flag.String("metrics-addr", ":9090", "HTTP address for Prometheus /metrics")
	dbPath := flag.String("db", "", "SQLite database for run and sweep persistence (empty disables)")
	sweepWorkers := flag.Int("sweep-workers", 0, "Solver pool size per sweep (0 picks one per CPU)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	lis, err := net.Listen("tcp", *apiAddr)
	if err != nil {
		log.Error(ctx, "failed to listen for API", logging.String("addr", *apiAddr), logging.Err(err))
		os.Exit(1)
	}

	cfg := Config{
		MetricsAddress: *metricsAddr,
		DBPath:         *dbPath,
		SweepWorkers:   *sweepWorkers,
	}
	if err := run(ctx, cfg, log, lis); err != nil {
		log.Error(ctx, "server exited", logging.Err(err))
		os.Exit(1)
	}
}

// run wires the full serving stack onto lis and blocks until ctx is
// cancelled or the listener fails, then shuts everything down.
func run(ctx context.Context, cfg Config, log logging.Logger, lis net.Listener) error {
	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), log)
	if err != nil {
		return fmt.Errorf("initialise tracing: %w", err)
	}

	var reg prometheus.Registerer
	if cfg.MetricsAddress == "" {
		reg = prometheus.NewRegistry()
	}
	apiCollector, err := observability.NewAPICollector(reg)
	if err != nil {
		return fmt.Errorf("initialise API metrics: %w", err)
	}
	solverCollector, err := observability.NewSolverCollector(reg)
	if err != nil {
		return fmt.Errorf("initialise solver metrics: %w", err)
	}

	var store *persistence.Store
	if cfg.DBPath != "" {
		store, err = persistence.Open(cfg.DBPath)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer store.Close()
		log.Info(ctx, "persistence enabled", logging.String("path", cfg.DBPath))
	}

	var metricsSrv *http.Server
	if cfg.MetricsAddress != "" {
		metricsSrv = serveMetrics(cfg.MetricsAddress, apiCollector, log)
	}

	api := httpapi.New(httpapi.Config{
		Logger:       log,
		Registry:     registry.New(nil),
		Store:        store,
		API:          apiCollector,
		Solver:       solverCollector,
		SweepWorkers: cfg.SweepWorkers,
	})

	srv := &http.Server{Handler: api.Handler()}

	log.Info(ctx, "starting JSON API server", logging.String("addr", lis.Addr().String()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(lis)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve API: %w", err)
		}
	}

	log.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	observability.ShutdownWithTimeout(shutdownCtx, shutdownTracing, log)
	return nil
}

func serveMetrics(addr string, collector *observability.APICollector, log logging.Logger) *http.Server {
	if collector == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn(context.Background(), "metrics server exited", logging.Err(err))
		}
	}()

	log.Info(context.Background(), "serving Prometheus metrics", logging.String("addr", addr))
	return srv
}
