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

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/winner/internal/adapters/http/api"
	"github.com/okian/winner/internal/adapters/http/swagger"
	repository "github.com/okian/winner/internal/adapters/repository"
	service "github.com/okian/winner/internal/app"
	"github.com/okian/winner/internal/config"
	"github.com/okian/winner/internal/domain/schema"
	"github.com/okian/winner/pkg/logger"
	"github.com/okian/winner/pkg/metrics"
	"github.com/okian/winner/pkg/tracing"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	loggerInstance := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> dotenv -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	shutdownTracing, err := tracing.Setup(ctx, cfg.ServiceName, cfg.OTelEndpoint)
	if err != nil {
		loggerInstance.Error(ctx, "failed to set up tracing", logger.Error(err))
		return
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			loggerInstance.Warn(ctx, "tracing shutdown failed", logger.Error(err))
		}
	}()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		loggerInstance.Error(ctx, "failed to open query store", logger.String("backend", cfg.StoreBackend), logger.Error(err))
		return
	}
	defer func() {
		if err := closeStore(); err != nil {
			loggerInstance.Warn(ctx, "query store close failed", logger.Error(err))
		}
	}()

	svc, err := newService(cfg, store, loggerInstance.Named("service"))
	if err != nil {
		loggerInstance.Error(ctx, "failed to create service", logger.Error(err))
		return
	}

	// Start system metrics updater
	go startSystemMetricsUpdater(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(ctx, svc, loggerInstance.Named("http")),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		loggerInstance.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.String("backend", cfg.StoreBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			loggerInstance.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	loggerInstance.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	loggerInstance.Info(ctx, "server stopped")
}

// tables resolves table and index names from configuration.
func tables(cfg *config.Config) repository.Tables {
	return repository.Tables{
		Contributions:   cfg.TableContributionsName,
		Scores:          cfg.TableScoresName,
		Popularity:      cfg.TablePopularityName,
		ScoresIndex:     cfg.ScoresIndexName,
		PopularityIndex: cfg.PopularityIndexName,
	}
}

// openStore builds the configured query store and the function releasing it.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.StoreBackend {
	case config.BackendDynamoDB:
		client, err := repository.NewDynamoClient(ctx, cfg.AWSRegion, cfg.DynamoDBEndpoint)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewDynamoStore(client, tables(cfg)), noop, nil
	case config.BackendSQLite, config.BackendPostgres:
		store, err := repository.OpenSQL(ctx, repository.Dialect(cfg.StoreBackend), cfg.SQLDSN, tables(cfg))
		if err != nil {
			return nil, nil, err
		}
		if cfg.SQLCreateTables {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, nil, err
			}
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown store backend %q", config.ErrInvalidConfig, cfg.StoreBackend)
	}
}

// newService loads the schema registry and builds the operation handlers.
func newService(cfg *config.Config, store repository.Store, l logger.Logger) (*service.Service, error) {
	registry, err := schema.Load(cfg.SchemaDir)
	if err != nil {
		return nil, fmt.Errorf("load schemas: %w", err)
	}
	return service.New(
		service.WithStore(store),
		service.WithSchemas(registry),
		service.WithLogger(l),
		service.WithMaxScoresLimit(cfg.MaxScoresLimit),
	)
}

// newRouter registers the API and docs routes.
func newRouter(ctx context.Context, ops api.Operations, l logger.Logger) *mux.Router {
	router := mux.NewRouter()
	swagger.Register(ctx, router)
	api.NewServer(ops, api.WithLogger(l)).Register(ctx, router)
	return router
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
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

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		// Calculate average GC pause time
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
