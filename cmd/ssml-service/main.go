// main package for the ssml-service
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

	"github.com/book-expert/logger"
	"github.com/book-expert/ssml-service/internal/config"
	"github.com/book-expert/ssml-service/internal/core"
	"github.com/book-expert/ssml-service/internal/metrics"
	"github.com/book-expert/ssml-service/internal/objectstore"
	"github.com/book-expert/ssml-service/internal/ruleset"
	"github.com/book-expert/ssml-service/internal/speech"
	"github.com/book-expert/ssml-service/internal/worker"
	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	bootstrapLogFile = "ssml-service-bootstrap.log"
	serviceLogFile   = "ssml-service.log"

	metricsShutdownTimeout = 5 * time.Second
	metricsReadTimeout     = 10 * time.Second
)

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir(), bootstrapLogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	log, err := setupLogger(cfg.Paths.BaseLogsDir, serviceLogFile)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return serve(ctx, cfg, log)
}

// serve wires the service components and blocks until ctx is done.
func serve(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	validator, err := cfg.Validator.NewValidator()
	if err != nil {
		return err
	}

	store, err := ruleset.NewStore(validator)
	if err != nil {
		return fmt.Errorf("failed to create rule store: %w", err)
	}

	log.System("Validator ready with variant %s", store.Variant())

	if cfg.Validator.RulesFile != "" {
		watcher, watchErr := ruleset.NewWatcher(cfg.Validator.RulesFile, store, log)
		if watchErr != nil {
			return fmt.Errorf("failed to create rule file watcher: %w", watchErr)
		}

		go func() {
			runErr := watcher.Run(ctx)
			if runErr != nil {
				log.Error("Rule file watcher stopped: %v", runErr)
			}
		}()
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	stores, err := openStores(jetstreamContext, cfg.NATS)
	if err != nil {
		return err
	}

	collector := metrics.NewCollector(cfg.Metrics, prometheus.NewRegistry())

	if cfg.Metrics.Enabled && cfg.Metrics.ListenAddress != "" {
		shutdown := serveMetrics(cfg.Metrics.ListenAddress, collector, log)
		defer shutdown()
	}

	var synthesizer core.Synthesizer

	if cfg.Speech.Enabled {
		client := speech.NewHTTPClient(
			cfg.Speech.ServiceURL,
			cfg.Speech.Language,
			cfg.Speech.Temperature,
			cfg.Speech.Timeout(),
		)

		healthErr := client.HealthCheck(ctx)
		if healthErr != nil {
			log.Warn("Speech engine health check failed, continuing: %v", healthErr)
		}

		synthesizer = client
	}

	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		cfg.NATS.ValidateSubject,
		store,
		stores,
		synthesizer,
		collector,
		log,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	log.System("SSML-Service successfully initialized. Listening for jobs on subject: %s", cfg.NATS.ValidateSubject)

	err = natsWorker.Run(ctx)
	if err != nil {
		return fmt.Errorf("worker stopped: %w", err)
	}

	log.System("SSML-Service shut down.")

	return nil
}

// openStores binds the configured buckets. Unconfigured buckets stay nil.
func openStores(jetstreamContext nats.JetStreamContext, cfg config.NATSConfig) (worker.Stores, error) {
	var stores worker.Stores

	buckets := []struct {
		name   string
		target *core.ObjectStore
	}{
		{name: cfg.DocumentsBucket, target: &stores.Documents},
		{name: cfg.ReportsBucket, target: &stores.Reports},
		{name: cfg.AudioBucket, target: &stores.Audio},
	}

	for _, bucket := range buckets {
		if bucket.name == "" {
			continue
		}

		store, err := objectstore.New(jetstreamContext, bucket.name)
		if err != nil {
			return worker.Stores{}, fmt.Errorf("failed to open object store: %w", err)
		}

		*bucket.target = store
	}

	return stores, nil
}

// serveMetrics exposes the collector on addr and returns a shutdown function.
func serveMetrics(addr string, collector *metrics.Collector, log *logger.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: metricsReadTimeout,
	}

	go func() {
		log.Info("Serving metrics on %s", addr)

		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Metrics server failed: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()

		err := server.Shutdown(ctx)
		if err != nil {
			log.Warn("Failed to shut down metrics server: %v", err)
		}
	}
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
