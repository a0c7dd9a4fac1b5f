// panicconf is the configuration service for the PANIC alerter. It
// serves the HTTP API the installer UI talks to and offers snapshot
// export, import and archive commands for operations.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"panicconf/internal/api"
	"panicconf/internal/archive"
	"panicconf/internal/blob"
	"panicconf/internal/config"
	"panicconf/internal/core"
	"panicconf/internal/infra/blob/s3"
	redisinfra "panicconf/internal/infra/redis"
)

// Version information (set via ldflags during build)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "panicconf",
	Short: "PANIC alerter configuration service",
	Long: `panicconf stores the monitored chains, nodes, systems, repositories,
notification channels and alert thresholds the PANIC alerter runs from,
and serves the HTTP API the installer UI uses to manage them.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"panicconf version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to YAML config file")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(archiveCmd)
}

// openStore builds the persistence backend selected by the config.
func openStore(cfg config.Config, engine *core.RulesEngine) (core.PersistentStore, func() error, error) {
	return core.OpenPersistentStore(core.StorageOptions{
		Driver:      core.StorageDriver(cfg.Storage.Driver),
		SQLitePath:  cfg.Storage.SQLitePath,
		PostgresDSN: cfg.Storage.PostgresDSN,
	}, engine)
}

// openBlob builds the archive backend selected by the config.
func openBlob(ctx context.Context, cfg config.Config) (blob.Store, error) {
	return blob.Open(ctx, blob.Options{
		Driver: blob.Driver(cfg.Blob.Driver),
		FSRoot: cfg.Blob.FSRoot,
		S3: s3.Config{
			Region:   cfg.Blob.S3Region,
			Bucket:   cfg.Blob.S3Bucket,
			Endpoint: cfg.Blob.S3Endpoint,
		},
	})
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the configuration HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err := config.NewLogger(cfg.Logging, "panicconf")
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()

		engine := core.NewDefaultRulesEngine()
		store, closeStore, err := openStore(cfg, engine)
		if err != nil {
			return err
		}
		defer func() { _ = closeStore() }()

		serviceOpts := []core.ServiceOption{core.WithLogger(logger)}
		apiMetricsOpts := []api.Option{}
		switch cfg.Observability.MetricsExporter {
		case "expvar":
			serviceOpts = append(serviceOpts, core.WithMetricsRecorder(core.NewExpvarMetricsRecorder("panicconf_service")))
			apiMetricsOpts = append(apiMetricsOpts, api.WithExpvar())
		default:
			registry := prometheus.NewRegistry()
			registry.MustRegister(collectors.NewGoCollector())
			recorder, err := core.NewPrometheusMetricsRecorder(registry)
			if err != nil {
				return err
			}
			serviceOpts = append(serviceOpts, core.WithMetricsRecorder(recorder))
			apiMetricsOpts = append(apiMetricsOpts, api.WithMetricsRegistry(registry))
		}

		if cfg.Observability.TraceFile != "" {
			traceFile, err := os.OpenFile(cfg.Observability.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return fmt.Errorf("open trace file: %w", err)
			}
			defer func() { _ = traceFile.Close() }()
			serviceOpts = append(serviceOpts, core.WithTracer(core.NewJSONTracer(traceFile)))
		}

		service := core.NewService(store, serviceOpts...)

		blobStore, err := openBlob(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		archiver := archive.New(blobStore, logger)

		opts := []api.Option{
			api.WithLogger(logger),
			api.WithArchiver(archiver),
			api.WithReadTimeout(cfg.Server.ReadTimeout),
			api.WithWriteTimeout(cfg.Server.WriteTimeout),
		}
		opts = append(opts, apiMetricsOpts...)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		// Redis is optional: mute routes come up only when the alerter's
		// Redis is reachable at startup.
		redisClient := redisinfra.NewClient(redisinfra.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Namespace: cfg.Redis.Namespace,
		}, logger)
		if err := redisClient.Connect(ctx); err != nil {
			logger.Warn("redis unavailable, mute routes disabled", zap.Error(err))
		} else {
			defer func() { _ = redisClient.Disconnect() }()
			opts = append(opts, api.WithRedis(redisClient))
		}

		server := api.New(service, opts...)
		return server.Run(ctx, cfg.Server.Addr)
	},
}
