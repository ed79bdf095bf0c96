package cli

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloo-solutions/panelsearch/internal/config"
	"github.com/cloo-solutions/panelsearch/internal/database"
	"github.com/cloo-solutions/panelsearch/internal/logging"
	"github.com/cloo-solutions/panelsearch/internal/storage"
	"github.com/cloo-solutions/panelsearch/internal/telemetry"
)

// Runtime carries what every command needs: configuration, a logger and
// error reporting. Close it when the command finishes.
type Runtime struct {
	Config *config.Config
	Logger *zap.Logger

	closers []func()
}

// AddEnvFileFlag adds the --env-file flag read by Bootstrap.
func AddEnvFileFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String("env-file", "", "Load environment variables from this file instead of .env")
}

// Bootstrap loads configuration, builds the logger and starts Sentry when
// a DSN is configured. Telemetry failures are logged, not returned.
func Bootstrap(cmd *cobra.Command) (*Runtime, error) {
	var files []string
	if f := cmd.Flags().Lookup("env-file"); f != nil && f.Value.String() != "" {
		files = append(files, f.Value.String())
	}

	cfg, err := config.LoadFrom(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, err
	}
	rt := &Runtime{Config: cfg, Logger: logger}

	sampleRate := 0.1
	if cfg.Environment == "development" {
		sampleRate = 1.0
	}
	shutdown, err := telemetry.Init(telemetry.Config{
		DSN:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		TracesSampleRate: sampleRate,
		Debug:            cfg.Debug,
		Logger:           logger,
	})
	if err != nil {
		logger.Warn("telemetry init failed, continuing without tracing", zap.Error(err))
	} else {
		rt.closers = append(rt.closers, shutdown)
	}
	return rt, nil
}

// OpenPool connects to the configured database.
func (r *Runtime) OpenPool(ctx context.Context) (*pgxpool.Pool, error) {
	if err := r.Config.RequireDatabase(); err != nil {
		return nil, err
	}
	pool, err := database.NewPool(ctx, database.Config{
		URL:             r.Config.DatabaseURL,
		MaxConns:        r.Config.DBMaxConns,
		MinConns:        r.Config.DBMinConns,
		MaxConnLifetime: r.Config.DBConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	r.closers = append(r.closers, pool.Close)
	r.Logger.Info("connected to database")
	return pool, nil
}

// S3 returns a client for the chunk archive bucket, creating the bucket
// when it does not exist.
func (r *Runtime) S3(ctx context.Context) (*storage.S3Client, error) {
	if !r.Config.HasS3() {
		return nil, errors.New("S3 is not configured: set PANEL_S3_ENDPOINT, PANEL_S3_ACCESS_KEY_ID and PANEL_S3_SECRET_ACCESS_KEY")
	}
	client, err := storage.NewS3Client(ctx, storage.S3ClientConfig{
		Endpoint:        r.Config.S3Endpoint,
		Region:          r.Config.S3Region,
		AccessKeyID:     r.Config.S3AccessKey,
		SecretAccessKey: r.Config.S3SecretKey,
		Bucket:          r.Config.S3Bucket,
		Prefix:          r.Config.S3Prefix,
		UsePathStyle:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}
	if err := client.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure S3 bucket: %w", err)
	}
	r.Logger.Info("S3 bucket ready", zap.String("bucket", r.Config.S3Bucket))
	return client, nil
}

// Close releases resources in reverse order of acquisition.
func (r *Runtime) Close() {
	for _, c := range slices.Backward(r.closers) {
		c()
	}
	_ = r.Logger.Sync()
}
