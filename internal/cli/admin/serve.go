package admin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloo-solutions/panelsearch/internal/api/handlers"
	"github.com/cloo-solutions/panelsearch/internal/cli"
	"github.com/cloo-solutions/panelsearch/internal/config"
	"github.com/cloo-solutions/panelsearch/internal/database"
	"github.com/cloo-solutions/panelsearch/internal/jobs"
	"github.com/cloo-solutions/panelsearch/internal/openai"
	"github.com/cloo-solutions/panelsearch/internal/repository"
	"github.com/cloo-solutions/panelsearch/internal/server"
	"github.com/cloo-solutions/panelsearch/internal/service"
)

const (
	defaultPollInterval = 10 * time.Second
	shutdownTimeout     = 30 * time.Second
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long: "Start the panel search API. Without PANEL_DATABASE_URL only query analysis and chunk\n" +
			"preview are served. With PANEL_OPENAI_API_KEY the chunk embedding worker runs in-process\n" +
			"and search results carry generated insights.",
		RunE: runServe,
	}

	cmd.Flags().StringP("port", "p", "", "Port to listen on (default from PANEL_PORT)")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")
	cmd.Flags().Bool("no-worker", false, "Do not run the embedding worker in this process")
	cmd.Flags().String("migrations", database.DefaultMigrationsSource, "Migration source URL")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.Config, rt.Logger

	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Port = port
	}

	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = rt.OpenPool(ctx)
		if err != nil {
			return err
		}
		if noMigrate, _ := cmd.Flags().GetBool("no-migrate"); !noMigrate {
			source, _ := cmd.Flags().GetString("migrations")
			if err := database.Migrate(cfg.DatabaseURL, source, logger); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
		}
	} else {
		logger.Warn("PANEL_DATABASE_URL not set: panel search and stored responses are disabled")
	}

	uuidGen := &service.DefaultUUIDGenerator{}
	searchOpts := []service.SearchOption{service.WithLogger(logger)}
	var (
		panels    service.PanelRepositoryInterface
		responses handlers.ResponseLookup
		searcher  handlers.ChunkSearcher
		worker    *jobs.Worker
	)

	if pool != nil {
		panels = repository.NewPanelRepository(pool)
		responses = repository.NewResponseRepository(pool)
		searchOpts = append(searchOpts, service.WithQueryLog(repository.NewQueryLogRepository(pool)))
	}

	if cfg.HasOpenAI() {
		searchOpts = append(searchOpts, service.WithInsights(openai.NewInsightClient(cfg.OpenAIAPIKey, cfg.OpenAIChatModel)))

		if pool != nil {
			embeddings := newEmbedder(cfg)
			vectors := repository.NewVectorIndexRepository(pool)
			searcher = service.NewChunkSearchService(embeddings, vectors)

			if noWorker, _ := cmd.Flags().GetBool("no-worker"); !noWorker {
				processor := jobs.NewEmbeddingWorker(
					repository.NewEmbeddingJobRepository(pool),
					service.NewEmbeddingService(embeddings, vectors),
					logger,
					jobs.DefaultConcurrency,
				)
				worker = jobs.NewWorker(processor, defaultPollInterval, logger)
				go worker.Start(ctx)
			}
		}
	}

	router := server.NewRouter(server.RouterConfig{
		SearchHandler: handlers.NewSearchHandler(service.NewSearchService(service.NewQueryParser(), panels, searchOpts...)),
		ChunkHandler: handlers.NewChunkHandler(
			service.ChunkConfig{MaxChars: cfg.ChunkMaxChars, Overlap: cfg.ChunkOverlapChars},
			uuidGen, responses, searcher,
		),
		Logger: logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func newEmbedder(cfg *config.Config) *openai.Embedder {
	return openai.NewEmbedder(openai.EmbedderConfig{
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.OpenAIEmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
}
