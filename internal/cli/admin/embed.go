package admin

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloo-solutions/panelsearch/internal/cli"
	"github.com/cloo-solutions/panelsearch/internal/jobs"
	"github.com/cloo-solutions/panelsearch/internal/repository"
	"github.com/cloo-solutions/panelsearch/internal/service"
)

func EmbedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "embed",
		Short: "Generate embeddings for indexed chunks",
		Long: "Run the chunk embedding worker. Failed jobs are retried up to 3 times.\n" +
			"With --once the pending queue is drained and the command exits.",
		Args: cobra.NoArgs,
		RunE: runEmbed,
	}
	cmd.Flags().Bool("once", false, "Drain pending jobs and exit")
	cmd.Flags().Int("concurrency", jobs.DefaultConcurrency, "Jobs embedded in parallel")
	cmd.Flags().Duration("poll-interval", defaultPollInterval, "Queue poll interval when running continuously")
	return cmd
}

func runEmbed(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	if !rt.Config.HasOpenAI() {
		return errors.New("embedding requires PANEL_OPENAI_API_KEY")
	}
	pool, err := rt.OpenPool(ctx)
	if err != nil {
		return err
	}

	concurrency, _ := cmd.Flags().GetInt("concurrency")
	vectors := repository.NewVectorIndexRepository(pool)
	processor := jobs.NewEmbeddingWorker(
		repository.NewEmbeddingJobRepository(pool),
		service.NewEmbeddingService(newEmbedder(rt.Config), vectors),
		rt.Logger,
		concurrency,
	)

	if once, _ := cmd.Flags().GetBool("once"); once {
		total, err := jobs.Drain(ctx, processor)
		if err != nil {
			return fmt.Errorf("failed to process embedding jobs: %w", err)
		}
		rt.Logger.Info("embedding queue drained", zap.Int("jobs", total))
		return nil
	}

	interval, _ := cmd.Flags().GetDuration("poll-interval")
	worker := jobs.NewWorker(processor, interval, rt.Logger)
	worker.Start(ctx)
	return nil
}
