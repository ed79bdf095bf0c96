package admin

import (
	"encoding/json"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cloo-solutions/panelsearch/internal/cli"
	"github.com/cloo-solutions/panelsearch/internal/repository"
	"github.com/cloo-solutions/panelsearch/internal/service"
)

func LoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <X_overlap.jsonl...>",
		Short: "Load chunk files into the vector index",
		Long: "Insert chunk records produced by `chunk` into vector_index and enqueue one embedding job\n" +
			"per newly inserted chunk. Chunks whose vector_uuid is already indexed are counted as duplicates.",
		Args: cobra.MinimumNArgs(1),
		RunE: runLoad,
	}
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	pool, err := rt.OpenPool(ctx)
	if err != nil {
		return err
	}

	indexer := service.NewChunkIndexer(repository.NewTxRunner(pool), &service.DefaultUUIDGenerator{}, rt.Logger)
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	for _, path := range args {
		stats, err := indexer.IndexFile(ctx, path)
		if err != nil {
			return err
		}
		if err := enc.Encode(stats); err != nil {
			return err
		}
	}
	return nil
}
