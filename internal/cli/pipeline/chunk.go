package pipeline

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cloo-solutions/panelsearch/internal/cli"
	"github.com/cloo-solutions/panelsearch/internal/service"
	"github.com/cloo-solutions/panelsearch/internal/storage"
)

// chunkResult is printed once per processed file.
type chunkResult struct {
	service.ChunkFileStats
	DownloadURL string `json:"download_url,omitempty"`
}

func ChunkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chunk <files...>",
		Short: "Split JSONL survey responses into overlapping chunks",
		Long: "Read response records (one JSON object per line with panel_uuid, response_uuid and answer_text)\n" +
			"and write chunk records to X_overlap.jsonl next to each input X.jsonl.\n" +
			"Missing files and files without a .jsonl extension are skipped with a warning.\n" +
			"A file that fails is reported with an error field; the others still complete.",
		Example: "  panelsearch chunk data/answers.jsonl --max-chars 600 --overlap 120 --upload",
		Args:    cobra.MinimumNArgs(1),
		RunE:    runChunk,
	}
	cmd.Flags().Int("max-chars", 0, "Maximum characters per chunk (default from PANEL_CHUNK_MAX_CHARS)")
	cmd.Flags().Int("overlap", -1, "Characters shared between consecutive chunks (default from PANEL_CHUNK_OVERLAP_CHARS)")
	cmd.Flags().Int("workers", 0, "Files processed in parallel (default from PANEL_CHUNK_WORKERS)")
	cmd.Flags().Bool("upload", false, "Upload each output file to the S3 chunk bucket")
	return cmd
}

func runChunk(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := cli.Bootstrap(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := service.ChunkConfig{MaxChars: rt.Config.ChunkMaxChars, Overlap: rt.Config.ChunkOverlapChars}
	if v, _ := cmd.Flags().GetInt("max-chars"); v != 0 {
		cfg.MaxChars = v
	}
	if v, _ := cmd.Flags().GetInt("overlap"); v >= 0 {
		cfg.Overlap = v
	}
	workers := rt.Config.ChunkWorkers
	if v, _ := cmd.Flags().GetInt("workers"); v > 0 {
		workers = v
	}

	chunker, err := service.NewChunker(cfg, nil)
	if err != nil {
		return err
	}

	var s3 *storage.S3Client
	var archiver service.ChunkArchiver
	if upload, _ := cmd.Flags().GetBool("upload"); upload {
		s3, err = rt.S3(ctx)
		if err != nil {
			return err
		}
		archiver = s3
	}

	batch := service.NewBatchChunker(chunker, workers, archiver, rt.Logger)
	results, err := batch.ChunkFiles(ctx, args)
	if err != nil {
		return err
	}

	failed := 0
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetEscapeHTML(false)
	for _, stats := range results {
		if stats.Failed() {
			failed++
		}
		res := chunkResult{ChunkFileStats: stats}
		if s3 != nil && stats.Archived != "" {
			url, err := s3.GenerateDownloadURL(ctx, stats.Archived)
			if err != nil {
				rt.Logger.Warn("failed to presign download URL", zap.String("key", stats.Archived), zap.Error(err))
			} else {
				res.DownloadURL = url
			}
		}
		if err := enc.Encode(res); err != nil {
			return err
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}
