package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/logging"
	"github.com/cloo-solutions/panelsearch/internal/telemetry"
)

const (
	overlapSuffix = "_overlap.jsonl"
	maxLineBytes  = 16 << 20
)

// ChunkFileStats summarises one processed input file.
type ChunkFileStats struct {
	File     string `json:"file"`
	Records  int    `json:"records"`
	Chunks   int    `json:"chunks"`
	Skipped  int    `json:"skipped"`
	Output   string `json:"out"`
	Archived string `json:"archived,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Failed reports whether the file could not be processed.
func (s ChunkFileStats) Failed() bool {
	return s.Error != ""
}

// ChunkArchiver stores a finished chunk file under key.
type ChunkArchiver interface {
	PutFile(ctx context.Context, key, path string) error
}

// BatchChunker chunks JSONL response files in parallel, one file per worker.
type BatchChunker struct {
	chunker  *Chunker
	workers  int
	archiver ChunkArchiver
	logger   *zap.Logger
	maxLine  int
}

// NewBatchChunker creates a batch chunker. archiver may be nil.
func NewBatchChunker(chunker *Chunker, workers int, archiver ChunkArchiver, logger *zap.Logger) *BatchChunker {
	if workers <= 0 {
		workers = 1
	}
	return &BatchChunker{
		chunker:  chunker,
		workers:  workers,
		archiver: archiver,
		logger:   logging.OrNop(logger),
		maxLine:  maxLineBytes,
	}
}

// OverlapPath returns the output path for an input file: X.jsonl -> X_overlap.jsonl.
func OverlapPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + overlapSuffix
}

// ChunkFiles processes every usable path concurrently. Missing files and
// files without a .jsonl extension are logged and skipped. Results keep the
// order of paths, minus the skipped ones. A file that fails is reported in
// its own stats and does not stop the others; only cancellation of ctx
// returns an error.
func (b *BatchChunker) ChunkFiles(ctx context.Context, paths []string) ([]ChunkFileStats, error) {
	usable := make([]string, 0, len(paths))
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".jsonl") {
			b.logger.Warn("not a .jsonl file, skipping", zap.String("path", p))
			continue
		}
		if _, err := os.Stat(p); err != nil {
			b.logger.Warn("missing input file, skipping", zap.String("path", p), zap.Error(err))
			continue
		}
		usable = append(usable, p)
	}

	results := make([]ChunkFileStats, len(usable))
	var g errgroup.Group
	g.SetLimit(b.workers)
	for i, p := range usable {
		g.Go(func() error {
			stats, err := b.ChunkFile(ctx, p)
			if err != nil {
				b.logger.Error("failed to chunk file", zap.String("path", p), zap.Error(err))
				stats.File = filepath.Base(p)
				stats.Error = err.Error()
			}
			results[i] = stats
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// ChunkFile chunks one input file into its _overlap.jsonl sibling and
// archives the result when an archiver is configured.
func (b *BatchChunker) ChunkFile(ctx context.Context, path string) (ChunkFileStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "BatchChunker.ChunkFile", telemetry.SpanAttributes{
		SourceFile: filepath.Base(path),
		Operation:  "chunk_file",
	})
	defer span.End()

	in, err := os.Open(path)
	if err != nil {
		span.SetError(err)
		return ChunkFileStats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer in.Close()

	outPath := OverlapPath(path)
	out, err := os.Create(outPath)
	if err != nil {
		span.SetError(err)
		return ChunkFileStats{}, fmt.Errorf("failed to create %s: %w", outPath, err)
	}

	w := bufio.NewWriter(out)
	stats, err := b.ChunkStream(ctx, in, w, filepath.Base(path))
	if err == nil {
		err = w.Flush()
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		span.SetError(err)
		return stats, fmt.Errorf("failed to chunk %s: %w", path, err)
	}
	stats.Output = outPath
	span.SetCount("chunks", stats.Chunks)

	if b.archiver != nil {
		key := filepath.Base(outPath)
		if err := b.archiver.PutFile(ctx, key, outPath); err != nil {
			span.SetError(err)
			return stats, fmt.Errorf("failed to archive %s: %w", outPath, err)
		}
		stats.Archived = key
	}

	b.logger.Info("chunked file",
		zap.String("file", stats.File),
		zap.Int("records", stats.Records),
		zap.Int("chunks", stats.Chunks),
		zap.Int("skipped", stats.Skipped),
		zap.String("out", stats.Output),
	)
	return stats, nil
}

// ChunkStream reads response records one JSON object per line from r and
// writes one chunk record per line to w. Blank lines are ignored. Lines that
// do not decode or exceed the line limit are counted as skipped and
// processing continues with the next line.
func (b *BatchChunker) ChunkStream(ctx context.Context, r io.Reader, w io.Writer, sourceFile string) (ChunkFileStats, error) {
	stats := ChunkFileStats{File: sourceFile}

	br := bufio.NewReaderSize(r, 64*1024)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		raw, oversized, rerr := readLine(br, b.maxLine)
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			return stats, fmt.Errorf("failed to read records: %w", rerr)
		}

		if oversized {
			stats.Skipped++
			b.logger.Warn("skipping oversized record",
				zap.String("file", sourceFile),
				zap.Int("line", line),
				zap.Int("limit", b.maxLine),
			)
		} else if raw = bytes.TrimSpace(raw); len(raw) > 0 {
			if err := b.chunkLine(raw, enc, sourceFile, line, &stats); err != nil {
				return stats, err
			}
		}

		if rerr != nil {
			return stats, nil
		}
	}
}

func (b *BatchChunker) chunkLine(raw []byte, enc *json.Encoder, sourceFile string, line int, stats *ChunkFileStats) error {
	var rec domain.ResponseRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		stats.Skipped++
		b.logger.Warn("skipping malformed record",
			zap.String("file", sourceFile),
			zap.Int("line", line),
			zap.Error(err),
		)
		return nil
	}
	stats.Records++

	for _, c := range b.chunker.Chunk(rec, sourceFile) {
		if err := enc.Encode(c); err != nil {
			return fmt.Errorf("failed to write chunk %s: %w", c.ChunkID, err)
		}
		stats.Chunks++
	}
	return nil
}

// readLine returns the next line without its terminator. A line longer than
// limit bytes is consumed but not buffered, and oversized is set. At the end
// of input err is io.EOF and line holds any unterminated remainder.
func readLine(r *bufio.Reader, limit int) (line []byte, oversized bool, err error) {
	for {
		frag, ferr := r.ReadSlice('\n')
		if !oversized {
			if len(line)+len(frag) > limit+2 {
				oversized = true
				line = nil
			} else {
				line = append(line, frag...)
			}
		}
		if errors.Is(ferr, bufio.ErrBufferFull) {
			continue
		}
		if !oversized {
			line = bytes.TrimRight(line, "\r\n")
			oversized = len(line) > limit
			if oversized {
				line = nil
			}
		}
		return line, oversized, ferr
	}
}
