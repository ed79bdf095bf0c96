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
	"time"

	"go.uber.org/zap"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/logging"
	"github.com/cloo-solutions/panelsearch/internal/telemetry"
)

const defaultIndexBatchSize = 500

// ChunkIndexRepository inserts chunk rows into the vector index.
type ChunkIndexRepository interface {
	Insert(ctx context.Context, c *domain.ChunkRecord) (bool, error)
}

// JobEnqueuer stores a pending embedding job.
type JobEnqueuer interface {
	Create(ctx context.Context, job *domain.EmbeddingJob) error
}

// TxRepositories are the stores one index batch writes to, bound to the
// same transaction.
type TxRepositories interface {
	Chunks() ChunkIndexRepository
	EmbeddingJobs() JobEnqueuer
}

// TxRunner runs fn in a transaction that commits only when fn returns nil.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}

// IndexStats summarises one loaded chunk file.
type IndexStats struct {
	File       string `json:"file"`
	Chunks     int    `json:"chunks"`
	Inserted   int    `json:"inserted"`
	Duplicates int    `json:"duplicates"`
	Skipped    int    `json:"skipped"`
}

// ChunkIndexer loads chunk JSONL into the vector index and enqueues one
// embedding job per newly inserted chunk. Each batch commits atomically, so a
// chunk row never exists without its job.
type ChunkIndexer struct {
	tx        TxRunner
	uuidGen   UUIDGenerator
	logger    *zap.Logger
	batchSize int
	maxLine   int
}

func NewChunkIndexer(tx TxRunner, uuidGen UUIDGenerator, logger *zap.Logger) *ChunkIndexer {
	if uuidGen == nil {
		uuidGen = &DefaultUUIDGenerator{}
	}
	return &ChunkIndexer{
		tx:        tx,
		uuidGen:   uuidGen,
		logger:    logging.OrNop(logger),
		batchSize: defaultIndexBatchSize,
		maxLine:   maxLineBytes,
	}
}

// IndexFile loads one _overlap.jsonl file.
func (x *ChunkIndexer) IndexFile(ctx context.Context, path string) (IndexStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return IndexStats{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	stats, err := x.IndexStream(ctx, f, filepath.Base(path))
	if err != nil {
		return stats, err
	}
	x.logger.Info("indexed chunk file",
		zap.String("file", stats.File),
		zap.Int("chunks", stats.Chunks),
		zap.Int("inserted", stats.Inserted),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("skipped", stats.Skipped),
	)
	return stats, nil
}

// IndexStream reads chunk records one per line. Malformed or oversized lines
// and records without a vector UUID are skipped and counted.
func (x *ChunkIndexer) IndexStream(ctx context.Context, r io.Reader, source string) (IndexStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "ChunkIndexer.IndexStream", telemetry.SpanAttributes{
		SourceFile: source,
		Operation:  "index_chunks",
	})
	defer span.End()

	stats := IndexStats{File: source}
	br := bufio.NewReaderSize(r, 64*1024)

	batch := make([]*domain.ChunkRecord, 0, x.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := x.insertBatch(ctx, batch)
		if err != nil {
			return err
		}
		stats.Inserted += inserted
		stats.Duplicates += len(batch) - inserted
		batch = batch[:0]
		return nil
	}

	for line := 1; ; line++ {
		raw, oversized, rerr := readLine(br, x.maxLine)
		if rerr != nil && !errors.Is(rerr, io.EOF) {
			span.SetError(rerr)
			return stats, fmt.Errorf("failed to read chunks: %w", rerr)
		}
		raw = bytes.TrimSpace(raw)

		if oversized || len(raw) > 0 {
			var c domain.ChunkRecord
			var err error
			if oversized {
				err = fmt.Errorf("line exceeds %d bytes", x.maxLine)
			} else {
				err = json.Unmarshal(raw, &c)
			}
			if err != nil || c.VectorUUID == "" {
				stats.Skipped++
				x.logger.Warn("skipping unusable chunk record",
					zap.String("file", source),
					zap.Int("line", line),
					zap.Error(err),
				)
			} else {
				stats.Chunks++
				batch = append(batch, &c)
			}
		}

		if len(batch) == x.batchSize {
			if err := flush(); err != nil {
				span.SetError(err)
				return stats, err
			}
		}
		if rerr != nil {
			break
		}
	}
	if err := flush(); err != nil {
		span.SetError(err)
		return stats, err
	}
	return stats, nil
}

func (x *ChunkIndexer) insertBatch(ctx context.Context, batch []*domain.ChunkRecord) (int, error) {
	inserted := 0
	err := x.tx.WithTx(ctx, func(repos TxRepositories) error {
		inserted = 0
		for _, c := range batch {
			ok, err := repos.Chunks().Insert(ctx, c)
			if err != nil {
				return fmt.Errorf("failed to insert chunk %s: %w", c.ChunkID, err)
			}
			if !ok {
				continue
			}
			job := domain.NewPendingJob(x.uuidGen.NewString(), c.VectorUUID, time.Now())
			if err := repos.EmbeddingJobs().Create(ctx, job); err != nil {
				return fmt.Errorf("failed to enqueue embedding for %s: %w", c.VectorUUID, err)
			}
			inserted++
		}
		return nil
	})
	return inserted, err
}
