package jobs

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/logging"
)

const (
	// MaxRetries is how many failed attempts a chunk gets before its job is
	// marked failed.
	MaxRetries = 3
	// DefaultConcurrency bounds in-flight embedding requests per batch.
	DefaultConcurrency = 4
	// DefaultBatchSize is how many jobs one poll claims.
	DefaultBatchSize = 100
)

// JobQueue is the embedding_jobs table as the worker sees it.
type JobQueue interface {
	ClaimPending(ctx context.Context, limit int) ([]*domain.EmbeddingJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.EmbeddingJobStatus, errMsg string) error
	IncrementRetries(ctx context.Context, id string) error
}

// ChunkEmbedder embeds one indexed chunk and stores the vector.
type ChunkEmbedder interface {
	GenerateEmbedding(ctx context.Context, vectorUUID string) error
}

// EmbeddingWorker claims pending chunk embedding jobs and runs them with
// bounded concurrency.
type EmbeddingWorker struct {
	queue       JobQueue
	embedder    ChunkEmbedder
	logger      *zap.Logger
	concurrency int
	batchSize   int
}

func NewEmbeddingWorker(queue JobQueue, embedder ChunkEmbedder, logger *zap.Logger, concurrency int) *EmbeddingWorker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &EmbeddingWorker{
		queue:       queue,
		embedder:    embedder,
		logger:      logging.OrNop(logger),
		concurrency: concurrency,
		batchSize:   DefaultBatchSize,
	}
}

// ProcessJobs runs one batch for the polling Worker.
func (w *EmbeddingWorker) ProcessJobs(ctx context.Context) error {
	_, err := w.ProcessBatch(ctx)
	return err
}

// ProcessBatch claims one batch and processes it, returning how many jobs
// were claimed. A failing job is recorded on the job row and does not abort
// the batch.
func (w *EmbeddingWorker) ProcessBatch(ctx context.Context) (int, error) {
	batch, err := w.queue.ClaimPending(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to claim embedding jobs: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	w.logger.Info("embedding batch claimed", zap.Int("jobs", len(batch)))

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for _, job := range batch {
		g.Go(func() error {
			if err := w.run(ctx, job); err != nil {
				w.logger.Error("embedding job bookkeeping failed",
					zap.String("job_id", job.ID),
					zap.String("vector_uuid", job.VectorUUID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	_ = g.Wait()
	return len(batch), nil
}

func (w *EmbeddingWorker) run(ctx context.Context, job *domain.EmbeddingJob) error {
	if job.VectorUUID == "" {
		return w.queue.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusFailed, "job has no vector_uuid")
	}

	if err := w.embedder.GenerateEmbedding(ctx, job.VectorUUID); err != nil {
		if permanent(err) {
			return w.queue.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusFailed, err.Error())
		}
		return w.retry(ctx, job, err)
	}
	if err := w.queue.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	w.logger.Debug("chunk embedded", zap.String("vector_uuid", job.VectorUUID))
	return nil
}

// permanent errors fail the job without spending retries.
func permanent(err error) bool {
	return errors.Is(err, domain.ErrChunkNotFound) || errors.Is(err, domain.ErrEmptyChunkText)
}

// retry puts the job back in the queue, or fails it once MaxRetries
// attempts have been used.
func (w *EmbeddingWorker) retry(ctx context.Context, job *domain.EmbeddingJob, cause error) error {
	attempt := job.Retries + 1
	w.logger.Warn("embedding attempt failed",
		zap.String("vector_uuid", job.VectorUUID),
		zap.Int32("attempt", attempt),
		zap.Error(cause),
	)

	if err := w.queue.IncrementRetries(ctx, job.ID); err != nil {
		return fmt.Errorf("increment retries: %w", err)
	}

	if attempt >= MaxRetries {
		msg := fmt.Sprintf("gave up after %d attempts: %v", attempt, cause)
		if err := w.queue.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusFailed, msg); err != nil {
			return fmt.Errorf("mark failed: %w", err)
		}
		return nil
	}

	msg := fmt.Sprintf("attempt %d: %v", attempt, cause)
	if err := w.queue.UpdateStatus(ctx, job.ID, domain.EmbeddingJobStatusPending, msg); err != nil {
		return fmt.Errorf("requeue: %w", err)
	}
	return nil
}
