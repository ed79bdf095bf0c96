package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cloo-solutions/panelsearch/internal/logging"
)

// JobProcessor handles one polling round.
type JobProcessor interface {
	ProcessJobs(ctx context.Context) error
}

// BatchProcessor handles one claimed batch and reports its size.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context) (int, error)
}

// Worker polls a JobProcessor until stopped or its context ends. The first
// round runs immediately so a backlog left by a previous run starts draining
// without waiting a full interval.
type Worker struct {
	processor    JobProcessor
	pollInterval time.Duration
	logger       *zap.Logger

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewWorker(processor JobProcessor, pollInterval time.Duration, logger *zap.Logger) *Worker {
	return &Worker{
		processor:    processor,
		pollInterval: pollInterval,
		logger:       logging.OrNop(logger),
		stop:         make(chan struct{}),
		done:         make(chan struct{}),
	}
}

// Start blocks running the polling loop.
func (w *Worker) Start(ctx context.Context) {
	defer close(w.done)

	w.logger.Info("embedding worker started", zap.Duration("poll_interval", w.pollInterval))
	w.poll(ctx)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("embedding worker stopped", zap.String("reason", "context done"))
			return
		case <-w.stop:
			w.logger.Info("embedding worker stopped", zap.String("reason", "stop requested"))
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

func (w *Worker) poll(ctx context.Context) {
	if err := w.processor.ProcessJobs(ctx); err != nil {
		w.logger.Error("embedding poll failed", zap.Error(err))
	}
}

// Stop ends the loop and waits for the round in flight. Calling it more than
// once is safe; it must only be called after Start.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}

// Drain processes batches until one comes back empty and returns the total
// number of jobs handled.
func Drain(ctx context.Context, p BatchProcessor) (int, error) {
	total := 0
	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := p.ProcessBatch(ctx)
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		total += n
	}
}
