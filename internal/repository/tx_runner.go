package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/panelsearch/internal/service"
)

// TxRunner gives the chunk indexer a vector_index and embedding_jobs pair
// that share one read-committed transaction.
type TxRunner struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool, opts: pgx.TxOptions{IsoLevel: pgx.ReadCommitted}}
}

// WithTx commits when fn succeeds and rolls back otherwise. Errors from fn
// are returned unwrapped.
func (r *TxRunner) WithTx(ctx context.Context, fn func(repos service.TxRepositories) error) error {
	var fnErr error
	err := pgx.BeginTxFunc(ctx, r.pool, r.opts, func(tx pgx.Tx) error {
		fnErr = fn(indexTx{tx: tx})
		return fnErr
	})
	switch {
	case fnErr != nil:
		return fnErr
	case err != nil:
		return fmt.Errorf("index transaction failed: %w", err)
	}
	return nil
}

type indexTx struct {
	tx pgx.Tx
}

func (t indexTx) Chunks() service.ChunkIndexRepository {
	return NewVectorIndexRepositoryWithTx(t.tx)
}

func (t indexTx) EmbeddingJobs() service.JobEnqueuer {
	return NewEmbeddingJobRepositoryWithTx(t.tx)
}
