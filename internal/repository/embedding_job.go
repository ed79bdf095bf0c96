package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

const (
	defaultClaimLimit = 100
	jobColumns        = "id, vector_uuid, status, retries, error, created_at, processed_at"
)

// jobRow mirrors one embedding_jobs row.
type jobRow struct {
	ID          string      `db:"id"`
	VectorUUID  string      `db:"vector_uuid"`
	Status      string      `db:"status"`
	Retries     int32       `db:"retries"`
	Error       pgtype.Text `db:"error"`
	CreatedAt   time.Time   `db:"created_at"`
	ProcessedAt *time.Time  `db:"processed_at"`
}

func (r jobRow) toDomain() *domain.EmbeddingJob {
	return &domain.EmbeddingJob{
		ID:          r.ID,
		VectorUUID:  r.VectorUUID,
		Status:      domain.EmbeddingJobStatus(r.Status),
		Retries:     r.Retries,
		Error:       r.Error.String,
		CreatedAt:   r.CreatedAt,
		ProcessedAt: r.ProcessedAt,
	}
}

// EmbeddingJobRepository is the queue of chunks waiting for an embedding.
type EmbeddingJobRepository struct {
	db dbtx
}

func NewEmbeddingJobRepository(pool *pgxpool.Pool) *EmbeddingJobRepository {
	return &EmbeddingJobRepository{db: pool}
}

func NewEmbeddingJobRepositoryWithTx(tx pgx.Tx) *EmbeddingJobRepository {
	return &EmbeddingJobRepository{db: tx}
}

// Create validates and enqueues job.
func (r *EmbeddingJobRepository) Create(ctx context.Context, job *domain.EmbeddingJob) error {
	if err := domain.ValidateEmbeddingJob(job); err != nil {
		return err
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO embedding_jobs (`+jobColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.VectorUUID, job.Status, job.Retries, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *EmbeddingJobRepository) GetByID(ctx context.Context, id string) (*domain.EmbeddingJob, error) {
	rows, err := r.db.Query(ctx, `SELECT `+jobColumns+` FROM embedding_jobs WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[jobRow])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrEmbeddingJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// ClaimPending flips up to limit of the oldest pending jobs to processing
// and returns them. SKIP LOCKED keeps concurrent claimers disjoint.
func (r *EmbeddingJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.EmbeddingJob, error) {
	if limit <= 0 {
		limit = defaultClaimLimit
	}

	rows, err := r.db.Query(ctx,
		`WITH claimed AS (
			 SELECT id FROM embedding_jobs
			 WHERE status = $1
			 ORDER BY created_at
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE embedding_jobs j
		 SET status = $3, error = NULL, processed_at = NULL
		 FROM claimed
		 WHERE j.id = claimed.id
		 RETURNING j.id, j.vector_uuid, j.status, j.retries, j.error, j.created_at, j.processed_at`,
		domain.EmbeddingJobStatusPending, limit, domain.EmbeddingJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	claimed, err := pgx.CollectRows(rows, pgx.RowToStructByName[jobRow])
	if err != nil {
		return nil, err
	}

	jobs := make([]*domain.EmbeddingJob, 0, len(claimed))
	for _, row := range claimed {
		jobs = append(jobs, row.toDomain())
	}
	return jobs, nil
}

// UpdateStatus records status and errMsg. Terminal statuses also stamp
// processed_at.
func (r *EmbeddingJobRepository) UpdateStatus(ctx context.Context, id string, status domain.EmbeddingJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status.Terminal() {
		now := time.Now().UTC()
		processedAt = &now
	}
	return r.execOne(ctx,
		`UPDATE embedding_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, nullableString(errMsg), processedAt, id,
	)
}

func (r *EmbeddingJobRepository) IncrementRetries(ctx context.Context, id string) error {
	return r.execOne(ctx, `UPDATE embedding_jobs SET retries = retries + 1 WHERE id = $1`, id)
}

// execOne runs an UPDATE that must hit exactly one job.
func (r *EmbeddingJobRepository) execOne(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEmbeddingJobNotFound
	}
	return nil
}

// CountByStatus reports how many jobs are in each status. Statuses with no
// jobs are absent from the map.
func (r *EmbeddingJobRepository) CountByStatus(ctx context.Context) (map[domain.EmbeddingJobStatus]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM embedding_jobs GROUP BY status`)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.EmbeddingJobStatus]int)
	var status string
	var n int
	_, err = pgx.ForEachRow(rows, []any{&status, &n}, func() error {
		counts[domain.EmbeddingJobStatus(status)] = n
		return nil
	})
	return counts, err
}
