package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/service"
)

// VectorIndexRepository stores response chunks and their embeddings.
type VectorIndexRepository struct {
	db dbtx
}

func NewVectorIndexRepository(pool *pgxpool.Pool) *VectorIndexRepository {
	return &VectorIndexRepository{db: pool}
}

func NewVectorIndexRepositoryWithTx(tx pgx.Tx) *VectorIndexRepository {
	return &VectorIndexRepository{db: tx}
}

// Insert stores a chunk without an embedding. It reports false when a row
// with the same vector_uuid already exists.
func (r *VectorIndexRepository) Insert(ctx context.Context, c *domain.ChunkRecord) (bool, error) {
	tag, err := r.db.Exec(ctx,
		`INSERT INTO vector_index (vector_uuid, chunk_id, panel_uuid, response_uuid, answer_text,
		                           span_start, span_end, chunk_type, section, confidence, source_file)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 ON CONFLICT (vector_uuid) DO NOTHING`,
		c.VectorUUID, c.ChunkID, c.PanelUUID.String(), c.ResponseUUID.String(), c.ChunkText,
		c.Span.StartChar, c.Span.EndChar, c.ChunkType, c.Section, c.Confidence,
		nullableString(c.Meta.SourceFile),
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *VectorIndexRepository) GetByVectorUUID(ctx context.Context, vectorUUID string) (*domain.ChunkRecord, error) {
	var c domain.ChunkRecord
	var panelID, respID string
	var sourceFile *string
	err := r.db.QueryRow(ctx,
		`SELECT vector_uuid, chunk_id, panel_uuid, response_uuid, answer_text,
		        span_start, span_end, chunk_type, section, confidence, source_file
		 FROM vector_index WHERE vector_uuid = $1`,
		vectorUUID,
	).Scan(&c.VectorUUID, &c.ChunkID, &panelID, &respID, &c.ChunkText,
		&c.Span.StartChar, &c.Span.EndChar, &c.ChunkType, &c.Section, &c.Confidence, &sourceFile)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChunkNotFound
		}
		return nil, err
	}
	c.PanelUUID = domain.TextID(panelID)
	c.ResponseUUID = domain.TextID(respID)
	c.Meta.SourceFile = stringOrEmpty(sourceFile)
	c.Labels = []string{}
	return &c, nil
}

func (r *VectorIndexRepository) UpdateEmbedding(ctx context.Context, vectorUUID string, embedding []float32) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE vector_index SET embedding = $1, embedded_at = $2 WHERE vector_uuid = $3`,
		pgvector.NewVector(embedding), time.Now().UTC(), vectorUUID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChunkNotFound
	}
	return nil
}

// Nearest returns the embedded chunks closest to embedding by cosine distance.
func (r *VectorIndexRepository) Nearest(ctx context.Context, embedding []float32, limit int) ([]service.ChunkMatch, error) {
	rows, err := r.db.Query(ctx,
		`SELECT vector_uuid, chunk_id, panel_uuid, response_uuid, answer_text, span_start, span_end,
		        1 - (embedding <=> $1) AS score
		 FROM vector_index
		 WHERE embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]service.ChunkMatch, 0, limit)
	for rows.Next() {
		var m service.ChunkMatch
		if err := rows.Scan(&m.VectorUUID, &m.ChunkID, &m.PanelUUID, &m.ResponseUUID, &m.ChunkText,
			&m.Span.StartChar, &m.Span.EndChar, &m.Score); err != nil {
			return nil, err
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
