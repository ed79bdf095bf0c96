package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/cloo-solutions/panelsearch/internal/telemetry"
)

// TextEmbedder turns text into a vector sized for vector_index.
type TextEmbedder interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// ChunkVectorStore loads an indexed chunk and stores its vector.
type ChunkVectorStore interface {
	GetByVectorUUID(ctx context.Context, vectorUUID string) (*domain.ChunkRecord, error)
	UpdateEmbedding(ctx context.Context, vectorUUID string, embedding []float32) error
}

// EmbeddingService fills in the embedding of one indexed chunk at a time.
// The embedding worker drives it, one call per claimed job.
type EmbeddingService struct {
	embedder TextEmbedder
	store    ChunkVectorStore
}

func NewEmbeddingService(embedder TextEmbedder, store ChunkVectorStore) *EmbeddingService {
	return &EmbeddingService{embedder: embedder, store: store}
}

// GenerateEmbedding embeds the text of the chunk stored under vectorUUID.
// A chunk with blank text fails with domain.ErrEmptyChunkText.
func (s *EmbeddingService) GenerateEmbedding(ctx context.Context, vectorUUID string) (err error) {
	ctx, span := telemetry.StartSpan(ctx, "EmbeddingService.GenerateEmbedding", telemetry.SpanAttributes{
		VectorUUID: vectorUUID,
		Operation:  "embed_chunk",
	})
	defer func() {
		if err != nil {
			span.SetError(err)
		}
		span.End()
	}()

	chunk, err := s.store.GetByVectorUUID(ctx, vectorUUID)
	if err != nil {
		return err
	}
	text := strings.TrimSpace(chunk.ChunkText)
	if text == "" {
		return domain.NewDomainErrorWithCause(domain.ErrCodeValidation, domain.ErrEmptyChunkText.Message,
			fmt.Errorf("chunk %s", chunk.ChunkID))
	}

	vec, err := s.embedder.GenerateEmbedding(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to generate embedding: %w", err)
	}
	if err := s.store.UpdateEmbedding(ctx, vectorUUID, vec); err != nil {
		return fmt.Errorf("failed to update embedding: %w", err)
	}
	span.SetCount("dimensions", len(vec))
	return nil
}
