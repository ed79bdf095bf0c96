package service

import (
	"context"
	"strings"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

const (
	DefaultChunkSearchLimit = 10
	MaxChunkSearchLimit     = 100
)

// ChunkMatch is an indexed chunk ranked by similarity to a query.
type ChunkMatch struct {
	VectorUUID   string      `json:"vector_uuid"`
	ChunkID      string      `json:"chunk_id"`
	PanelUUID    string      `json:"panel_uuid"`
	ResponseUUID string      `json:"response_uuid"`
	ChunkText    string      `json:"chunk_text"`
	Span         domain.Span `json:"span"`
	Score        float64     `json:"score"`
}

// NearestChunkRepository finds embedded chunks near a vector.
type NearestChunkRepository interface {
	Nearest(ctx context.Context, embedding []float32, limit int) ([]ChunkMatch, error)
}

// ChunkSearchService answers free-text questions against embedded response chunks.
type ChunkSearchService struct {
	client TextEmbedder
	repo   NearestChunkRepository
}

func NewChunkSearchService(client TextEmbedder, repo NearestChunkRepository) *ChunkSearchService {
	return &ChunkSearchService{client: client, repo: repo}
}

func (s *ChunkSearchService) Search(ctx context.Context, query string, limit int) ([]ChunkMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.ErrEmptyQuery
	}
	if limit <= 0 {
		limit = DefaultChunkSearchLimit
	}
	limit = min(limit, MaxChunkSearchLimit)

	embedding, err := s.client.GenerateEmbedding(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.repo.Nearest(ctx, embedding, limit)
}
