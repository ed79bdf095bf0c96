package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultEmbeddingModel = openai.SmallEmbedding3
	// DefaultEmbeddingDimensions matches the vector(1536) column of vector_index.
	DefaultEmbeddingDimensions = 1536
)

var (
	ErrEmptyText       = errors.New("text cannot be empty")
	ErrWrongDimensions = errors.New("embedding has wrong dimensions")
	ErrNoEmbedding     = errors.New("model returned no embedding")
)

// EmbeddingsAPI is the subset of the OpenAI client used for embeddings.
type EmbeddingsAPI interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// EmbedderConfig selects the embedding model. Zero values fall back to the
// defaults.
type EmbedderConfig struct {
	APIKey     string
	Model      string
	Dimensions int
}

// Embedder turns chunk text and search queries into vectors sized for
// vector_index.
type Embedder struct {
	api        EmbeddingsAPI
	model      openai.EmbeddingModel
	dimensions int
}

func NewEmbedder(cfg EmbedderConfig) *Embedder {
	return NewEmbedderWithAPI(openai.NewClient(cfg.APIKey), cfg)
}

func NewEmbedderWithAPI(api EmbeddingsAPI, cfg EmbedderConfig) *Embedder {
	e := &Embedder{
		api:        api,
		model:      openai.EmbeddingModel(cfg.Model),
		dimensions: cfg.Dimensions,
	}
	if e.model == "" {
		e.model = DefaultEmbeddingModel
	}
	if e.dimensions <= 0 {
		e.dimensions = DefaultEmbeddingDimensions
	}
	return e
}

// Dimensions is the vector length every returned embedding has.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) request(input string) openai.EmbeddingRequest {
	req := openai.EmbeddingRequest{
		Input: []string{input},
		Model: e.model,
	}
	// ada-002 has a fixed size and rejects the dimensions parameter
	if e.model != openai.AdaEmbeddingV2 {
		req.Dimensions = e.dimensions
	}
	return req
}

// GenerateEmbedding embeds text after folding line breaks into spaces.
// Whitespace-only text is rejected with ErrEmptyText.
func (e *Embedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	input := strings.Join(strings.Fields(text), " ")
	if input == "" {
		return nil, ErrEmptyText
	}

	resp, err := e.api.CreateEmbeddings(ctx, e.request(input))
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, ErrNoEmbedding
	}

	vec := resp.Data[0].Embedding
	if len(vec) != e.dimensions {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrWrongDimensions, len(vec), e.dimensions)
	}
	return vec, nil
}
