package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

type MockTextEmbedder struct {
	mock.Mock
}

func (m *MockTextEmbedder) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type MockChunkVectorStore struct {
	mock.Mock
}

func (m *MockChunkVectorStore) GetByVectorUUID(ctx context.Context, vectorUUID string) (*domain.ChunkRecord, error) {
	args := m.Called(ctx, vectorUUID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ChunkRecord), args.Error(1)
}

func (m *MockChunkVectorStore) UpdateEmbedding(ctx context.Context, vectorUUID string, embedding []float32) error {
	return m.Called(ctx, vectorUUID, embedding).Error(0)
}

func testEmbedding() []float32 {
	vec := make([]float32, 1536)
	for i := range vec {
		vec[i] = float32(i) * 0.001
	}
	return vec
}

func TestEmbeddingService_GenerateEmbedding(t *testing.T) {
	vec := testEmbedding()

	t.Run("stores the vector of the trimmed text", func(t *testing.T) {
		embedder, store := new(MockTextEmbedder), new(MockChunkVectorStore)
		store.On("GetByVectorUUID", mock.Anything, "vec-1").Return(&domain.ChunkRecord{
			VectorUUID: "vec-1",
			ChunkID:    "R1#OV#0001",
			ChunkText:  "  주말에는 주로 집에서 영화를 봅니다. ",
		}, nil)
		embedder.On("GenerateEmbedding", mock.Anything, "주말에는 주로 집에서 영화를 봅니다.").Return(vec, nil)
		store.On("UpdateEmbedding", mock.Anything, "vec-1", vec).Return(nil)

		require.NoError(t, NewEmbeddingService(embedder, store).GenerateEmbedding(context.Background(), "vec-1"))
		store.AssertExpectations(t)
		embedder.AssertExpectations(t)
	})

	t.Run("unknown chunk", func(t *testing.T) {
		embedder, store := new(MockTextEmbedder), new(MockChunkVectorStore)
		store.On("GetByVectorUUID", mock.Anything, "missing").Return(nil, domain.ErrChunkNotFound)

		err := NewEmbeddingService(embedder, store).GenerateEmbedding(context.Background(), "missing")
		assert.ErrorIs(t, err, domain.ErrChunkNotFound)
		embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
	})

	t.Run("blank text", func(t *testing.T) {
		embedder, store := new(MockTextEmbedder), new(MockChunkVectorStore)
		store.On("GetByVectorUUID", mock.Anything, "vec-2").Return(&domain.ChunkRecord{ChunkID: "R2#OV#0001", ChunkText: " \n"}, nil)

		err := NewEmbeddingService(embedder, store).GenerateEmbedding(context.Background(), "vec-2")
		assert.ErrorIs(t, err, domain.ErrEmptyChunkText)
		assert.Contains(t, err.Error(), "R2#OV#0001")
		embedder.AssertNotCalled(t, "GenerateEmbedding", mock.Anything, mock.Anything)
	})

	t.Run("embedder failure", func(t *testing.T) {
		embedder, store := new(MockTextEmbedder), new(MockChunkVectorStore)
		store.On("GetByVectorUUID", mock.Anything, "vec-3").Return(&domain.ChunkRecord{ChunkText: "텍스트가 있습니다"}, nil)
		embedder.On("GenerateEmbedding", mock.Anything, "텍스트가 있습니다").Return(nil, errors.New("rate limited"))

		err := NewEmbeddingService(embedder, store).GenerateEmbedding(context.Background(), "vec-3")
		assert.ErrorContains(t, err, "failed to generate embedding: rate limited")
		store.AssertNotCalled(t, "UpdateEmbedding", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("store failure", func(t *testing.T) {
		embedder, store := new(MockTextEmbedder), new(MockChunkVectorStore)
		store.On("GetByVectorUUID", mock.Anything, "vec-4").Return(&domain.ChunkRecord{ChunkText: "텍스트"}, nil)
		embedder.On("GenerateEmbedding", mock.Anything, "텍스트").Return(vec, nil)
		store.On("UpdateEmbedding", mock.Anything, "vec-4", vec).Return(errors.New("connection reset"))

		err := NewEmbeddingService(embedder, store).GenerateEmbedding(context.Background(), "vec-4")
		assert.ErrorContains(t, err, "failed to update embedding")
	})
}
