package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/panelsearch/internal/domain"
)

// memoryIndex is an in-memory vector index and job table behind a fake
// transaction that only publishes writes on commit.
type memoryIndex struct {
	chunks    map[string]*domain.ChunkRecord
	jobs      []*domain.EmbeddingJob
	failOn    string
	txCount   int
	committed int
}

func newMemoryIndex() *memoryIndex {
	return &memoryIndex{chunks: map[string]*domain.ChunkRecord{}}
}

type memoryTx struct {
	idx    *memoryIndex
	chunks map[string]*domain.ChunkRecord
	jobs   []*domain.EmbeddingJob
}

func (t *memoryTx) Chunks() ChunkIndexRepository { return t }
func (t *memoryTx) EmbeddingJobs() JobEnqueuer   { return jobSink{t} }

func (t *memoryTx) Insert(_ context.Context, c *domain.ChunkRecord) (bool, error) {
	if c.VectorUUID == t.idx.failOn {
		return false, errors.New("constraint violation")
	}
	if _, ok := t.idx.chunks[c.VectorUUID]; ok {
		return false, nil
	}
	if _, ok := t.chunks[c.VectorUUID]; ok {
		return false, nil
	}
	t.chunks[c.VectorUUID] = c
	return true, nil
}

type jobSink struct{ t *memoryTx }

func (s jobSink) Create(_ context.Context, job *domain.EmbeddingJob) error {
	s.t.jobs = append(s.t.jobs, job)
	return nil
}

func (m *memoryIndex) WithTx(_ context.Context, fn func(repos TxRepositories) error) error {
	m.txCount++
	tx := &memoryTx{idx: m, chunks: map[string]*domain.ChunkRecord{}}
	if err := fn(tx); err != nil {
		return err
	}
	for k, v := range tx.chunks {
		m.chunks[k] = v
	}
	m.jobs = append(m.jobs, tx.jobs...)
	m.committed++
	return nil
}

const chunkLines = `{"panel_uuid":"P1","response_uuid":"R1","chunk_id":"R1#OV#0001","vector_uuid":"v1","chunk_text":"첫 번째 청크입니다.","span":{"start_char":0,"end_char":11}}
{"panel_uuid":"P1","response_uuid":"R1","chunk_id":"R1#OV#0002","vector_uuid":"v2","chunk_text":"두 번째 청크입니다.","span":{"start_char":12,"end_char":23}}

not json
{"panel_uuid":"P1","response_uuid":"R1","chunk_id":"R1#OV#0003","chunk_text":"no vector uuid"}
{"panel_uuid":"P1","response_uuid":"R1","chunk_id":"R1#OV#0001","vector_uuid":"v1","chunk_text":"첫 번째 청크입니다.","span":{"start_char":0,"end_char":11}}
`

func TestChunkIndexer_IndexStream(t *testing.T) {
	idx := newMemoryIndex()
	x := NewChunkIndexer(idx, &sequenceUUIDGenerator{}, nil)

	stats, err := x.IndexStream(context.Background(), strings.NewReader(chunkLines), "a_overlap.jsonl")
	require.NoError(t, err)

	assert.Equal(t, IndexStats{File: "a_overlap.jsonl", Chunks: 3, Inserted: 2, Duplicates: 1, Skipped: 2}, stats)
	assert.Len(t, idx.chunks, 2)
	require.Len(t, idx.jobs, 2)
	assert.Equal(t, "v1", idx.jobs[0].VectorUUID)
	assert.Equal(t, "vec-1", idx.jobs[0].ID)
	assert.Equal(t, domain.EmbeddingJobStatusPending, idx.jobs[0].Status)
	assert.Equal(t, domain.Span{StartChar: 12, EndChar: 23}, idx.chunks["v2"].Span)
}

func TestChunkIndexer_IndexStream_SkipsOversizedLine(t *testing.T) {
	idx := newMemoryIndex()
	x := NewChunkIndexer(idx, &sequenceUUIDGenerator{}, nil)
	x.maxLine = 200

	huge := `{"vector_uuid":"vx","chunk_text":"` + strings.Repeat("가", 100) + `"}`
	in := huge + "\n" + `{"panel_uuid":123,"response_uuid":null,"chunk_id":"NORESP#OV#0001","vector_uuid":"v9","chunk_text":"숫자 패널 ID"}` + "\n"

	stats, err := x.IndexStream(context.Background(), strings.NewReader(in), "a")
	require.NoError(t, err)

	assert.Equal(t, IndexStats{File: "a", Chunks: 1, Inserted: 1, Skipped: 1}, stats)
	require.Contains(t, idx.chunks, "v9")
	assert.Equal(t, "123", idx.chunks["v9"].PanelUUID.String())
	assert.True(t, idx.chunks["v9"].ResponseUUID.IsZero())
}

func TestChunkIndexer_Rerun(t *testing.T) {
	idx := newMemoryIndex()
	x := NewChunkIndexer(idx, nil, nil)

	_, err := x.IndexStream(context.Background(), strings.NewReader(chunkLines), "a")
	require.NoError(t, err)
	stats, err := x.IndexStream(context.Background(), strings.NewReader(chunkLines), "a")
	require.NoError(t, err)

	assert.Equal(t, 0, stats.Inserted)
	assert.Equal(t, 3, stats.Duplicates)
	assert.Len(t, idx.jobs, 2)
}

func TestChunkIndexer_Batches(t *testing.T) {
	idx := newMemoryIndex()
	x := NewChunkIndexer(idx, nil, nil)
	x.batchSize = 1

	stats, err := x.IndexStream(context.Background(), strings.NewReader(chunkLines), "a")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Inserted)
	assert.Equal(t, 3, idx.txCount)
}

func TestChunkIndexer_FailedBatchRollsBack(t *testing.T) {
	idx := newMemoryIndex()
	idx.failOn = "v2"
	x := NewChunkIndexer(idx, nil, nil)

	_, err := x.IndexStream(context.Background(), strings.NewReader(chunkLines), "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "R1#OV#0002")
	assert.Empty(t, idx.chunks)
	assert.Empty(t, idx.jobs)
	assert.Equal(t, 0, idx.committed)
}

func TestChunkIndexer_IndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers_overlap.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(chunkLines), 0o644))

	stats, err := NewChunkIndexer(newMemoryIndex(), nil, nil).IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "answers_overlap.jsonl", stats.File)

	_, err = NewChunkIndexer(newMemoryIndex(), nil, nil).IndexFile(context.Background(), filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}
