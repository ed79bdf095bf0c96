package service

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloo-solutions/panelsearch/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChunkArchiver struct {
	mock.Mock
}

func (m *MockChunkArchiver) PutFile(ctx context.Context, key, path string) error {
	args := m.Called(ctx, key, path)
	return args.Error(0)
}

const sampleRecords = `{"panel_uuid":"P1","response_uuid":"R1","answer_text":"오늘은 날씨가 정말 좋았습니다. 산책을 오래 다녀왔어요."}

{"panel_uuid":"P2","response_uuid":"R2","answer_text":
{"panel_uuid":"P3","response_uuid":"","answer_text":"주말에는 주로 집에서 영화를 봅니다."}
{"panel_uuid":"P4","response_uuid":"R4","answer_text":""}
`

func newTestBatchChunker(t *testing.T, archiver ChunkArchiver) *BatchChunker {
	t.Helper()
	return NewBatchChunker(newTestChunker(t, 800, 160), 2, archiver, nil)
}

func readChunks(t *testing.T, data []byte) []domain.ChunkRecord {
	t.Helper()
	var out []domain.ChunkRecord
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		var c domain.ChunkRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &c))
		out = append(out, c)
	}
	return out
}

func TestOverlapPath(t *testing.T) {
	assert.Equal(t, "data/answers_overlap.jsonl", OverlapPath("data/answers.jsonl"))
	assert.Equal(t, "/tmp/x_overlap.jsonl", OverlapPath("/tmp/x.JSONL"))
}

func TestBatchChunker_ChunkStream(t *testing.T) {
	b := newTestBatchChunker(t, nil)
	var out bytes.Buffer

	stats, err := b.ChunkStream(context.Background(), strings.NewReader(sampleRecords), &out, "answers.jsonl")
	require.NoError(t, err)

	assert.Equal(t, ChunkFileStats{File: "answers.jsonl", Records: 3, Chunks: 2, Skipped: 1}, stats)

	chunks := readChunks(t, out.Bytes())
	require.Len(t, chunks, 2)
	assert.Equal(t, "R1#OV#0001", chunks[0].ChunkID)
	assert.Equal(t, "P1", chunks[0].PanelUUID.String())
	assert.Equal(t, "answers.jsonl", chunks[0].Meta.SourceFile)
	assert.Equal(t, "NORESP#OV#0001", chunks[1].ChunkID)
	assert.Equal(t, "P3", chunks[1].PanelUUID.String())
}

func TestBatchChunker_OutputFieldNames(t *testing.T) {
	b := newTestBatchChunker(t, nil)
	var out bytes.Buffer
	in := `{"panel_uuid":"P1","response_uuid":"R1","answer_text":"오늘은 날씨가 정말 좋았습니다."}`

	_, err := b.ChunkStream(context.Background(), strings.NewReader(in), &out, "a.jsonl")
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &raw))
	for _, key := range []string{"panel_uuid", "response_uuid", "chunk_id", "vector_uuid", "chunk_text", "span", "chunk_type", "section", "labels", "confidence", "meta"} {
		assert.Contains(t, raw, key)
	}
	span := raw["span"].(map[string]any)
	assert.Contains(t, span, "start_char")
	assert.Contains(t, span, "end_char")
	assert.NotContains(t, raw, "Embedding")
}

func TestBatchChunker_ChunkFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.jsonl")
	second := filepath.Join(dir, "second.jsonl")
	require.NoError(t, os.WriteFile(first, []byte(sampleRecords), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(`{"panel_uuid":"P9","response_uuid":"R9","answer_text":"회사 근처 카페에서 점심을 먹었습니다."}`+"\n"), 0o644))
	notJSONL := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(notJSONL, []byte("hello"), 0o644))

	archiver := new(MockChunkArchiver)
	archiver.On("PutFile", mock.Anything, "first_overlap.jsonl", filepath.Join(dir, "first_overlap.jsonl")).Return(nil)
	archiver.On("PutFile", mock.Anything, "second_overlap.jsonl", filepath.Join(dir, "second_overlap.jsonl")).Return(nil)

	b := newTestBatchChunker(t, archiver)
	results, err := b.ChunkFiles(context.Background(), []string{
		first,
		filepath.Join(dir, "missing.jsonl"),
		notJSONL,
		second,
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "first.jsonl", results[0].File)
	assert.Equal(t, 3, results[0].Records)
	assert.Equal(t, 1, results[0].Skipped)
	assert.Equal(t, "first_overlap.jsonl", results[0].Archived)
	assert.Equal(t, "second.jsonl", results[1].File)
	assert.Equal(t, 1, results[1].Chunks)

	data, err := os.ReadFile(filepath.Join(dir, "second_overlap.jsonl"))
	require.NoError(t, err)
	chunks := readChunks(t, data)
	require.Len(t, chunks, 1)
	assert.Equal(t, "R9#OV#0001", chunks[0].ChunkID)

	archiver.AssertExpectations(t)
}

func TestBatchChunker_ArchiveFailureIsPerFile(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.jsonl")
	second := filepath.Join(dir, "second.jsonl")
	require.NoError(t, os.WriteFile(first, []byte(sampleRecords), 0o644))
	require.NoError(t, os.WriteFile(second, []byte(sampleRecords), 0o644))

	archiver := new(MockChunkArchiver)
	archiver.On("PutFile", mock.Anything, "first_overlap.jsonl", mock.Anything).Return(errors.New("bucket unavailable"))
	archiver.On("PutFile", mock.Anything, "second_overlap.jsonl", mock.Anything).Return(nil)

	results, err := newTestBatchChunker(t, archiver).ChunkFiles(context.Background(), []string{first, second})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].Failed())
	assert.Contains(t, results[0].Error, "failed to archive")
	assert.Equal(t, "first.jsonl", results[0].File)
	assert.Equal(t, 2, results[0].Chunks)

	assert.False(t, results[1].Failed())
	assert.Equal(t, "second_overlap.jsonl", results[1].Archived)
	archiver.AssertExpectations(t)
}

func TestBatchChunker_UnwritableOutputIsPerFile(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.jsonl")
	good := filepath.Join(dir, "good.jsonl")
	require.NoError(t, os.WriteFile(bad, []byte(sampleRecords), 0o644))
	require.NoError(t, os.WriteFile(good, []byte(sampleRecords), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bad_overlap.jsonl"), 0o755))

	results, err := newTestBatchChunker(t, nil).ChunkFiles(context.Background(), []string{bad, good})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, "bad.jsonl", results[0].File)
	assert.Contains(t, results[0].Error, "failed to create")
	assert.Equal(t, ChunkFileStats{
		File:    "good.jsonl",
		Records: 3,
		Chunks:  2,
		Skipped: 1,
		Output:  filepath.Join(dir, "good_overlap.jsonl"),
	}, results[1])
}

func TestBatchChunker_ChunkFilesCancelled(t *testing.T) {
	in := filepath.Join(t.TempDir(), "answers.jsonl")
	require.NoError(t, os.WriteFile(in, []byte(sampleRecords), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestBatchChunker(t, nil).ChunkFiles(ctx, []string{in})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchChunker_ChunkStream_SkipsBadLines(t *testing.T) {
	const (
		limit = 256
		good1 = `{"panel_uuid":"P1","response_uuid":"R1","answer_text":"오늘은 날씨가 정말 좋았습니다."}`
		good2 = `{"panel_uuid":"P2","response_uuid":"R2","answer_text":"회사 근처 카페에서 점심을 먹었습니다."}`
	)
	oversized := `{"panel_uuid":"PX","response_uuid":"RX","answer_text":"` + strings.Repeat("가", limit) + `"}`

	tests := []struct {
		name    string
		input   string
		skipped int
		ids     []string
	}{
		{
			name:    "malformed line before valid records",
			input:   "{not json\n" + good1 + "\n" + good2 + "\n",
			skipped: 1,
			ids:     []string{"R1#OV#0001", "R2#OV#0001"},
		},
		{
			name:    "oversized line between valid records",
			input:   good1 + "\n" + oversized + "\n" + good2 + "\n",
			skipped: 1,
			ids:     []string{"R1#OV#0001", "R2#OV#0001"},
		},
		{
			name:    "oversized last line without newline",
			input:   good1 + "\n" + oversized,
			skipped: 1,
			ids:     []string{"R1#OV#0001"},
		},
		{
			name:    "last line without newline",
			input:   good1 + "\r\n" + good2,
			skipped: 0,
			ids:     []string{"R1#OV#0001", "R2#OV#0001"},
		},
		{
			name:    "every bad kind",
			input:   oversized + "\n\n[1,2]\n" + good2 + "\n{\n",
			skipped: 3,
			ids:     []string{"R2#OV#0001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBatchChunker(t, nil)
			b.maxLine = limit
			var out bytes.Buffer

			stats, err := b.ChunkStream(context.Background(), strings.NewReader(tt.input), &out, "answers.jsonl")
			require.NoError(t, err)

			assert.Equal(t, tt.skipped, stats.Skipped)
			assert.Equal(t, len(tt.ids), stats.Records)
			assert.Equal(t, len(tt.ids), stats.Chunks)

			var ids []string
			for _, c := range readChunks(t, out.Bytes()) {
				ids = append(ids, c.ChunkID)
			}
			assert.Equal(t, tt.ids, ids)
		})
	}
}

func TestBatchChunker_ChunkStream_OpaqueIDs(t *testing.T) {
	in := `{"panel_uuid":123,"response_uuid":456,"answer_text":"오늘은 날씨가 정말 좋았습니다."}
{"panel_uuid":null,"answer_text":"주말에는 주로 집에서 영화를 봅니다."}
`
	var out bytes.Buffer
	stats, err := newTestBatchChunker(t, nil).ChunkStream(context.Background(), strings.NewReader(in), &out, "answers.jsonl")
	require.NoError(t, err)
	assert.Equal(t, ChunkFileStats{File: "answers.jsonl", Records: 2, Chunks: 2}, stats)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var numeric, missing map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &numeric))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &missing))

	assert.Equal(t, float64(123), numeric["panel_uuid"])
	assert.Equal(t, float64(456), numeric["response_uuid"])
	assert.Equal(t, "456#OV#0001", numeric["chunk_id"])

	assert.Contains(t, missing, "panel_uuid")
	assert.Nil(t, missing["panel_uuid"])
	assert.Nil(t, missing["response_uuid"])
	assert.Equal(t, "NORESP#OV#0001", missing["chunk_id"])
}

func TestReadLine(t *testing.T) {
	r := bufio.NewReaderSize(strings.NewReader("short\n"+strings.Repeat("x", 40)+"\nexact\r\ntail"), 16)

	line, oversized, err := readLine(r, 8)
	require.NoError(t, err)
	assert.False(t, oversized)
	assert.Equal(t, "short", string(line))

	line, oversized, err = readLine(r, 8)
	require.NoError(t, err)
	assert.True(t, oversized)
	assert.Nil(t, line)

	line, oversized, err = readLine(r, 5)
	require.NoError(t, err)
	assert.False(t, oversized)
	assert.Equal(t, "exact", string(line))

	line, oversized, err = readLine(r, 8)
	assert.ErrorIs(t, err, io.EOF)
	assert.False(t, oversized)
	assert.Equal(t, "tail", string(line))
}
