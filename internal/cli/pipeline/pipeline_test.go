package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloo-solutions/panelsearch/internal/cli"
	"github.com/cloo-solutions/panelsearch/internal/domain"
)

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	root := &cobra.Command{Use: "panelsearch", SilenceUsage: true, SilenceErrors: true}
	cli.AddEnvFileFlag(root)
	root.AddCommand(cmd)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{cmd.Name()}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestParseCmd_Full(t *testing.T) {
	out, err := execute(t, ParseCmd(), "서울에", "사는", "20대", "초반", "남성", "IT", "종사자를", "찾아줘")
	require.NoError(t, err)

	var analysis domain.QueryAnalysis
	require.NoError(t, json.Unmarshal([]byte(out), &analysis))
	assert.Equal(t, "서울에 사는 20대 초반 남성 IT 종사자를 찾아줘", analysis.OriginalQuery)
	assert.Equal(t, domain.IntentFindTarget, analysis.SearchIntent)
	assert.Equal(t, "IT/기술", analysis.SearchConditions.Job)
	assert.Contains(t, out, "\n  \"", "indented by default")
}

func TestParseCmd_Stages(t *testing.T) {
	out, err := execute(t, ParseCmd(), "--stage", "parsed", "--compact", "30대 여성")
	require.NoError(t, err)

	var parsed domain.ParsedQuery
	require.NoError(t, json.Unmarshal([]byte(out), &parsed))
	assert.Equal(t, "여성", parsed.Features.Gender)
	assert.Equal(t, 1, bytes.Count([]byte(out), []byte("\n")))

	out, err = execute(t, ParseCmd(), "--stage", "augmented", "20대")
	require.NoError(t, err)
	var augmented domain.AugmentedQuery
	require.NoError(t, json.Unmarshal([]byte(out), &augmented))
	require.NotEmpty(t, augmented.Suggestions)
	assert.Equal(t, "미혼", augmented.Suggestions[0].Value)
}

func TestParseCmd_UnknownStage(t *testing.T) {
	_, err := execute(t, ParseCmd(), "--stage", "sql", "30대")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown stage")
}

func TestParseCmd_RequiresQuery(t *testing.T) {
	_, err := execute(t, ParseCmd())
	assert.Error(t, err)
}

func TestChunkCmd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "answers.jsonl")
	records := `{"panel_uuid":"P1","response_uuid":"R1","answer_text":"aaaaaaaaa. bbbbbbbbb. ccccccccc. ddddddddd."}
not json
`
	require.NoError(t, os.WriteFile(in, []byte(records), 0o644))

	out, err := execute(t, ChunkCmd(), in, filepath.Join(dir, "missing.jsonl"), "--max-chars", "21", "--overlap", "10", "--workers", "2")
	require.NoError(t, err)

	var res chunkResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "answers.jsonl", res.File)
	assert.Equal(t, 1, res.Records)
	assert.Equal(t, 3, res.Chunks)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, filepath.Join(dir, "answers_overlap.jsonl"), res.Output)
	assert.Empty(t, res.DownloadURL)

	f, err := os.Open(res.Output)
	require.NoError(t, err)
	defer f.Close()
	var ids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var c domain.ChunkRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &c))
		assert.Equal(t, domain.ChunkWindow{MaxChars: 21, Overlap: 10}, c.Meta.Window)
		ids = append(ids, c.ChunkID)
	}
	assert.Equal(t, []string{"R1#OV#0001", "R1#OV#0002", "R1#OV#0003"}, ids)
}

func TestChunkCmd_FailedFileReported(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.jsonl")
	bad := filepath.Join(dir, "bad.jsonl")
	record := `{"panel_uuid":"P1","response_uuid":"R1","answer_text":"오늘은 날씨가 정말 좋았습니다."}` + "\n"
	require.NoError(t, os.WriteFile(good, []byte(record), 0o644))
	require.NoError(t, os.WriteFile(bad, []byte(record), 0o644))
	// a directory in place of the output file makes bad.jsonl fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "bad_overlap.jsonl"), 0o755))

	out, err := execute(t, ChunkCmd(), bad, good)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 files failed")

	var results []chunkResult
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		var res chunkResult
		require.NoError(t, json.Unmarshal(sc.Bytes(), &res))
		results = append(results, res)
	}
	require.Len(t, results, 2)
	assert.Equal(t, "bad.jsonl", results[0].File)
	assert.NotEmpty(t, results[0].Error)
	assert.Equal(t, "good.jsonl", results[1].File)
	assert.Empty(t, results[1].Error)
	assert.Equal(t, 1, results[1].Chunks)
	assert.FileExists(t, filepath.Join(dir, "good_overlap.jsonl"))
}

func TestChunkCmd_InvalidWindow(t *testing.T) {
	in := filepath.Join(t.TempDir(), "answers.jsonl")
	require.NoError(t, os.WriteFile(in, []byte("{}\n"), 0o644))

	_, err := execute(t, ChunkCmd(), in, "--max-chars", "50", "--overlap", "50")
	assert.ErrorIs(t, err, domain.ErrInvalidChunkConfig)
}

func TestChunkCmd_UploadWithoutS3(t *testing.T) {
	t.Setenv("PANEL_S3_ENDPOINT", "")
	in := filepath.Join(t.TempDir(), "answers.jsonl")
	require.NoError(t, os.WriteFile(in, []byte("{}\n"), 0o644))

	_, err := execute(t, ChunkCmd(), in, "--upload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "S3 is not configured")
}
