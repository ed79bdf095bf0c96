//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap/zaptest"

	"github.com/cloo-solutions/panelsearch/internal/api/handlers"
	"github.com/cloo-solutions/panelsearch/internal/repository"
	"github.com/cloo-solutions/panelsearch/internal/server"
	"github.com/cloo-solutions/panelsearch/internal/service"
	"github.com/cloo-solutions/panelsearch/internal/testutil"
)

const archiveBucket = "test-chunks"

// Env is one e2e run: Postgres and RustFS containers, an in-process API
// server without OpenAI, and optionally a built panelsearch binary.
type Env struct {
	t      *testing.T
	Ctx    context.Context
	Pool   *pgxpool.Pool
	DB     *testutil.PostgresContainer
	S3     *testutil.RustFSContainer
	server *httptest.Server
	client *http.Client
	binary string
}

func SetupE2EEnv(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()

	db := testutil.NewPostgresContainer(ctx, t)
	s3 := testutil.NewRustFSContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, db)

	env := &Env{
		t:      t,
		Ctx:    ctx,
		Pool:   pool,
		DB:     db,
		S3:     s3,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	env.server = httptest.NewServer(newRouter(t, pool))
	return env
}

// newRouter wires the API the way `panelsearch serve` does when no OpenAI
// key is configured.
func newRouter(t *testing.T, pool *pgxpool.Pool) http.Handler {
	logger := zaptest.NewLogger(t)
	search := service.NewSearchService(
		service.NewQueryParser(),
		repository.NewPanelRepository(pool),
		service.WithQueryLog(repository.NewQueryLogRepository(pool)),
		service.WithLogger(logger),
	)
	chunks := handlers.NewChunkHandler(
		service.DefaultChunkConfig(),
		&service.DefaultUUIDGenerator{},
		repository.NewResponseRepository(pool),
		nil,
	)
	return server.NewRouter(server.RouterConfig{
		SearchHandler: handlers.NewSearchHandler(search),
		ChunkHandler:  chunks,
		Logger:        logger,
	})
}

// Cleanup stops the API server. Containers and the pool go away through
// t.Cleanup.
func (e *Env) Cleanup() {
	e.server.Close()
}

// BuildBinary compiles cmd/panelsearch into a per-test temp dir.
func (e *Env) BuildBinary() {
	e.t.Helper()
	e.binary = filepath.Join(e.t.TempDir(), "panelsearch")

	cmd := exec.Command("go", "build", "-o", e.binary, "./cmd/panelsearch")
	cmd.Dir = filepath.Join(testutil.MigrationsDir(), "..")
	if out, err := cmd.CombinedOutput(); err != nil {
		e.t.Fatalf("failed to build panelsearch: %v\n%s", err, out)
	}
}

// RunCLI runs the built binary in workDir against the containers.
func (e *Env) RunCLI(workDir string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.Command(e.binary, args...)
	cmd.Dir = workDir
	cmd.Env = append(os.Environ(),
		"PANEL_DATABASE_URL="+e.DB.ConnectionString(),
		"PANEL_S3_ENDPOINT="+e.S3.Endpoint(),
		"PANEL_S3_ACCESS_KEY_ID="+testutil.RustFSAccessKey,
		"PANEL_S3_SECRET_ACCESS_KEY="+testutil.RustFSSecretKey,
		"PANEL_S3_BUCKET="+archiveBucket,
		"PANEL_OPENAI_API_KEY=",
		"PANEL_SENTRY_DSN=",
	)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	err = cmd.Run()
	return out.String(), errOut.String(), err
}

// APIResponse is either envelope the API returns, plus the HTTP status.
type APIResponse struct {
	Status int
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error,omitempty"`
	Code   string          `json:"code,omitempty"`
}

func (e *Env) Get(path string) (*APIResponse, error) {
	return e.call(http.MethodGet, path, nil)
}

func (e *Env) Post(path string, body any) (*APIResponse, error) {
	return e.call(http.MethodPost, path, body)
}

// call returns an error only for transport or decoding failures, never for
// the HTTP status.
func (e *Env) call(method, path string, body any) (*APIResponse, error) {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(e.Ctx, method, e.server.URL+path, r)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	out := &APIResponse{Status: resp.StatusCode}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, raw)
	}
	return out, nil
}

// DownloadFile fetches a presigned archive URL.
func (e *Env) DownloadFile(url string) ([]byte, error) {
	resp, err := e.client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
