package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qfold/qfold/internal/config"
	"github.com/qfold/qfold/internal/database"
	"github.com/qfold/qfold/internal/modules/benchmark"
	"github.com/qfold/qfold/internal/modules/folding"
	"github.com/qfold/qfold/internal/modules/history"
	"github.com/qfold/qfold/internal/modules/result"
	"github.com/qfold/qfold/internal/modules/runs"
	"github.com/qfold/qfold/internal/queue"
)

func newTestServer(t *testing.T) (*Server, *runs.Repository, *config.Config) {
	t.Helper()
	log := zerolog.Nop()
	dataDir := t.TempDir()

	cfg := &config.Config{
		DataDir:       dataDir,
		Port:          0,
		Encoding:      "dense",
		Interaction:   "mj",
		Optimizer:     "nelder-mead",
		MaxIterations: 5,
		MaxQubits:     26,
		Backend:       "local",
	}

	db, err := database.New(database.Config{
		Path: filepath.Join(dataDir, "runs.db"),
		Name: "runs",
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runRepo, err := runs.NewRepository(db, log)
	require.NoError(t, err)

	historyRepo, err := history.NewRepository(filepath.Join(dataDir, "history.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { historyRepo.Close() })

	foldingService := folding.NewService(cfg, log)
	manager := queue.NewManager(foldingService, runRepo, historyRepo, queue.NewHub(), log)

	srv := New(Config{
		Log:       log,
		Config:    cfg,
		RunsDB:    db,
		Runs:      runRepo,
		History:   historyRepo,
		Queue:     manager,
		Benchmark: benchmark.NewService(cfg, log),
	})
	return srv, runRepo, cfg
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, "qfold", payload["service"])
}

func TestFoldValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/fold", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/fold", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFoldEnqueuesPendingRun(t *testing.T) {
	srv, runRepo, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/fold", `{"main_chain":"APRLQ"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var payload struct {
		Data runs.Run `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.NotEmpty(t, payload.Data.ID)
	assert.Equal(t, "APRLQ", payload.Data.MainChain)
	assert.Equal(t, runs.StatusPending, payload.Data.Status)
	// Defaults filled in from the configuration.
	assert.Equal(t, "dense", payload.Data.Encoding)
	assert.Equal(t, "mj", payload.Data.Interaction)

	stored, err := runRepo.Get(payload.Data.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, runs.StatusPending, stored.Status)
}

func TestListRuns(t *testing.T) {
	srv, runRepo, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/runs/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data     []runs.Run             `json:"data"`
		Metadata map[string]interface{} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Empty(t, payload.Data)

	require.NoError(t, runRepo.Create(&runs.Run{
		ID: "r1", MainChain: "APRLQ", SideChain: "_____",
		Encoding: "dense", Interaction: "mj", Optimizer: "nelder-mead",
		Backend: "local", Status: runs.StatusPending,
		CreatedAt: time.Now().UTC(),
	}))

	rec = doRequest(t, srv, http.MethodGet, "/api/runs/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Len(t, payload.Data, 1)
	assert.Equal(t, "r1", payload.Data[0].ID)
}

func TestGetRunNotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/runs/missing/", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetArtifact(t *testing.T) {
	srv, runRepo, cfg := newTestServer(t)

	dir := "2024_03_07-15_04_05-APRLQ-_____"
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ResultsDir(), dir), 0755))
	content := "2\nconformation of APRLQ\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(cfg.ResultsDir(), dir, result.FileConformationXYZ),
		[]byte(content), 0644))

	require.NoError(t, runRepo.Create(&runs.Run{
		ID: "r1", MainChain: "APRLQ", SideChain: "_____",
		Encoding: "dense", Interaction: "mj", Optimizer: "nelder-mead",
		Backend: "local", Status: runs.StatusPending,
		CreatedAt: time.Now().UTC(),
	}))
	require.NoError(t, runRepo.Complete("r1", &runs.Outcome{Directory: dir}))

	rec := doRequest(t, srv, http.MethodGet, "/api/runs/r1/artifacts/"+result.FileConformationXYZ, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.String())

	// Names outside the artifact set are rejected, traversal included.
	rec = doRequest(t, srv, http.MethodGet, "/api/runs/r1/artifacts/secrets.txt", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBenchmarkValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodPost, "/api/benchmark", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, srv, http.MethodPost, "/api/benchmark", `{"main_chain":"APRLQ","interaction":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSystemStatus(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/system/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Contains(t, payload.Data, "uptime_seconds")
	assert.Contains(t, payload.Data, "goroutines")
}

func TestDatabaseStats(t *testing.T) {
	srv, _, _ := newTestServer(t)

	rec := doRequest(t, srv, http.MethodGet, "/api/system/database/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var payload struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	assert.Equal(t, "runs", payload.Data["name"])
}
