package server

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/qfold/qfold/internal/modules/runs"
	"github.com/qfold/qfold/internal/queue"
)

func createTestRun(t *testing.T, repo *runs.Repository, id string) {
	t.Helper()
	require.NoError(t, repo.Create(&runs.Run{
		ID: id, MainChain: "APRLQ", SideChain: "_____",
		Encoding: "dense", Interaction: "mj", Optimizer: "nelder-mead",
		Backend: "local", Status: runs.StatusPending, CreatedAt: time.Now(),
	}))
}

func dialProgress(t *testing.T, ctx context.Context, ts *httptest.Server, runID string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/runs/" + runID + "/progress"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	return conn
}

func TestProgressStreamsUntilTerminalEvent(t *testing.T) {
	srv, runRepo, _ := newTestServer(t)
	createTestRun(t, runRepo, "run-ws")
	require.NoError(t, runRepo.MarkRunning("run-ws"))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dialProgress(t, ctx, ts, "run-ws")
	defer conn.Close(websocket.StatusNormalClosure, "")

	hub := srv.queue.Hub()
	go func() {
		// Let the handler subscribe before the first publish.
		time.Sleep(100 * time.Millisecond)
		hub.Publish(queue.Event{RunID: "other", Type: queue.EventIteration, Iteration: 1})
		hub.Publish(queue.Event{RunID: "run-ws", Type: queue.EventIteration, Iteration: 1, Energy: -0.5})
		hub.Publish(queue.Event{RunID: "run-ws", Type: queue.EventCompleted, BestEnergy: -1.25})
	}()

	var first queue.Event
	require.NoError(t, wsjson.Read(ctx, conn, &first))
	assert.Equal(t, "run-ws", first.RunID)
	assert.Equal(t, queue.EventIteration, first.Type)
	assert.InDelta(t, -0.5, first.Energy, 1e-12)

	var terminal queue.Event
	require.NoError(t, wsjson.Read(ctx, conn, &terminal))
	assert.Equal(t, queue.EventCompleted, terminal.Type)
	assert.InDelta(t, -1.25, terminal.BestEnergy, 1e-12)

	// The server closes the stream after the terminal event.
	var extra queue.Event
	err := wsjson.Read(ctx, conn, &extra)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}

func TestProgressReportsStoredStatusForFinishedRun(t *testing.T) {
	srv, runRepo, _ := newTestServer(t)
	createTestRun(t, runRepo, "run-done")
	require.NoError(t, runRepo.Complete("run-done", &runs.Outcome{
		Directory:  "2024_01_02-03_04_05-APRLQ-_____",
		BestEnergy: -2.5,
	}))

	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn := dialProgress(t, ctx, ts, "run-done")
	defer conn.Close(websocket.StatusNormalClosure, "")

	var event queue.Event
	require.NoError(t, wsjson.Read(ctx, conn, &event))
	assert.Equal(t, "run-done", event.RunID)
	assert.Equal(t, runs.StatusCompleted, event.Type)
	assert.InDelta(t, -2.5, event.BestEnergy, 1e-12)

	var extra queue.Event
	err := wsjson.Read(ctx, conn, &extra)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusNormalClosure, websocket.CloseStatus(err))
}
