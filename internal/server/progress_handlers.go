package server

import (
	"context"
	"net/http"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/qfold/qfold/internal/modules/runs"
	"github.com/qfold/qfold/internal/queue"
)

// progressWriteTimeout bounds each websocket write so a stalled client
// cannot wedge the handler.
const progressWriteTimeout = 5 * time.Second

// handleProgress streams a run's progress events over a websocket. The
// stream closes after the run's terminal event, or when the client
// disconnects.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Browsers connect from arbitrary origins, matching the CORS policy.
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Str("run_id", run.ID).Msg("Websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "handler exited")

	// The stream is write-only; CloseRead keeps reading in the
	// background so a client disconnect cancels ctx.
	ctx := conn.CloseRead(r.Context())

	// Runs that already finished have no live events; report the stored
	// status once and close.
	if run.Status == runs.StatusCompleted || run.Status == runs.StatusFailed {
		event := map[string]interface{}{
			"run_id":      run.ID,
			"type":        run.Status,
			"best_energy": run.BestEnergy,
			"error":       run.Error,
			"timestamp":   time.Now(),
		}
		writeCtx, cancel := context.WithTimeout(ctx, progressWriteTimeout)
		_ = wsjson.Write(writeCtx, conn, event)
		cancel()
		conn.Close(websocket.StatusNormalClosure, "run already finished")
		return
	}

	events, unsubscribe := s.queue.Hub().Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "client context done")
			return
		case event, open := <-events:
			if !open {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if event.RunID != run.ID {
				continue
			}

			writeCtx, cancel := context.WithTimeout(ctx, progressWriteTimeout)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				closeStatus := websocket.CloseStatus(err)
				if closeStatus != websocket.StatusNormalClosure && closeStatus != websocket.StatusGoingAway {
					s.log.Debug().Err(err).Str("run_id", run.ID).Msg("Progress write failed")
				}
				return
			}

			if event.Type == queue.EventCompleted || event.Type == queue.EventFailed {
				conn.Close(websocket.StatusNormalClosure, "run finished")
				return
			}
		}
	}
}
