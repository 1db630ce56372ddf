package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/qfold/qfold/internal/modules/benchmark"
	"github.com/qfold/qfold/internal/modules/folding"
	"github.com/qfold/qfold/internal/modules/result"
	"github.com/qfold/qfold/internal/modules/runs"
	"github.com/qfold/qfold/internal/queue"
)

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":  "healthy",
		"version": "1.0.0",
		"service": "qfold",
	}

	s.writeJSON(w, http.StatusOK, response)
}

// handleFold enqueues a folding run and returns it in pending state.
func (s *Server) handleFold(w http.ResponseWriter, r *http.Request) {
	var req folding.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MainChain == "" {
		s.writeError(w, http.StatusBadRequest, "main_chain is required")
		return
	}

	run, err := s.queue.Enqueue(req)
	if err != nil {
		if errors.Is(err, queue.ErrQueueFull) {
			s.writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		s.log.Error().Err(err).Msg("Failed to enqueue folding run")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusAccepted, map[string]interface{}{"data": run})
}

// handleListRuns lists runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	list, err := s.runs.List(limit, offset)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list runs")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []*runs.Run{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": list,
		"metadata": map[string]interface{}{
			"count":  len(list),
			"offset": offset,
		},
	})
}

// handleGetRun returns one run by ID, with the decoded coordinates and
// the artifact files present on disk.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	metadata := map[string]interface{}{}
	if len(run.Turns) > 0 {
		metadata["coordinates"] = result.Coordinates(run.Turns)
	}
	if run.Directory != "" {
		metadata["artifacts"] = s.artifactNames(run.Directory)
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":     run,
		"metadata": metadata,
	})
}

// artifactNames lists which of the known artifact files a run directory
// actually contains.
func (s *Server) artifactNames(directory string) []string {
	names := []string{}
	for _, name := range []string{
		result.FileConformationXYZ, result.FileRawResults, result.FileSparseResults,
		result.FileIterations, result.FileProjection2D, result.FileRotatingGIF,
		result.FileInteractiveHTML,
	} {
		if _, err := os.Stat(filepath.Join(s.cfg.ResultsDir(), directory, name)); err == nil {
			names = append(names, name)
		}
	}
	return names
}

// handleGetDistribution returns a run's measurement distribution.
func (s *Server) handleGetDistribution(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	dist, err := s.runs.Distribution(run.ID)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to load distribution")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if dist == nil {
		dist = map[string]float64{}
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": dist,
		"metadata": map[string]interface{}{
			"run_id": run.ID,
			"count":  len(dist),
		},
	})
}

// handleGetIterations returns a run's optimization trace.
func (s *Server) handleGetIterations(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	trace, err := s.history.Trace(run.ID)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", run.ID).Msg("Failed to load trace")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": trace,
		"metadata": map[string]interface{}{
			"run_id": run.ID,
			"count":  len(trace),
		},
	})
}

// handleGetArtifact serves one artifact file from a run's directory.
// Only the known artifact names are served, so the path cannot escape
// the results tree.
func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	if run.Directory == "" {
		s.writeError(w, http.StatusNotFound, "run has no artifacts yet")
		return
	}

	name := chi.URLParam(r, "name")
	if !result.IsArtifactName(name) {
		s.writeError(w, http.StatusNotFound, "unknown artifact")
		return
	}

	path := filepath.Join(s.cfg.ResultsDir(), run.Directory, name)
	http.ServeFile(w, r, path)
}

// handleBenchmark runs an optimizer benchmark synchronously.
func (s *Server) handleBenchmark(w http.ResponseWriter, r *http.Request) {
	var req benchmark.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MainChain == "" {
		s.writeError(w, http.StatusBadRequest, "main_chain is required")
		return
	}

	report, err := s.benchmark.Run(r.Context(), req)
	if err != nil {
		s.log.Error().Err(err).Msg("Benchmark failed")
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	jsonPath, csvPath, err := s.benchmark.Write(report)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to write benchmark report")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": report,
		"metadata": map[string]interface{}{
			"json_path": jsonPath,
			"csv_path":  csvPath,
		},
	})
}

// lookupRun resolves the {id} URL parameter to a run, writing the
// error response itself when the run cannot be served.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*runs.Run, bool) {
	id := chi.URLParam(r, "id")
	run, err := s.runs.Get(id)
	if err != nil {
		s.log.Error().Err(err).Str("run_id", id).Msg("Failed to load run")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	if run == nil {
		s.writeError(w, http.StatusNotFound, "run not found")
		return nil, false
	}
	return run, true
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]interface{}{"error": message})
}
