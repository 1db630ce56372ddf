package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// handleSystemStatus reports host and process health.
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"uptime_seconds": time.Since(s.startedAt).Seconds(),
		"goroutines":     runtime.NumGoroutine(),
		"go_version":     runtime.Version(),
	}

	// Sample CPU over a short window; a zero interval would report
	// usage since boot.
	if percentages, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percentages) > 0 {
		var total float64
		for _, p := range percentages {
			total += p
		}
		status["cpu_percent"] = total / float64(len(percentages))
	} else if err != nil {
		s.log.Warn().Err(err).Msg("Failed to sample CPU usage")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		status["memory"] = map[string]interface{}{
			"total_bytes":     memStat.Total,
			"available_bytes": memStat.Available,
			"used_percent":    memStat.UsedPercent,
		}
	} else {
		s.log.Warn().Err(err).Msg("Failed to read memory stats")
	}

	if counts, err := s.runs.CountByStatus(); err == nil {
		status["runs"] = counts
	} else {
		s.log.Warn().Err(err).Msg("Failed to count runs")
	}

	if diskStat, err := disk.Usage(s.cfg.DataDir); err == nil {
		status["disk"] = map[string]interface{}{
			"total_bytes":  diskStat.Total,
			"free_bytes":   diskStat.Free,
			"used_percent": diskStat.UsedPercent,
		}
	} else {
		s.log.Warn().Err(err).Msg("Failed to read disk stats")
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{"data": status})
}

// handleDatabaseStats reports SQLite statistics for the runs database.
func (s *Server) handleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.runsDB.GetStats()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to read database stats")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": map[string]interface{}{
			"name":            s.runsDB.Name(),
			"size_bytes":      stats.SizeBytes,
			"wal_size_bytes":  stats.WALSizeBytes,
			"page_count":      stats.PageCount,
			"page_size":       stats.PageSize,
			"freelist_count":  stats.FreelistCount,
		},
	})
}
