package server

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/foliolabs/folio/internal/cache"
	"github.com/foliolabs/folio/internal/database"
)

// SystemHandlers serves process and host health endpoints.
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	holdingsDB  *database.DB
	store       *cache.Store
}

// NewSystemHandlers creates the system endpoints.
func NewSystemHandlers(holdingsDB *database.DB, store *cache.Store, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		holdingsDB:  holdingsDB,
		store:       store,
	}
}

// HandleHealth is the liveness probe: process up and database reachable.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if h.holdingsDB != nil {
		if err := h.holdingsDB.HealthCheck(ctx); err != nil {
			h.log.Error().Err(err).Msg("Health check failed")
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"status":"` + status + `"}`))
}

// HandleSystemStatus reports process uptime, host resource usage and
// cache occupancy.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"uptime_seconds": int64(time.Since(h.startupTime).Seconds()),
		"goroutines":     runtime.NumGoroutine(),
	}

	if cpuPercent, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(cpuPercent) > 0 {
		response["cpu_percent"] = cpuPercent[0]
	} else if err != nil {
		h.log.Debug().Err(err).Msg("CPU usage unavailable")
	}

	if memStat, err := mem.VirtualMemory(); err == nil {
		response["memory_percent"] = memStat.UsedPercent
		response["memory_used_mb"] = memStat.Used / 1024 / 1024
	} else {
		h.log.Debug().Err(err).Msg("Memory usage unavailable")
	}

	if h.store != nil {
		response["cache_entries"] = h.store.Len()
	}
	if h.holdingsDB != nil {
		response["holdings_db"] = h.holdingsDB.Path()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode system status")
	}
}
