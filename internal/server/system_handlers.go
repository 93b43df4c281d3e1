package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/aristath/marketadvisor/internal/database"
	"github.com/aristath/marketadvisor/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// BreakerReporter reports market data provider breaker states
type BreakerReporter interface {
	BreakerStates() map[string]string
}

// SystemHandlers handles system monitoring and job trigger endpoints
type SystemHandlers struct {
	log          zerolog.Logger
	startupTime  time.Time
	cacheBackend string
	cacheDB      *database.DB // nil unless the SQLite cache is in use
	breakers     BreakerReporter
	sched        *scheduler.Scheduler
	jobs         map[string]scheduler.Job
	cpuInterval  time.Duration
}

// NewSystemHandlers creates the system handlers. cacheDB, breakers and sched may be nil.
func NewSystemHandlers(
	log zerolog.Logger,
	cacheBackend string,
	cacheDB *database.DB,
	breakers BreakerReporter,
	sched *scheduler.Scheduler,
	jobs ...scheduler.Job,
) *SystemHandlers {
	h := &SystemHandlers{
		log:          log.With().Str("handler", "system").Logger(),
		startupTime:  time.Now(),
		cacheBackend: cacheBackend,
		cacheDB:      cacheDB,
		breakers:     breakers,
		sched:        sched,
		jobs:         make(map[string]scheduler.Job, len(jobs)),
		cpuInterval:  100 * time.Millisecond,
	}
	for _, job := range jobs {
		if job != nil {
			h.jobs[job.Name()] = job
		}
	}
	return h
}

// SystemStatusResponse is the GET /api/system/status payload
type SystemStatusResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	CPUPercent    float64           `json:"cpu_percent"`
	RAMPercent    float64           `json:"ram_percent"`
	Goroutines    int               `json:"goroutines"`
	CacheBackend  string            `json:"cache_backend"`
	CacheStats    *database.Stats   `json:"cache_stats,omitempty"`
	Breakers      map[string]string `json:"breakers,omitempty"`
	Jobs          []string          `json:"jobs"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, ramPercent := h.getSystemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		RAMPercent:    ramPercent,
		Goroutines:    runtime.NumGoroutine(),
		CacheBackend:  h.cacheBackend,
		Jobs:          make([]string, 0, len(h.jobs)),
	}

	if h.cacheDB != nil {
		if err := h.cacheDB.QuickCheck(r.Context()); err != nil {
			h.log.Warn().Err(err).Msg("Cache database ping failed")
			response.Status = "degraded"
		} else if stats, err := h.cacheDB.GetStats(); err != nil {
			h.log.Warn().Err(err).Msg("Failed to get cache database stats")
		} else {
			response.CacheStats = stats
		}
	}

	if h.breakers != nil {
		response.Breakers = h.breakers.BreakerStates()
		for _, state := range response.Breakers {
			if state == "open" {
				response.Status = "degraded"
			}
		}
	}

	for name := range h.jobs {
		response.Jobs = append(response.Jobs, name)
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": response,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleTriggerJob handles POST /api/system/jobs/{name}
// Runs a registered job immediately and reports its outcome
func (h *SystemHandlers) HandleTriggerJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	job, ok := h.jobs[name]
	if !ok {
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job " + name})
		return
	}

	h.log.Info().Str("job", name).Msg("Manual job run triggered")

	var err error
	if h.sched != nil {
		err = h.sched.RunNow(job)
	} else {
		err = job.Run()
	}
	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manual job run failed")
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"status": "error", "message": err.Error()})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "success", "message": name + " completed"})
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over cpuInterval, so the call blocks that long.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(h.cpuInterval, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
