package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/frontier/internal/database"
	"github.com/aristath/frontier/internal/modules/session"
)

// SystemHandlers serves health and system status endpoints.
type SystemHandlers struct {
	log      zerolog.Logger
	dataDir  string
	priceDB  *database.DB
	cacheDB  *database.DB
	sessions *session.Service
	started  time.Time
}

// NewSystemHandlers creates system handlers.
func NewSystemHandlers(
	log zerolog.Logger,
	dataDir string,
	priceDB *database.DB,
	cacheDB *database.DB,
	sessions *session.Service,
) *SystemHandlers {
	return &SystemHandlers{
		log:      log.With().Str("handler", "system").Logger(),
		dataDir:  dataDir,
		priceDB:  priceDB,
		cacheDB:  cacheDB,
		sessions: sessions,
		started:  time.Now(),
	}
}

// HandleHealth returns a liveness response including database pings.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	databases := map[string]string{}
	status := http.StatusOK

	for name, db := range map[string]*database.DB{"prices": h.priceDB, "calculations": h.cacheDB} {
		if db == nil {
			databases[name] = "not configured"
			continue
		}
		if err := db.Conn().PingContext(r.Context()); err != nil {
			databases[name] = "error: " + err.Error()
			status = http.StatusServiceUnavailable
		} else {
			databases[name] = "ok"
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "degraded"
	}

	h.writeJSON(w, status, map[string]interface{}{
		"status":    overall,
		"databases": databases,
		"uptime_s":  int(time.Since(h.started).Seconds()),
	})
}

// HandleSystemStatus returns CPU, memory, goroutine and session figures.
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
		"goroutines":     runtime.NumGoroutine(),
		"sessions":       h.sessions.Count(),
		"data_dir":       h.dataDir,
		"data_dir_mb":    h.dirSizeMB(h.dataDir),
	})
}

// systemStats returns CPU and RAM usage percentages. The 100ms sampling
// window keeps the endpoint responsive for polling clients.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
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

func (h *SystemHandlers) dirSizeMB(dir string) float64 {
	var total int64
	_ = filepath.Walk(dir, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return float64(total) / (1024 * 1024)
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
