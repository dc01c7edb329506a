package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/forecast/internal/database"
)

// MonitoredDB is the part of database.DB the status endpoints read.
type MonitoredDB interface {
	Name() string
	QuickCheck(ctx context.Context) error
	GetStats() (*database.Stats, error)
}

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	databases   []MonitoredDB
	systemStats func() (float64, float64)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, databases []MonitoredDB) *SystemHandlers {
	h := &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		databases:   databases,
	}
	h.systemStats = h.getSystemStats
	return h
}

// SystemStatusResponse is the body of GET /api/system/status
type SystemStatusResponse struct {
	Status        string           `json:"status"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	CPUPercent    float64          `json:"cpu_percent"`
	MemoryPercent float64          `json:"memory_percent"`
	Goroutines    int              `json:"goroutines"`
	DataDirMB     float64          `json:"data_dir_mb"`
	Databases     []database.Stats `json:"databases"`
	Errors        []string         `json:"errors,omitempty"`
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.systemStats()

	response := SystemStatusResponse{
		Status:        "healthy",
		Version:       Version,
		UptimeSeconds: int64(time.Since(h.startupTime).Seconds()),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		Goroutines:    runtime.NumGoroutine(),
		DataDirMB:     h.dirSizeMB(h.dataDir),
		Databases:     []database.Stats{},
	}

	for _, db := range h.databases {
		stats, err := db.GetStats()
		if err != nil {
			h.log.Warn().Err(err).Str("database", db.Name()).Msg("Failed to get database stats")
			response.Status = "degraded"
			response.Errors = append(response.Errors, db.Name()+": "+err.Error())
			continue
		}
		response.Databases = append(response.Databases, *stats)
	}

	writeJSON(h.log, w, http.StatusOK, response)
}

// checkDatabases pings every database and returns the first failure.
func (h *SystemHandlers) checkDatabases(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	for _, db := range h.databases {
		if err := db.QuickCheck(ctx); err != nil {
			return err
		}
	}
	return nil
}

// dirSizeMB sums the sizes of regular files under dirPath
func (h *SystemHandlers) dirSizeMB(dirPath string) float64 {
	if dirPath == "" {
		return 0
	}

	var totalSize int64
	err := filepath.Walk(dirPath, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			totalSize += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dirPath).Msg("Failed to calculate directory size")
		return 0
	}

	return float64(totalSize) / 1024 / 1024
}

// getSystemStats returns CPU and RAM usage percentages.
// CPU is sampled over 100ms to keep the endpoint fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
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
