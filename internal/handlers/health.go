package handlers

import (
	"net/http"
	"runtime"
	"time"

	"pixel-basket/internal/catalog"
	"pixel-basket/internal/metrics"
	"pixel-basket/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusScanning = "scanning"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Error   string `json:"error,omitempty"`

	Catalog catalog.Status        `json:"catalog"`
	Stats   *metrics.CatalogStats `json:"stats,omitempty"`
	Memory  *MemoryStatus         `json:"memory,omitempty"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// MemoryStatus is the heap usage seen by the memory monitor.
type MemoryStatus struct {
	HeapBytes  int64   `json:"heapBytes"`
	LimitBytes int64   `json:"limitBytes"`
	Ratio      float64 `json:"ratio"`
	Paused     bool    `json:"paused"`
}

// HealthCheck reports the scan state and catalog counts. It answers 503
// only when the catalog cannot be read.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.catalog.Status()
	response := HealthResponse{
		Status:       statusHealthy,
		Version:      startup.Version,
		Uptime:       time.Since(status.StartedAt).Truncate(time.Second).String(),
		Catalog:      status,
		GoVersion:    runtime.Version(),
		NumCPU:       runtime.NumCPU(),
		NumGoroutine: runtime.NumGoroutine(),
	}
	if status.Scanning {
		response.Status = statusScanning
	}
	if h.memory != nil {
		current, limit, ratio := h.memory.Usage()
		response.Memory = &MemoryStatus{
			HeapBytes:  current,
			LimitBytes: limit,
			Ratio:      ratio,
			Paused:     h.memory.Paused(),
		}
	}

	code := http.StatusOK
	stats, err := h.catalog.CatalogStats(r.Context())
	if err != nil {
		response.Status = statusDegraded
		response.Error = err.Error()
		code = http.StatusServiceUnavailable
	} else {
		response.Stats = &stats
	}

	writeJSONCode(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// GetStats returns catalog row counts.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalog.CatalogStats(r.Context())
	if err != nil {
		writeCatalogError(w, r, err)
		return
	}
	writeJSONCode(w, http.StatusOK, stats)
}
