package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns a worker count of multiplier × GOMAXPROCS, at least 1 and at
// most limit (0 means no limit). GOMAXPROCS follows container CPU limits.
//
// CPU_WORKERS overrides the computed value; the limit still applies.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("CPU_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForCPU returns the default size of the scan pool: half the hardware
// threads, leaving room for the I/O worker and the HTTP server.
func ForCPU(limit int) int {
	return Count(0.5, limit)
}
