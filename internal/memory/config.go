package memory

import (
	"fmt"
	"math"
	"runtime/debug"
	"strconv"

	"pixel-basket/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left to libvips, ffmpeg and goroutine stacks.
const DefaultMemoryRatio = 0.85

// Limit is the outcome of ApplyLimit.
type Limit struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a soft limit is in effect.
func (l Limit) Configured() bool { return l.GoMemLimit > 0 }

// ApplyLimit sets the Go soft memory limit. An explicit GOMEMLIMIT wins;
// otherwise containerLimit (bytes) scaled by ratio is used. A zero
// containerLimit leaves the runtime untouched.
func ApplyLimit(goMemLimitEnv string, containerLimit int64, ratio float64) Limit {
	if goMemLimitEnv != "" {
		l := Limit{Source: "GOMEMLIMIT"}
		if current := debug.SetMemoryLimit(-1); current > 0 && current < math.MaxInt64 {
			l.GoMemLimit = current
		}
		logging.Info("GOMEMLIMIT set via environment: %s", goMemLimitEnv)
		return l
	}
	if containerLimit <= 0 {
		return Limit{Source: "none"}
	}

	if ratio <= 0 || ratio > 1 {
		if ratio != 0 {
			logging.Warn("Memory ratio %.2f out of range (0.0-1.0), using %.2f", ratio, DefaultMemoryRatio)
		}
		ratio = DefaultMemoryRatio
	}
	limit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(limit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		FormatBytes(limit), ratio*100, FormatBytes(containerLimit))
	return Limit{Source: "MEMORY_LIMIT", ContainerLimit: containerLimit, GoMemLimit: limit, Ratio: ratio}
}

// ParseBytes reads a plain byte count.
func ParseBytes(s string) (int64, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid byte count %q", s)
	}
	return n, nil
}

// FormatBytes renders b with binary units.
func FormatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
