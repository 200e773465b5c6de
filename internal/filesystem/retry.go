package filesystem

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"pixel-basket/internal/logging"
)

// VolumeResolver labels paths with the name of the configured root they live
// under, using longest-prefix matching.
type VolumeResolver struct {
	mounts []volumeMount
}

type volumeMount struct {
	path string // absolute, with trailing slash
	name string
}

// NewVolumeResolver builds a resolver from volume name → directory.
//
//	NewVolumeResolver(map[string]string{
//	    "cache":    "/var/cache/pixel-basket",
//	    "database": "/var/lib/pixel-basket",
//	})
func NewVolumeResolver(volumes map[string]string) *VolumeResolver {
	mounts := make([]volumeMount, 0, len(volumes))
	for name, path := range volumes {
		absPath, err := filepath.Abs(path)
		if err != nil {
			absPath = path
		}
		if !strings.HasSuffix(absPath, string(filepath.Separator)) {
			absPath += string(filepath.Separator)
		}
		mounts = append(mounts, volumeMount{path: absPath, name: name})
	}

	sort.Slice(mounts, func(i, j int) bool {
		return len(mounts[i].path) > len(mounts[j].path)
	})

	return &VolumeResolver{mounts: mounts}
}

// Add registers another volume, e.g. a basket root added at runtime.
func (vr *VolumeResolver) Add(name, path string) {
	more := NewVolumeResolver(map[string]string{name: path})
	vr.mounts = append(vr.mounts, more.mounts...)
	sort.Slice(vr.mounts, func(i, j int) bool {
		return len(vr.mounts[i].path) > len(vr.mounts[j].path)
	})
}

// Resolve returns the volume name for path. Paths outside every configured
// volume are labelled "library" since they belong to a user's media tree.
func (vr *VolumeResolver) Resolve(path string) string {
	if vr == nil {
		return "library"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return "library"
	}

	for _, mount := range vr.mounts {
		if strings.HasPrefix(absPath+string(filepath.Separator), mount.path) {
			return mount.name
		}
	}

	return "library"
}

var defaultResolver *VolumeResolver

// SetDefaultVolumeResolver sets the resolver used when a RetryConfig has none.
func SetDefaultVolumeResolver(vr *VolumeResolver) {
	defaultResolver = vr
}

// RetryConfig configures retry behaviour for filesystem operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// VolumeResolver overrides the package-level resolver.
	VolumeResolver *VolumeResolver
}

// DefaultRetryConfig retries ESTALE three times, 50ms doubling up to 500ms.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

func (c *RetryConfig) resolveVolume(path string) string {
	if c.VolumeResolver != nil {
		return c.VolumeResolver.Resolve(path)
	}
	return defaultResolver.Resolve(path)
}

// isNFSStaleError reports whether err is ESTALE (stale NFS file handle).
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// withRetry runs fn until it succeeds, fails with something other than
// ESTALE, or runs out of retries.
func withRetry[T any](op, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	start := time.Now()
	volume := config.resolveVolume(path)
	obs := observe()
	backoff := config.InitialBackoff

	done := func() {
		if obs != nil {
			obs.ObserveRetryDuration(op, volume, time.Since(start).Seconds())
		}
	}

	var lastErr error
	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		v, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", op, attempt, path)
				if obs != nil {
					obs.ObserveRetrySuccess(op, volume)
				}
			}
			done()
			return v, nil
		}

		lastErr = err
		if !isNFSStaleError(err) {
			done()
			var zero T
			return zero, err
		}

		if obs != nil {
			obs.ObserveStaleError(op, volume)
		}

		if attempt < config.MaxRetries {
			if obs != nil {
				obs.ObserveRetryAttempt(op, volume)
			}
			logging.Debug("%s: stale file handle for %s, retrying in %v (attempt %d/%d)",
				op, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("%s failed after %d retries for %s: %v", op, config.MaxRetries, path, lastErr)
	if obs != nil {
		obs.ObserveRetryFailure(op, volume)
	}
	done()
	var zero T
	return zero, lastErr
}

// StatWithRetry is os.Stat with ESTALE retries.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	return withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
}

// OpenWithRetry is os.Open with ESTALE retries.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

// ReadDirWithRetry is os.ReadDir with ESTALE retries.
func ReadDirWithRetry(path string, config RetryConfig) ([]fs.DirEntry, error) {
	return withRetry("readdir", path, config, func() ([]fs.DirEntry, error) {
		return os.ReadDir(path)
	})
}
