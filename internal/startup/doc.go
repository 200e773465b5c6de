// Package startup handles configuration loading and the startup and
// shutdown log output.
//
// # Configuration
//
// [LoadConfig] reads environment variables, then overlays the TOML file
// named by CONFIG_FILE when it is set. Keys present in the file win over the
// environment; absent keys keep the environment value.
//
//   - DATA_DIR / data_dir: directory holding catalog.db (default: /data)
//   - CACHE_DIR / cache_dir: thumbnail cache root (default: /cache)
//   - PORT / port: HTTP port for serve (default: 8080)
//   - CPU_WORKERS / cpu_workers: CPU pool size, 0 for half of GOMAXPROCS
//   - TASK_MAX_ATTEMPTS / task_max_attempts: attempts before a task is marked failed (default: 3)
//   - FFMPEG_TIMEOUT / ffmpeg_timeout: limit for one ffmpeg or ffprobe run (default: 2m)
//   - VIPS_ENABLED / vips_enabled: use libvips for large images when available (default: true)
//   - WATCH_ENABLED / watch_enabled: watch basket folders while serving (default: false)
//   - WATCH_DEBOUNCE / watch_debounce: quiet period before watched files are queued (default: 2s)
//   - LOG_LEVEL / log_level: debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS / log_health_checks: log /healthz requests (default: true)
//   - MEMORY_LIMIT / memory_limit: container memory limit in bytes
//   - MEMORY_RATIO / memory_ratio: share of MEMORY_LIMIT given to the Go heap (default: 0.85)
//
// A sample file:
//
//	data_dir = "/srv/pixel-basket"
//	cache_dir = "/var/cache/pixel-basket"
//	ffmpeg_timeout = "5m"
//	watch_enabled = true
//
// [Load] does the same without logging a banner or touching the disk, and
// [Config.PrepareDirs] creates both directories and checks they are
// writable.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X pixel-basket/internal/startup.Version=1.2.0"
package startup
