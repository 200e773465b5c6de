package startup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gorilla/mux"

	"pixel-basket/internal/indexer"
	"pixel-basket/internal/logging"
	"pixel-basket/internal/media"
	"pixel-basket/internal/mediatypes"
	"pixel-basket/internal/memory"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// DatabaseFile is the catalog file name inside DataDir.
const DatabaseFile = "catalog.db"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration. Keys in a CONFIG_FILE use the
// toml tags below and override the environment.
type Config struct {
	DataDir         string        `toml:"data_dir"`
	CacheDir        string        `toml:"cache_dir"`
	Port            string        `toml:"port"`
	CPUWorkers      int           `toml:"cpu_workers"`
	TaskMaxAttempts int           `toml:"task_max_attempts"`
	FFmpegTimeout   time.Duration `toml:"ffmpeg_timeout"`
	VipsEnabled     bool          `toml:"vips_enabled"`
	WatchEnabled    bool          `toml:"watch_enabled"`
	WatchDebounce   time.Duration `toml:"watch_debounce"`
	LogLevel        string        `toml:"log_level"`
	LogHealthChecks bool          `toml:"log_health_checks"`
	MemoryLimit     int64         `toml:"memory_limit"`
	MemoryRatio     float64       `toml:"memory_ratio"`

	// Derived
	ConfigFile   string `toml:"-"`
	DatabasePath string `toml:"-"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		DataDir:         "/data",
		CacheDir:        "/cache",
		Port:            "8080",
		TaskMaxAttempts: indexer.DefaultMaxAttempts,
		FFmpegTimeout:   media.DefaultToolTimeout,
		VipsEnabled:     true,
		WatchDebounce:   2 * time.Second,
		LogLevel:        "info",
		LogHealthChecks: true,
		MemoryRatio:     memory.DefaultMemoryRatio,
	}
}

// LoadConfig reads the environment, overlays CONFIG_FILE when set, and
// prepares the data and cache directories.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	cfg, err := Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		return nil, err
	}
	logConfig(cfg)

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	if err := cfg.PrepareDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load builds a Config from the environment and, when file is not empty, the
// TOML file it names. It touches nothing on disk besides reading file.
func Load(file string) (*Config, error) {
	cfg := Defaults()
	applyEnv(cfg)

	if file != "" {
		md, err := toml.DecodeFile(file, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
		for _, key := range md.Undecoded() {
			logging.Warn("  Unknown key %q in %s", key.String(), file)
		}
		cfg.ConfigFile = file
	}

	if err := cfg.resolve(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.CacheDir = getEnv("CACHE_DIR", cfg.CacheDir)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.CPUWorkers = getEnvInt("CPU_WORKERS", cfg.CPUWorkers)
	cfg.TaskMaxAttempts = getEnvInt("TASK_MAX_ATTEMPTS", cfg.TaskMaxAttempts)
	cfg.FFmpegTimeout = getEnvDuration("FFMPEG_TIMEOUT", cfg.FFmpegTimeout)
	cfg.VipsEnabled = getEnvBool("VIPS_ENABLED", cfg.VipsEnabled)
	cfg.WatchEnabled = getEnvBool("WATCH_ENABLED", cfg.WatchEnabled)
	cfg.WatchDebounce = getEnvDuration("WATCH_DEBOUNCE", cfg.WatchDebounce)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", cfg.LogHealthChecks)
	cfg.MemoryRatio = getEnvFloat("MEMORY_RATIO", cfg.MemoryRatio)

	if v := os.Getenv("MEMORY_LIMIT"); v != "" {
		n, err := memory.ParseBytes(v)
		if err != nil {
			logging.Warn("Invalid MEMORY_LIMIT %q, ignoring: %v", v, err)
		} else {
			cfg.MemoryLimit = n
		}
	}
}

// resolve validates values and fills the derived fields.
func (c *Config) resolve() error {
	if c.DataDir == "" {
		return errors.New("data directory must be set")
	}
	if c.CacheDir == "" {
		return errors.New("cache directory must be set")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Port)
	}
	if c.CPUWorkers < 0 {
		logging.Warn("  Negative CPU_WORKERS, using default")
		c.CPUWorkers = 0
	}
	if c.TaskMaxAttempts < 1 {
		logging.Warn("  TASK_MAX_ATTEMPTS must be at least 1, using %d", indexer.DefaultMaxAttempts)
		c.TaskMaxAttempts = indexer.DefaultMaxAttempts
	}
	if c.FFmpegTimeout <= 0 {
		c.FFmpegTimeout = media.DefaultToolTimeout
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = 2 * time.Second
	}

	var err error
	if c.DataDir, err = filepath.Abs(c.DataDir); err != nil {
		return fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if c.CacheDir, err = filepath.Abs(c.CacheDir); err != nil {
		return fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	c.DatabasePath = filepath.Join(c.DataDir, DatabaseFile)

	logging.SetLevel(logging.ParseLevel(c.LogLevel))
	return nil
}

// PrepareDirs creates the data and cache directories and checks both are
// writable. Either failing is fatal: the catalog and thumbnails live there.
func (c *Config) PrepareDirs() error {
	for _, d := range []struct{ path, name string }{
		{c.DataDir, "data"},
		{c.CacheDir, "cache"},
	} {
		if err := ensureDirectory(d.path, d.name); err != nil {
			return fmt.Errorf("%s directory error: %w", d.name, err)
		}
		logging.Debug("  Testing %s directory write access...", d.name)
		if err := testWriteAccess(d.path); err != nil {
			return fmt.Errorf("%s directory is not writable: %w", d.name, err)
		}
		logging.Info("  [OK] %s directory is writable: %s", d.name, d.path)
	}
	return nil
}

func logConfig(c *Config) {
	if c.ConfigFile != "" {
		logging.Info("  CONFIG_FILE:         %s", c.ConfigFile)
	}
	logging.Info("  DATA_DIR:            %s", c.DataDir)
	logging.Info("  CACHE_DIR:           %s", c.CacheDir)
	logging.Info("  PORT:                %s", c.Port)
	if c.CPUWorkers > 0 {
		logging.Info("  CPU_WORKERS:         %d", c.CPUWorkers)
	} else {
		logging.Info("  CPU_WORKERS:         auto")
	}
	logging.Info("  TASK_MAX_ATTEMPTS:   %d", c.TaskMaxAttempts)
	logging.Info("  FFMPEG_TIMEOUT:      %v", c.FFmpegTimeout)
	logging.Info("  VIPS_ENABLED:        %v", c.VipsEnabled)
	logging.Info("  WATCH_ENABLED:       %v", c.WatchEnabled)
	if c.WatchEnabled {
		logging.Info("  WATCH_DEBOUNCE:      %v", c.WatchDebounce)
	}
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Info("  LOG_HEALTH_CHECKS:   %v", c.LogHealthChecks)
	if c.MemoryLimit > 0 {
		logging.Info("  MEMORY_LIMIT:        %s", memory.FormatBytes(c.MemoryLimit))
		logging.Info("  MEMORY_RATIO:        %.2f", c.MemoryRatio)
	}
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogToolsInit reports which image and video backends are usable.
func LogToolsInit(vips bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEDIA TOOLS")
	logging.Info("------------------------------------------------------------")

	for _, tool := range []string{"ffmpeg", "ffprobe"} {
		if err := checkTool(tool); err != nil {
			logging.Warn("  %s check failed: %v", tool, err)
			logging.Warn("  Video files will fail to scan")
		} else {
			logging.Info("  [OK] %s is available", tool)
		}
	}

	switch {
	case !vips:
		logging.Info("  libvips disabled, using pure Go decoders")
	case media.IsVipsAvailable():
		logging.Info("  [OK] libvips is available")
	default:
		logging.Warn("  libvips failed to start, using pure Go decoders")
	}

	logging.Info("  Cataloged extensions:")
	for _, family := range []mediatypes.Family{
		mediatypes.FamilyImage, mediatypes.FamilyVideo, mediatypes.FamilyModel,
		mediatypes.FamilyRaw, mediatypes.FamilyPSD,
	} {
		logging.Info("    %-6s %s", family, strings.Join(mediatypes.Extensions(family), " "))
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// No method matcher, e.g. /metrics
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	WatchEnabled    bool
	WatchedDirs     int
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.Port)
	logging.Info("    Health:        http://0.0.0.0:%s/healthz", config.Port)
	logging.Info("")
	if config.WatchEnabled {
		logging.Info("  Watching %d directories for new files", config.WatchedDirs)
	} else {
		logging.Info("  Watcher:         DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
        _          __   __               __       __
   ___ (_)_ __ ___/ /  / /  ___ ____ __ / /_____ / /_
  / _ \/ /\ \ // -_) / _ \/ _ '(_-</ //  '_/ -_) __/
 / .__/_//_\_\\__/_/ /_.__/\_,_/___/_//_/\_\\__/\__/
/_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkTool(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, name, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}

	if line, _, _ := strings.Cut(string(output), "\n"); line != "" {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(line))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		logging.Warn("Invalid number for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
