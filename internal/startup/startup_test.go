package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"pixel-basket/internal/indexer"
)

// clearEnv unsets every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATA_DIR", "CACHE_DIR", "PORT", "CPU_WORKERS", "TASK_MAX_ATTEMPTS",
		"FFMPEG_TIMEOUT", "VIPS_ENABLED", "WATCH_ENABLED", "WATCH_DEBOUNCE",
		"LOG_LEVEL", "LOG_HEALTH_CHECKS", "MEMORY_LIMIT", "MEMORY_RATIO",
	} {
		t.Setenv(key, "")
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.OS == "" || info.Arch == "" {
		t.Errorf("Expected OS and Arch to be set, got %q/%q", info.OS, info.Arch)
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name         string
		key          string
		defaultValue string
		envValue     string
		want         string
		setEnv       bool
	}{
		{
			name:         "Returns default when env var not set",
			key:          "TEST_UNSET_VAR",
			defaultValue: "default",
			want:         "default",
		},
		{
			name:         "Returns env value when set",
			key:          "TEST_SET_VAR",
			defaultValue: "default",
			envValue:     "custom",
			want:         "custom",
			setEnv:       true,
		},
		{
			name:         "Returns default when env var is empty",
			key:          "TEST_EMPTY_VAR",
			defaultValue: "default",
			envValue:     "",
			want:         "default",
			setEnv:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setEnv {
				t.Setenv(tt.key, tt.envValue)
			} else {
				os.Unsetenv(tt.key)
			}

			if got := getEnv(tt.key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnv(%q, %q) = %q, want %q", tt.key, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataDir != "/data" || cfg.CacheDir != "/cache" {
		t.Errorf("dirs = %q, %q", cfg.DataDir, cfg.CacheDir)
	}
	if cfg.DatabasePath != filepath.Join("/data", DatabaseFile) {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.TaskMaxAttempts != indexer.DefaultMaxAttempts {
		t.Errorf("TaskMaxAttempts = %d, want %d", cfg.TaskMaxAttempts, indexer.DefaultMaxAttempts)
	}
	if !cfg.VipsEnabled || cfg.WatchEnabled {
		t.Errorf("VipsEnabled=%v WatchEnabled=%v, want true/false", cfg.VipsEnabled, cfg.WatchEnabled)
	}
	if cfg.CPUWorkers != 0 {
		t.Errorf("CPUWorkers = %d, want 0 (auto)", cfg.CPUWorkers)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("DATA_DIR", filepath.Join(dir, "data"))
	t.Setenv("CACHE_DIR", filepath.Join(dir, "cache"))
	t.Setenv("PORT", "9000")
	t.Setenv("CPU_WORKERS", "3")
	t.Setenv("TASK_MAX_ATTEMPTS", "5")
	t.Setenv("FFMPEG_TIMEOUT", "30s")
	t.Setenv("VIPS_ENABLED", "false")
	t.Setenv("WATCH_ENABLED", "true")
	t.Setenv("MEMORY_LIMIT", "1073741824")
	t.Setenv("MEMORY_RATIO", "0.5")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DataDir != filepath.Join(dir, "data") {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Port != "9000" || cfg.CPUWorkers != 3 || cfg.TaskMaxAttempts != 5 {
		t.Errorf("got port %q, workers %d, attempts %d", cfg.Port, cfg.CPUWorkers, cfg.TaskMaxAttempts)
	}
	if cfg.FFmpegTimeout != 30*time.Second {
		t.Errorf("FFmpegTimeout = %v", cfg.FFmpegTimeout)
	}
	if cfg.VipsEnabled || !cfg.WatchEnabled {
		t.Errorf("VipsEnabled=%v WatchEnabled=%v", cfg.VipsEnabled, cfg.WatchEnabled)
	}
	if cfg.MemoryLimit != 1<<30 || cfg.MemoryRatio != 0.5 {
		t.Errorf("memory = %d @ %v", cfg.MemoryLimit, cfg.MemoryRatio)
	}
}

func TestLoadConfigFileOverridesEnvironment(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	t.Setenv("PORT", "9000")
	t.Setenv("CPU_WORKERS", "3")

	file := filepath.Join(dir, "pixel-basket.toml")
	content := `
data_dir = "` + filepath.ToSlash(filepath.Join(dir, "catalog")) + `"
port = "7070"
ffmpeg_timeout = "45s"
watch_enabled = true
watch_debounce = "500ms"
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "7070" {
		t.Errorf("Port = %q, want the file's 7070", cfg.Port)
	}
	if cfg.CPUWorkers != 3 {
		t.Errorf("CPUWorkers = %d, want 3 from the environment", cfg.CPUWorkers)
	}
	if cfg.FFmpegTimeout != 45*time.Second || cfg.WatchDebounce != 500*time.Millisecond {
		t.Errorf("durations = %v, %v", cfg.FFmpegTimeout, cfg.WatchDebounce)
	}
	if !cfg.WatchEnabled {
		t.Error("WatchEnabled should be set by the file")
	}
	if cfg.DatabasePath != filepath.Join(dir, "catalog", DatabaseFile) {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.ConfigFile != file {
		t.Errorf("ConfigFile = %q", cfg.ConfigFile)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		clearEnv(t)
		if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected an error for a missing config file")
		}
	})

	t.Run("bad port", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("PORT", "http")
		if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "port") {
			t.Errorf("got %v, want invalid port", err)
		}
	})

	t.Run("attempts clamp", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TASK_MAX_ATTEMPTS", "0")
		cfg, err := Load("")
		if err != nil {
			t.Fatal(err)
		}
		if cfg.TaskMaxAttempts != indexer.DefaultMaxAttempts {
			t.Errorf("TaskMaxAttempts = %d", cfg.TaskMaxAttempts)
		}
	})
}

func TestPrepareDirs(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		DataDir:  filepath.Join(dir, "data"),
		CacheDir: filepath.Join(dir, "nested", "cache"),
	}
	if err := cfg.PrepareDirs(); err != nil {
		t.Fatalf("PrepareDirs: %v", err)
	}
	for _, d := range []string{cfg.DataDir, cfg.CacheDir} {
		if info, err := os.Stat(d); err != nil || !info.IsDir() {
			t.Errorf("%s was not created: %v", d, err)
		}
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.DataDir = file
	if err := cfg.PrepareDirs(); err == nil {
		t.Error("expected an error when the data dir is a file")
	}
}

func TestGetRoutes(t *testing.T) {
	noop := func(http.ResponseWriter, *http.Request) {}
	r := mux.NewRouter()
	r.HandleFunc("/api/baskets", noop).Methods(http.MethodGet, http.MethodPost).Name("baskets")
	r.HandleFunc("/api/baskets/{id}", noop).Methods(http.MethodDelete)
	r.Handle("/metrics", http.HandlerFunc(noop))

	routes, err := GetRoutes(r)
	if err != nil {
		t.Fatalf("GetRoutes: %v", err)
	}
	if len(routes) != 4 {
		t.Fatalf("got %d routes, want 4: %+v", len(routes), routes)
	}
	if routes[0].Name != "baskets" || routes[0].Method != http.MethodGet {
		t.Errorf("first route = %+v", routes[0])
	}
	if last := routes[3]; last.Method != "*" || last.Path != "/metrics" {
		t.Errorf("route without methods = %+v", last)
	}
}
