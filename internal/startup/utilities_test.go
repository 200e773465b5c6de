package startup

import (
	"testing"
	"time"
)

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		defaultValue bool
		want         bool
	}{
		{"unset keeps default", "", true, true},
		{"true", "true", false, true},
		{"false", "false", true, false},
		{"one", "1", false, true},
		{"zero", "0", true, false},
		{"upper case", "TRUE", false, true},
		{"invalid keeps default", "not-a-bool", true, true},
		{"yes is not a bool", "yes", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tt.envValue)
			if got := getEnvBool("TEST_BOOL", tt.defaultValue); got != tt.want {
				t.Errorf("getEnvBool(%q, %v) = %v, want %v", tt.envValue, tt.defaultValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		envValue string
		want     int
	}{
		{"", 3},
		{"8", 8},
		{"-1", -1},
		{"eight", 3},
		{"2.5", 3},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("TEST_INT", tt.envValue)
			if got := getEnvInt("TEST_INT", 3); got != tt.want {
				t.Errorf("getEnvInt(%q) = %d, want %d", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		envValue string
		want     time.Duration
	}{
		{"", time.Minute},
		{"90s", 90 * time.Second},
		{"1h30m", 90 * time.Minute},
		{"30", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("TEST_DURATION", tt.envValue)
			if got := getEnvDuration("TEST_DURATION", time.Minute); got != tt.want {
				t.Errorf("getEnvDuration(%q) = %v, want %v", tt.envValue, got, tt.want)
			}
		})
	}
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("TEST_FLOAT", "0.5")
	if got := getEnvFloat("TEST_FLOAT", 0.85); got != 0.5 {
		t.Errorf("got %v, want 0.5", got)
	}
	t.Setenv("TEST_FLOAT", "half")
	if got := getEnvFloat("TEST_FLOAT", 0.85); got != 0.85 {
		t.Errorf("got %v, want default 0.85", got)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := map[string]string{
		"/api/baskets":              "api/baskets",
		"/api/baskets/{id}/folders": "api/baskets",
		"/api":                      "api",
		"/healthz":                  "healthz",
		"/":                         "",
	}
	for path, want := range tests {
		if got := getRouteGroup(path); got != want {
			t.Errorf("getRouteGroup(%q) = %q, want %q", path, got, want)
		}
	}
}

func BenchmarkGetEnv(b *testing.B) {
	b.Setenv("BENCH_TEST_VAR", "test-value")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = getEnv("BENCH_TEST_VAR", "default")
	}
}

func BenchmarkGetEnvBool(b *testing.B) {
	b.Setenv("BENCH_TEST_BOOL", "true")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = getEnvBool("BENCH_TEST_BOOL", false)
	}
}
