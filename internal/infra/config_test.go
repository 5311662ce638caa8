package infra

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "PORT", "DATABASE_URL", "OPENAI_API_KEY", "MOCK_MODE",
		"SCENE_COUNT", "VIDEO_DURATION", "MAX_RETRIES", "STEP_TIMEOUT_SECONDS",
		"CORS_ORIGINS", "RATE_LIMIT_PER_MINUTE", "HTTP_WRITE_TIMEOUT_SECONDS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Port != "5000" {
		t.Fatalf("Port = %q, want 5000", cfg.Port)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("DatabaseURL = %q, want empty", cfg.DatabaseURL)
	}
	if cfg.SceneCount != 3 || cfg.VideoDurationSeconds != 30 {
		t.Fatalf("scene defaults = %d/%d", cfg.SceneCount, cfg.VideoDurationSeconds)
	}
	if cfg.MaxRetries != 3 {
		t.Fatalf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.StepTimeout != 5*time.Minute {
		t.Fatalf("StepTimeout = %v, want 5m", cfg.StepTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("CORSOrigins = %v, want [*]", cfg.CORSOrigins)
	}
	// Event streams need an unbounded write window.
	if cfg.HTTPWriteTimeout != 0 {
		t.Fatalf("HTTPWriteTimeout = %v, want 0", cfg.HTTPWriteTimeout)
	}
	if !filepath.IsAbs(cfg.OutputDir) || !filepath.IsAbs(cfg.TempDir) {
		t.Fatalf("dirs must resolve to absolute paths: %q %q", cfg.OutputDir, cfg.TempDir)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("MOCK_MODE", "true")
	t.Setenv("SCENE_COUNT", "5")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STEP_TIMEOUT_SECONDS", "30")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q", cfg.Port)
	}
	if !cfg.MockMode {
		t.Fatal("MockMode should be true")
	}
	if cfg.SceneCount != 5 {
		t.Fatalf("SceneCount = %d", cfg.SceneCount)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
	if cfg.StepTimeout != 30*time.Second {
		t.Fatalf("StepTimeout = %v", cfg.StepTimeout)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		val  string
		want bool
	}{
		{"1", true}, {"true", true}, {"YES", true},
		{"0", false}, {"false", false}, {"no", false},
		{"garbage", false},
	}
	for _, tc := range tests {
		t.Run(tc.val, func(t *testing.T) {
			t.Setenv("TEST_BOOL", tc.val)
			if got := getEnvBool("TEST_BOOL", false); got != tc.want {
				t.Fatalf("getEnvBool(%q) = %v, want %v", tc.val, got, tc.want)
			}
		})
	}
}
