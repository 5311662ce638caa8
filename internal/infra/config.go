package infra

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	MockMode      bool

	SceneCount           int
	VideoDurationSeconds int
	AudioVoice           string
	VideoResolution      string

	OutputDir string
	TempDir   string

	MaxRetries       int
	StepTimeout      time.Duration
	HeartbeatEvery   time.Duration
	SubscriberBuffer int

	CORSOrigins     []string
	RateLimitPerMin int

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed. DATABASE_URL is optional: when empty the service
// runs on the in-memory store.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "5000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4"),
		MockMode:      getEnvBool("MOCK_MODE", false),

		SceneCount:           getEnvInt("SCENE_COUNT", 3),
		VideoDurationSeconds: getEnvInt("VIDEO_DURATION", 30),
		AudioVoice:           getEnv("AUDIO_VOICE", "alloy"),
		VideoResolution:      getEnv("VIDEO_RESOLUTION", "1280x720"),

		OutputDir: absPath(getEnv("OUTPUT_DIR", "outputs")),
		TempDir:   absPath(getEnv("TEMP_DIR", "temp")),

		MaxRetries:       getEnvInt("MAX_RETRIES", 3),
		StepTimeout:      time.Second * time.Duration(getEnvInt("STEP_TIMEOUT_SECONDS", 300)),
		HeartbeatEvery:   time.Second * time.Duration(getEnvInt("HEARTBEAT_SECONDS", 15)),
		SubscriberBuffer: getEnvInt("SUBSCRIBER_BUFFER", 16),

		CORSOrigins:     splitList(getEnv("CORS_ORIGINS", "*")),
		RateLimitPerMin: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 0)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes":
			return true
		case "0", "false", "no":
			return false
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func absPath(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
