package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the emojikey service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	StoreTimeout     time.Duration
	MetricsNamespace string
	AllowAnyOrigin   bool

	// APIKey is the process-wide credential resolved to a user identity
	// on every call. Its absence is a startup misconfiguration, never a
	// per-call error.
	APIKey string
	// ModelID identifies the agent variant; constant per process.
	ModelID string

	DatabaseURL string
	DataDir     string

	SampleTTL time.Duration
}

// Load reads environment variables and applies safe defaults. A .env
// file in the working directory is honored when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "emojikey"),
		APIKey:           strings.TrimSpace(os.Getenv("EMOJIKEY_API_KEY")),
		ModelID:          strings.TrimSpace(os.Getenv("MODEL_ID")),
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DataDir:          envOrDefault("EMOJIKEY_DATA_DIR", ".emojikey"),
		ShutdownTimeout:  15 * time.Second,
		StoreTimeout:     10 * time.Second,
		SampleTTL:        30 * time.Minute,
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.StoreTimeout, err = durationFromEnv("APP_STORE_TIMEOUT", cfg.StoreTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.SampleTTL, err = durationFromEnv("APP_SAMPLE_TTL", cfg.SampleTTL)
	if err != nil {
		return Config{}, err
	}
	cfg.AllowAnyOrigin, err = boolFromEnv("APP_ALLOW_ANY_ORIGIN", false)
	if err != nil {
		return Config{}, err
	}

	if cfg.APIKey == "" {
		return Config{}, fmt.Errorf("EMOJIKEY_API_KEY is required")
	}
	if cfg.ModelID == "" {
		return Config{}, fmt.Errorf("MODEL_ID is required")
	}
	if cfg.StoreTimeout < time.Second {
		return Config{}, fmt.Errorf("APP_STORE_TIMEOUT must be at least 1s")
	}
	if cfg.SampleTTL < time.Minute {
		return Config{}, fmt.Errorf("APP_SAMPLE_TTL must be at least 1m")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func boolFromEnv(key string, fallback bool) (bool, error) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if v == "" {
		return fallback, nil
	}
	switch v {
	case "1", "true", "t", "yes", "y", "on":
		return true, nil
	case "0", "false", "f", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("%s parse error: expected bool", key)
	}
}
