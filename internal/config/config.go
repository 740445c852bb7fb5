package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Port             string
	ProjectID        string
	RedisAddr        string
	LineChannelToken string
	JWTSecret        string
	JWTTokenTTL      time.Duration
	DispatchInterval time.Duration
	CacheTTL         time.Duration
	ShutdownTimeout  time.Duration
}

// Load reads configuration from the environment. GOOGLE_CLOUD_PROJECT,
// LINE_CHANNEL_TOKEN and JWT_SECRET are required.
func Load() (Config, error) {
	cfg := Config{
		Port:             envOr("PORT", "8080"),
		ProjectID:        os.Getenv("GOOGLE_CLOUD_PROJECT"),
		RedisAddr:        envOr("REDIS_ADDR", "localhost:6379"),
		LineChannelToken: os.Getenv("LINE_CHANNEL_TOKEN"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWTTokenTTL:      24 * time.Hour,
		DispatchInterval: 15 * time.Second,
		CacheTTL:         5 * time.Minute,
		ShutdownTimeout:  10 * time.Second,
	}

	if cfg.ProjectID == "" {
		return Config{}, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required")
	}
	if cfg.LineChannelToken == "" {
		return Config{}, fmt.Errorf("LINE_CHANNEL_TOKEN environment variable is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
