// Package config loads configuration from environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"time"
)

// Config holds all server configuration.
type Config struct {
	// Server
	ListenAddr  string
	MetricsAddr string

	// Logging
	LogLevel  string
	LogFormat string

	// Real-time transport
	AllowedOrigin string

	// Agent service
	AgentURL     string
	AgentTimeout time.Duration
}

// Load reads configuration from environment variables with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		ListenAddr:    envOr("LISTEN_ADDR", ":8080"),
		MetricsAddr:   envOr("METRICS_ADDR", ":9090"),
		LogLevel:      envOr("LOG_LEVEL", "info"),
		LogFormat:     envOr("LOG_FORMAT", "json"),
		AllowedOrigin: envOr("ALLOWED_ORIGIN", "http://localhost:3000"),
		AgentURL:      envOr("AGENT_URL", "http://localhost:8081"),
		AgentTimeout:  envDuration("AGENT_TIMEOUT", 30*time.Second),
	}

	// url.Parse alone accepts almost anything, so require a real
	// http(s) URL with a host.
	u, err := url.Parse(cfg.AgentURL)
	if err != nil {
		return nil, fmt.Errorf("AGENT_URL is not a valid URL: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("AGENT_URL %q must be an http or https URL with a host", cfg.AgentURL)
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
