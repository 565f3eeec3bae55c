package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" {
		t.Errorf("ListenAddr = %q, want :8080", cfg.ListenAddr)
	}
	if cfg.AgentURL != "http://localhost:8081" {
		t.Errorf("AgentURL = %q, want http://localhost:8081", cfg.AgentURL)
	}
	if cfg.AgentTimeout != 30*time.Second {
		t.Errorf("AgentTimeout = %v, want 30s", cfg.AgentTimeout)
	}
}

func TestLoadRejectsBadAgentURL(t *testing.T) {
	cases := []struct {
		name string
		url  string
	}{
		{"no scheme", "localhost:8081"},
		{"wrong scheme", "ftp://agents.example.com"},
		{"missing host", "http://"},
		{"bare path", "/api/v1/invoke"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("AGENT_URL", tc.url)
			if _, err := Load(); err == nil {
				t.Errorf("Load accepted AGENT_URL %q", tc.url)
			}
		})
	}
}

func TestLoadAcceptsHTTPSAgentURL(t *testing.T) {
	t.Setenv("AGENT_URL", "https://agents.example.com:8443")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AgentURL != "https://agents.example.com:8443" {
		t.Errorf("AgentURL = %q", cfg.AgentURL)
	}
}
