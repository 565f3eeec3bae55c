// Collab room server
//
// Multiple clients jointly edit a project tree inside shared rooms over
// WebSocket, see each other's edits live, and commit deterministic
// fingerprints of the tree to a ledger through the agent service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/juliacode/collab-server/internal/agent"
	"github.com/juliacode/collab-server/internal/api"
	"github.com/juliacode/collab-server/internal/config"
	"github.com/juliacode/collab-server/internal/events"
	"github.com/juliacode/collab-server/internal/logging"
	"github.com/juliacode/collab-server/internal/metrics"
	"github.com/juliacode/collab-server/internal/room"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	// Flags override the environment.
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "address for the WebSocket server")
	flag.StringVar(&cfg.MetricsAddr, "metrics", cfg.MetricsAddr, "address for the Prometheus metrics server")
	flag.StringVar(&cfg.AllowedOrigin, "origin", cfg.AllowedOrigin, "browser origin allowed to connect")
	flag.StringVar(&cfg.AgentURL, "agent-url", cfg.AgentURL, "base URL of the agent service")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	flag.Parse()

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	logging.Info("collab server starting...",
		zap.String("listen", cfg.ListenAddr),
		zap.String("metrics", cfg.MetricsAddr),
		zap.String("origin", cfg.AllowedOrigin),
		zap.String("agent", cfg.AgentURL))

	registry := room.NewRegistry()
	broadcaster := events.NewBroadcaster()
	gateway := agent.New(agent.Config{
		BaseURL: cfg.AgentURL,
		Timeout: cfg.AgentTimeout,
	})

	server := api.NewServer(registry, broadcaster, gateway, cfg.AllowedOrigin)

	// Metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", metrics.Handler())
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("metrics server failed", zap.Error(err))
		}
	}()

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: server.Handler()}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server failed", zap.Error(err))
		}
	}()
	logging.Info("server listening", zap.String("addr", cfg.ListenAddr))

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("shutting down...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logging.Error("server shutdown error", zap.Error(err))
	}
	if err := metricsServer.Shutdown(ctx); err != nil {
		logging.Error("metrics shutdown error", zap.Error(err))
	}
	logging.Info("server stopped", zap.Int("rooms", registry.Count()))
}
