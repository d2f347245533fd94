package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dingkwang/podcast-transcriber-mcp/internal/config"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/feed"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/transcription"
)

// MonitoringServer provides HTTP endpoints for health checks, statistics, and
// Prometheus metrics. It is optional and disabled by default; the MCP stdio
// transport does not depend on it.
type MonitoringServer struct {
	server *http.Server
	logger *slog.Logger

	transcriber *transcription.Client
	feeds       *feed.Source

	startTime time.Time
}

// NewMonitoringServer creates the monitoring HTTP server
func NewMonitoringServer(cfg config.MonitoringConfig, logger *slog.Logger,
	transcriber *transcription.Client, feeds *feed.Source) *MonitoringServer {

	m := &MonitoringServer{
		logger:      logger,
		transcriber: transcriber,
		feeds:       feeds,
		startTime:   time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", m.handleHealth)
	mux.HandleFunc("/stats", m.handleStats)
	mux.Handle("/metrics", promhttp.Handler())

	m.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return m
}

// Start starts the monitoring server in the background
func (m *MonitoringServer) Start() error {
	m.logger.Info("Starting monitoring server",
		slog.String("address", m.server.Addr),
	)

	go func() {
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			m.logger.Error("Monitoring server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the monitoring server
func (m *MonitoringServer) Stop(ctx context.Context) error {
	m.logger.Info("Stopping monitoring server...")

	return m.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (m *MonitoringServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(m.startTime).String(),
		"service": map[string]interface{}{
			"name":    ServiceName,
			"version": ServiceVersion,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleStats implements the /stats endpoint
func (m *MonitoringServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := map[string]interface{}{
		"uptime":        time.Since(m.startTime).String(),
		"timestamp":     time.Now().UTC(),
		"transcription": m.transcriber.GetStats(),
		"feed": map[string]interface{}{
			"cached": m.feeds.Cached(),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
