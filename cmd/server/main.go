package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dingkwang/podcast-transcriber-mcp/internal/config"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/feed"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/metrics"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/pipeline"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/server"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/transcription"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load .env if present, then configuration (env wins over file)
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration. Stdout carries the MCP
	// protocol stream, so logs go to stderr.
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", server.ServiceName),
		slog.String("version", server.ServiceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("model", cfg.Transcription.Model),
		slog.String("base_url", cfg.Transcription.BaseURL),
		slog.Float64("default_chunk_size_mb", cfg.Audio.DefaultChunkSizeMB),
		slog.Bool("monitoring_enabled", cfg.Monitoring.Enabled),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()

	// Initialize transcription client
	transcriber, err := transcription.NewClient(transcription.Config{
		APIKey:  cfg.Transcription.APIKey,
		BaseURL: cfg.Transcription.BaseURL,
		Model:   cfg.Transcription.Model,
		Timeout: cfg.Transcription.GetTimeoutDuration(),
	})
	if err != nil {
		logger.Error("Failed to create transcription client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize feed source and transcription pipeline
	feeds := feed.NewSource()
	pipe := pipeline.New(transcriber, logger, appMetrics)

	// Initialize MCP server
	mcpServer := server.NewMCPServer(cfg, logger, feeds, pipe, appMetrics)
	logger.Info("MCP server initialized")

	// Start monitoring server (if enabled)
	var monitoring *server.MonitoringServer
	if cfg.Monitoring.Enabled {
		monitoring = server.NewMonitoringServer(cfg.Monitoring, logger, transcriber, feeds)
		if err := monitoring.Start(); err != nil {
			logger.Error("Failed to start monitoring server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Setup signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Serve the stdio transport until stdin closes or a signal arrives
	errChan := make(chan error, 1)
	go func() {
		errChan <- mcpServer.Serve(ctx)
	}()

	logger.Info("Service started, serving MCP over stdio")

	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		cancel()
	case err := <-errChan:
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) {
			logger.Error("Stdio transport error", slog.String("error", err.Error()))
		} else {
			logger.Info("Stdio transport closed")
		}
	}

	logger.Info("Starting graceful shutdown...")

	if monitoring != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := monitoring.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping monitoring server", slog.String("error", err.Error()))
		}
	}

	// Final transcription statistics
	stats := transcriber.GetStats()
	logger.Info("Final transcription statistics",
		slog.Uint64("total_requests", stats.TotalRequests),
		slog.Uint64("success_requests", stats.SuccessRequests),
		slog.Uint64("failed_requests", stats.FailedRequests),
	)

	logger.Info("Service stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
