package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/dingkwang/podcast-transcriber-mcp/internal/audio"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/config"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/feed"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/metrics"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/pipeline"
)

const (
	// ServiceName identifies this MCP server to clients
	ServiceName = "podcast-transcriber"
	// ServiceVersion is the advertised server version
	ServiceVersion = "1.0.0"
)

// MCPServer exposes the podcast tools (fetch_rss_feed, list_episodes,
// transcribe_audio) over the MCP stdio transport. Argument validation happens
// at the tool boundary before any work begins; every downstream error is
// converted into a tool error result so the transport call itself always
// completes.
type MCPServer struct {
	logger     *slog.Logger
	cfg        *config.Config
	feeds      *feed.Source
	pipe       *pipeline.Pipeline
	metrics    *metrics.Metrics
	httpClient *http.Client

	mcp *mcpserver.MCPServer
}

// NewMCPServer wires the tool surface. Metrics may be nil.
func NewMCPServer(cfg *config.Config, logger *slog.Logger, feeds *feed.Source,
	pipe *pipeline.Pipeline, m *metrics.Metrics) *MCPServer {

	s := &MCPServer{
		logger:  logger,
		cfg:     cfg,
		feeds:   feeds,
		pipe:    pipe,
		metrics: m,
		httpClient: &http.Client{
			Timeout: cfg.Audio.GetDownloadTimeoutDuration(),
		},
	}

	srv := mcpserver.NewMCPServer(ServiceName, ServiceVersion,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)

	srv.AddTool(mcp.NewTool("fetch_rss_feed",
		mcp.WithDescription("Fetch and parse a podcast RSS feed, caching it for episode listing. Returns a feed summary."),
		mcp.WithString("feed_url",
			mcp.Required(),
			mcp.Description("URL of the podcast RSS feed"),
		),
	), s.instrument("fetch_rss_feed", s.handleFetchFeed))

	srv.AddTool(mcp.NewTool("list_episodes",
		mcp.WithDescription("List episodes from the most recently fetched feed, in feed order. Requires a prior fetch_rss_feed call."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of episodes to return (default: all)"),
		),
		mcp.WithNumber("offset",
			mcp.Description("Number of episodes to skip from the start of the list"),
		),
	), s.instrument("list_episodes", s.handleListEpisodes))

	srv.AddTool(mcp.NewTool("transcribe_audio",
		mcp.WithDescription("Transcribe a podcast episode from a local file or a remote URL. "+
			"If both filepath and episode_url are given, filepath wins. "+
			"Set full_transcription=true to transcribe the whole file in chunks; "+
			"otherwise only the early portion of long audio is transcribed."),
		mcp.WithString("filepath",
			mcp.Description("Path to a local audio file"),
		),
		mcp.WithString("episode_url",
			mcp.Description("URL of a remote audio file to download and transcribe"),
		),
		mcp.WithString("language",
			mcp.Description("Audio language code (default: en)"),
		),
		mcp.WithBoolean("full_transcription",
			mcp.Description("Split the file into chunks and transcribe all of it (default: false)"),
		),
		mcp.WithNumber("max_chunk_size",
			mcp.Description("Maximum chunk size in MB for full transcription (default: 20)"),
		),
		mcp.WithBoolean("save_to_file",
			mcp.Description("Save the transcript to a sibling .txt file named after the audio file"),
		),
	), s.instrument("transcribe_audio", s.handleTranscribe))

	s.mcp = srv
	return s
}

// Serve runs the stdio transport until ctx is cancelled or stdin closes.
// Protocol traffic uses stdout, so all logging must go to stderr.
func (s *MCPServer) Serve(ctx context.Context) error {
	stdio := mcpserver.NewStdioServer(s.mcp)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// instrument wraps a tool handler with logging and metrics collection
func (s *MCPServer) instrument(tool string, handler mcpserver.ToolHandlerFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		startTime := time.Now()

		result, err := handler(ctx, request)

		status := "ok"
		if err != nil || (result != nil && result.IsError) {
			status = "error"
		}

		duration := time.Since(startTime)
		s.metrics.RecordToolCall(tool, status, duration.Seconds())
		s.logger.Info("Tool call completed",
			slog.String("tool", tool),
			slog.String("status", status),
			slog.Duration("duration", duration),
		)

		return result, err
	}
}

// handleFetchFeed implements the fetch_rss_feed tool
func (s *MCPServer) handleFetchFeed(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	feedURL, err := request.RequireString("feed_url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.feeds.Fetch(ctx, feedURL)
	s.metrics.RecordFeedFetch(err == nil)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch feed: %v", err)), nil
	}

	s.logger.Info("Feed fetched",
		slog.String("url", feedURL),
		slog.String("title", summary.Title),
		slog.Int("episodes", summary.EpisodeCount),
	)

	payload, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode feed summary: %v", err)), nil
	}

	return mcp.NewToolResultText(string(payload)), nil
}

// handleListEpisodes implements the list_episodes tool
func (s *MCPServer) handleListEpisodes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	offset := request.GetInt("offset", 0)
	limit := request.GetInt("limit", 0)

	episodes, err := s.feeds.Episodes(offset, limit)
	if err != nil {
		if errors.Is(err, feed.ErrNoFeed) {
			return mcp.NewToolResultError("no feed has been fetched yet, call fetch_rss_feed first"), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to list episodes: %v", err)), nil
	}

	payload, err := json.MarshalIndent(episodes, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode episodes: %v", err)), nil
	}

	return mcp.NewToolResultText(string(payload)), nil
}

// handleTranscribe implements the transcribe_audio tool
func (s *MCPServer) handleTranscribe(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath := request.GetString("filepath", "")
	episodeURL := request.GetString("episode_url", "")
	if filePath == "" && episodeURL == "" {
		return mcp.NewToolResultError("either filepath or episode_url must be provided"), nil
	}

	language := request.GetString("language", "en")
	fullTranscription := request.GetBool("full_transcription", false)

	maxChunkMB := request.GetFloat("max_chunk_size", s.cfg.Audio.DefaultChunkSizeMB)
	if maxChunkMB <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("max_chunk_size must be positive, got %v", maxChunkMB)), nil
	}

	saveToFile, err := parseFlexibleBool(request.GetArguments()["save_to_file"])
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	scratch, err := audio.NewScratchDir()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to prepare scratch directory: %v", err)), nil
	}
	defer func() {
		if err := scratch.Cleanup(); err != nil {
			s.logger.Warn("Failed to clean up scratch directory",
				slog.String("path", scratch.Path()),
				slog.String("error", err.Error()),
			)
		}
	}()

	var source audio.Source
	if filePath != "" {
		source = audio.LocalSource(filePath)
	} else {
		source = audio.RemoteSource(episodeURL)
	}

	localPath, err := source.Resolve(ctx, s.httpClient, scratch.Path())
	if source.Kind == audio.SourceRemoteURL {
		s.metrics.RecordDownload(err == nil)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to resolve audio source: %v", err)), nil
	}

	var transcript string
	if fullTranscription {
		result, err := s.pipe.TranscribeFull(ctx, localPath, language, maxChunkMB, scratch.Path())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("full transcription failed: %v", err)), nil
		}
		if result.FailedSegments > 0 {
			s.logger.Warn("Transcription completed with failed segments",
				slog.Int("failed", result.FailedSegments),
				slog.Int("total", result.SegmentCount),
			)
		}
		transcript = result.Transcript
	} else {
		transcript, err = s.pipe.TranscribeFile(ctx, localPath, language)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("transcription failed: %v", err)), nil
		}
	}

	if saveToFile {
		// A downloaded file lives in the scratch directory, which is removed
		// when this call returns; its transcript goes to the working
		// directory instead so it survives.
		destDir := ""
		if filepath.Dir(localPath) == scratch.Path() {
			destDir, err = os.Getwd()
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("failed to determine save directory: %v", err)), nil
			}
		}

		savedPath, err := pipeline.SaveTranscript(localPath, destDir, transcript)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save transcript: %v", err)), nil
		}

		s.logger.Info("Transcript saved", slog.String("path", savedPath))
		return mcp.NewToolResultText(fmt.Sprintf("Transcript saved to %s\n\n%s", savedPath, transcript)), nil
	}

	return mcp.NewToolResultText(transcript), nil
}

// parseFlexibleBool accepts a bool, the strings "true"/"false", or nil.
// Clients driven by language models frequently send booleans as strings.
func parseFlexibleBool(v any) (bool, error) {
	switch b := v.(type) {
	case nil:
		return false, nil
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true":
			return true, nil
		case "false", "":
			return false, nil
		default:
			return false, fmt.Errorf("save_to_file must be a boolean or \"true\"/\"false\", got %q", b)
		}
	default:
		return false, fmt.Errorf("save_to_file must be a boolean or \"true\"/\"false\", got %T", v)
	}
}
