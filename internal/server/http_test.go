package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dingkwang/podcast-transcriber-mcp/internal/config"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/feed"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/transcription"
)

func testMonitoringServer(t *testing.T) *MonitoringServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	client, err := transcription.NewClient(transcription.Config{APIKey: "test-key"})
	require.NoError(t, err)

	cfg := config.MonitoringConfig{Enabled: true, Address: "127.0.0.1", Port: 8090}
	return NewMonitoringServer(cfg, logger, client, feed.NewSource())
}

func TestHealthEndpoint(t *testing.T) {
	m := testMonitoringServer(t)

	rec := httptest.NewRecorder()
	m.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestHealthEndpointRejectsPost(t *testing.T) {
	m := testMonitoringServer(t)

	rec := httptest.NewRecorder()
	m.handleHealth(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	m := testMonitoringServer(t)

	rec := httptest.NewRecorder()
	m.handleStats(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	feedStats, ok := body["feed"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, false, feedStats["cached"])
}
