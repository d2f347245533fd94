package transcription

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Config contains transcription client configuration
type Config struct {
	APIKey  string
	BaseURL string // optional alternate API base
	Model   string
	Timeout time.Duration
}

// Client wraps the speech-to-text API. It is configured once at startup and is
// immutable for the process lifetime apart from its statistics. A failed call
// surfaces immediately: there is no internal retry.
type Client struct {
	api   *openai.Client
	model string

	// Statistics
	totalRequests   uint64
	successRequests uint64
	failedRequests  uint64
	avgResponseTime time.Duration

	mu sync.RWMutex
}

// ClientStats represents client statistics
type ClientStats struct {
	TotalRequests   uint64        `json:"total_requests"`
	SuccessRequests uint64        `json:"success_requests"`
	FailedRequests  uint64        `json:"failed_requests"`
	SuccessRate     float64       `json:"success_rate"`
	AvgResponseTime time.Duration `json:"avg_response_time"`
}

// NewClient creates a new transcription client
func NewClient(config Config) (*Client, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("API key cannot be empty")
	}

	if config.Model == "" {
		config.Model = openai.Whisper1
	}

	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Minute
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{Timeout: config.Timeout}

	return &Client{
		api:   openai.NewClientWithConfig(clientConfig),
		model: config.Model,
	}, nil
}

// Transcribe submits one audio file and returns the recognized text. The API
// infers the audio format from the file's extension, which is why segment
// files preserve the source file's suffix.
func (c *Client) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	startTime := time.Now()
	c.incrementTotalRequests()

	resp, err := c.api.CreateTranscription(ctx, openai.AudioRequest{
		Model:    c.model,
		FilePath: audioPath,
		Language: language,
	})
	if err != nil {
		c.incrementFailedRequests()
		return "", fmt.Errorf("transcription of %s failed: %w", filepath.Base(audioPath), err)
	}

	c.recordSuccess(time.Since(startTime))
	return resp.Text, nil
}

func (c *Client) incrementTotalRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.totalRequests++
}

func (c *Client) incrementFailedRequests() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failedRequests++
}

func (c *Client) recordSuccess(responseTime time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.successRequests++

	// Simple moving average
	if c.avgResponseTime == 0 {
		c.avgResponseTime = responseTime
	} else {
		c.avgResponseTime = (c.avgResponseTime + responseTime) / 2
	}
}

// GetStats returns current client statistics
func (c *Client) GetStats() ClientStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	successRate := float64(0)
	if c.totalRequests > 0 {
		successRate = float64(c.successRequests) / float64(c.totalRequests) * 100
	}

	return ClientStats{
		TotalRequests:   c.totalRequests,
		SuccessRequests: c.successRequests,
		FailedRequests:  c.failedRequests,
		SuccessRate:     successRate,
		AvgResponseTime: c.avgResponseTime,
	}
}
