package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized by Load. The API key is only ever read from
// the environment so it cannot end up committed inside a config file.
const (
	EnvAPIKey  = "OPENAI_API_KEY"
	EnvBaseURL = "OPENAI_API_BASE_URL"
	EnvModel   = "TRANSCRIPTION_MODEL"
)

// DefaultModel is the speech-to-text model used when none is configured.
const DefaultModel = "whisper-1"

// Config represents the complete service configuration
type Config struct {
	Transcription TranscriptionConfig `yaml:"transcription"`
	Audio         AudioConfig         `yaml:"audio"`
	Monitoring    MonitoringConfig    `yaml:"monitoring"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// TranscriptionConfig contains transcription API configuration
type TranscriptionConfig struct {
	APIKey  string `yaml:"-"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	Timeout int    `yaml:"timeout"` // seconds
}

// AudioConfig contains audio acquisition and segmentation parameters
type AudioConfig struct {
	DefaultChunkSizeMB float64 `yaml:"default_chunk_size_mb"`
	DownloadTimeout    int     `yaml:"download_timeout"` // seconds
}

// MonitoringConfig contains the optional HTTP monitoring server configuration
type MonitoringConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration defaults applied before file and
// environment overrides.
func Default() *Config {
	return &Config{
		Transcription: TranscriptionConfig{
			Model:   DefaultModel,
			Timeout: 600,
		},
		Audio: AudioConfig{
			DefaultChunkSizeMB: 20,
			DownloadTimeout:    300,
		},
		Monitoring: MonitoringConfig{
			Enabled: false,
			Address: "127.0.0.1",
			Port:    8090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables (highest precedence). Path may be empty or point to a
// missing file, in which case only defaults and the environment apply.
func Load(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() {
	c.Transcription.APIKey = os.Getenv(EnvAPIKey)

	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Transcription.BaseURL = v
	}
	if v := os.Getenv(EnvModel); v != "" {
		c.Transcription.Model = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("MONITORING_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Monitoring.Enabled = enabled
		}
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Monitoring.Validate(); err != nil {
		return fmt.Errorf("monitoring config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates transcription configuration
func (t *TranscriptionConfig) Validate() error {
	if t.APIKey == "" {
		return fmt.Errorf("API key cannot be empty, set %s", EnvAPIKey)
	}

	if t.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if t.Timeout < 1 {
		return fmt.Errorf("timeout must be at least 1 second, got %d", t.Timeout)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.DefaultChunkSizeMB <= 0 {
		return fmt.Errorf("default_chunk_size_mb must be positive, got %f", a.DefaultChunkSizeMB)
	}

	if a.DownloadTimeout < 1 {
		return fmt.Errorf("download_timeout must be at least 1 second, got %d", a.DownloadTimeout)
	}

	return nil
}

// Validate validates monitoring configuration
func (m *MonitoringConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", m.Port)
		}

		if m.Address == "" {
			return fmt.Errorf("address cannot be empty when monitoring is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetTimeoutDuration returns the transcription timeout as a time.Duration
func (t *TranscriptionConfig) GetTimeoutDuration() time.Duration {
	return time.Duration(t.Timeout) * time.Second
}

// GetDownloadTimeoutDuration returns the download timeout as a time.Duration
func (a *AudioConfig) GetDownloadTimeoutDuration() time.Duration {
	return time.Duration(a.DownloadTimeout) * time.Second
}

// DefaultChunkSizeBytes returns the default segment size in bytes
func (a *AudioConfig) DefaultChunkSizeBytes() int64 {
	return int64(a.DefaultChunkSizeMB * 1024 * 1024)
}
