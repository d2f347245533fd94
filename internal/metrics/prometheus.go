package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the podcast transcriber service
type Metrics struct {
	// Tool invocation metrics
	ToolCalls    *prometheus.CounterVec
	ToolDuration *prometheus.HistogramVec

	// Feed metrics
	FeedFetches     prometheus.Counter
	FeedFetchErrors prometheus.Counter

	// Audio acquisition metrics
	Downloads      prometheus.Counter
	DownloadErrors prometheus.Counter

	// Segmentation metrics
	SegmentsCreated prometheus.Counter

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDuration  prometheus.Histogram
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		ToolCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "podcast_tool_calls_total",
			Help: "Total number of tool invocations by tool and status",
		}, []string{"tool", "status"}),
		ToolDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "podcast_tool_duration_seconds",
			Help:    "Tool invocation duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 1200},
		}, []string{"tool"}),
		FeedFetches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podcast_feed_fetches_total",
			Help: "Total number of successful RSS feed fetches",
		}),
		FeedFetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podcast_feed_fetch_errors_total",
			Help: "Total number of failed RSS feed fetches",
		}),
		Downloads: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podcast_downloads_total",
			Help: "Total number of successful episode downloads",
		}),
		DownloadErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podcast_download_errors_total",
			Help: "Total number of failed episode downloads",
		}),
		SegmentsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podcast_segments_created_total",
			Help: "Total number of audio segments written for chunked transcription",
		}),
		TranscriptionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podcast_transcription_requests_total",
			Help: "Total number of transcription API requests",
		}),
		TranscriptionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podcast_transcription_successes_total",
			Help: "Total number of successful transcription API requests",
		}),
		TranscriptionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "podcast_transcription_failures_total",
			Help: "Total number of failed transcription API requests",
		}),
		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "podcast_transcription_duration_seconds",
			Help:    "Transcription API request duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}
}

// RecordToolCall records a completed tool invocation
func (m *Metrics) RecordToolCall(tool, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(durationSeconds)
}

// RecordFeedFetch records a feed fetch attempt
func (m *Metrics) RecordFeedFetch(success bool) {
	if m == nil {
		return
	}
	if success {
		m.FeedFetches.Inc()
	} else {
		m.FeedFetchErrors.Inc()
	}
}

// RecordDownload records an episode download attempt
func (m *Metrics) RecordDownload(success bool) {
	if m == nil {
		return
	}
	if success {
		m.Downloads.Inc()
	} else {
		m.DownloadErrors.Inc()
	}
}

// RecordSegments records segment files written by the segmenter
func (m *Metrics) RecordSegments(count int) {
	if m == nil {
		return
	}
	m.SegmentsCreated.Add(float64(count))
}

// RecordTranscription records one transcription API call
func (m *Metrics) RecordTranscription(success bool, durationSeconds float64) {
	if m == nil {
		return
	}
	m.TranscriptionRequests.Inc()
	if success {
		m.TranscriptionSuccesses.Inc()
	} else {
		m.TranscriptionFailures.Inc()
	}
	m.TranscriptionDuration.Observe(durationSeconds)
}
