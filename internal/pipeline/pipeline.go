package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dingkwang/podcast-transcriber-mcp/internal/audio"
	"github.com/dingkwang/podcast-transcriber-mcp/internal/metrics"
)

// Transcriber is the single call the pipeline needs from the transcription
// client adapter.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
}

// Result describes one completed transcription run
type Result struct {
	Transcript     string `json:"transcript"`
	SegmentCount   int    `json:"segment_count"`
	FailedSegments int    `json:"failed_segments"`
}

// Pipeline drives segmentation and per-segment transcription for one request.
// Segments are submitted strictly sequentially as backpressure against the
// external API's rate limits; ordering of the reassembled text follows segment
// index by construction.
type Pipeline struct {
	transcriber Transcriber
	logger      *slog.Logger
	metrics     *metrics.Metrics
}

// New creates a transcription pipeline. Metrics may be nil.
func New(transcriber Transcriber, logger *slog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		transcriber: transcriber,
		logger:      logger,
		metrics:     m,
	}
}

// TranscribeFile submits the whole file directly, without segmentation. For
// long audio the API effectively transcribes only the early portion; that is
// an accepted limitation of the non-chunked mode.
func (p *Pipeline) TranscribeFile(ctx context.Context, path, language string) (string, error) {
	startTime := time.Now()
	text, err := p.transcriber.Transcribe(ctx, path, language)
	p.metrics.RecordTranscription(err == nil, time.Since(startTime).Seconds())
	return text, err
}

// TranscribeFull segments the file into at most maxChunkMB-sized pieces inside
// scratchDir, transcribes each in ascending index order, and returns the
// space-joined text of the successful segments. A failed segment is logged and
// skipped; it never aborts the run. If every segment fails the result is an
// empty transcript, not an error.
func (p *Pipeline) TranscribeFull(ctx context.Context, path, language string, maxChunkMB float64, scratchDir string) (Result, error) {
	maxSegmentBytes := int64(maxChunkMB * 1024 * 1024)

	segments, totalSize, err := audio.Split(path, scratchDir, maxSegmentBytes)
	if err != nil {
		return Result{}, fmt.Errorf("failed to segment %s: %w", path, err)
	}
	p.metrics.RecordSegments(len(segments))

	p.logger.Info("Audio file segmented",
		slog.String("file", filepath.Base(path)),
		slog.Int64("total_size", totalSize),
		slog.Int("segments", len(segments)),
		slog.Float64("max_chunk_mb", maxChunkMB),
	)

	parts := make([]string, 0, len(segments))
	failed := 0

	for _, seg := range segments {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		startTime := time.Now()
		text, err := p.transcriber.Transcribe(ctx, seg.Path, language)
		p.metrics.RecordTranscription(err == nil, time.Since(startTime).Seconds())

		if err != nil {
			failed++
			p.logger.Warn("Segment transcription failed, skipping",
				slog.Int("segment", seg.Index),
				slog.Int64("start_byte", seg.StartByte),
				slog.Int64("end_byte", seg.EndByte),
				slog.String("error", err.Error()),
			)
			continue
		}

		parts = append(parts, text)
	}

	return Result{
		Transcript:     strings.Join(parts, " "),
		SegmentCount:   len(segments),
		FailedSegments: failed,
	}, nil
}

// SaveTranscript writes the transcript as UTF-8 text to <audio-basename>.txt
// in destDir and returns the written path. An empty destDir means the audio
// file's own directory.
func SaveTranscript(audioPath, destDir, transcript string) (string, error) {
	if destDir == "" {
		destDir = filepath.Dir(audioPath)
	}

	ext := filepath.Ext(audioPath)
	base := strings.TrimSuffix(filepath.Base(audioPath), ext)
	outPath := filepath.Join(destDir, base+".txt")

	if err := os.WriteFile(outPath, []byte(transcript), 0o644); err != nil {
		return "", fmt.Errorf("failed to save transcript to %s: %w", outPath, err)
	}

	return outPath, nil
}
