package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTranscriber returns canned text per call index, or an error for indices
// listed in failOn.
type fakeTranscriber struct {
	calls  []string
	failOn map[int]bool
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	call := len(f.calls)
	f.calls = append(f.calls, audioPath)

	if f.failOn[call] {
		return "", errors.New("api unavailable")
	}
	return fmt.Sprintf("text%d", call), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func writeAudio(t *testing.T, size int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "episode.mp3")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestTranscribeFullJoinsSegmentsInOrder(t *testing.T) {
	// 3 MiB file with 1 MiB chunks gives exactly 3 segments.
	path := writeAudio(t, 3*1024*1024)
	ft := &fakeTranscriber{failOn: map[int]bool{}}

	p := New(ft, testLogger(), nil)
	result, err := p.TranscribeFull(context.Background(), path, "en", 1, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "text0 text1 text2", result.Transcript)
	assert.Equal(t, 3, result.SegmentCount)
	assert.Equal(t, 0, result.FailedSegments)
	assert.Len(t, ft.calls, 3)
}

func TestTranscribeFullSkipsFailedSegment(t *testing.T) {
	path := writeAudio(t, 3*1024*1024)
	ft := &fakeTranscriber{failOn: map[int]bool{1: true}}

	p := New(ft, testLogger(), nil)
	result, err := p.TranscribeFull(context.Background(), path, "en", 1, t.TempDir())
	require.NoError(t, err)

	// Failed segment contributes nothing, no placeholder.
	assert.Equal(t, "text0 text2", result.Transcript)
	assert.Equal(t, 1, result.FailedSegments)
}

func TestTranscribeFullAllSegmentsFail(t *testing.T) {
	path := writeAudio(t, 2*1024*1024)
	ft := &fakeTranscriber{failOn: map[int]bool{0: true, 1: true}}

	p := New(ft, testLogger(), nil)
	result, err := p.TranscribeFull(context.Background(), path, "en", 1, t.TempDir())

	// Total failure is still a successful (blank) run.
	require.NoError(t, err)
	assert.Empty(t, result.Transcript)
	assert.Equal(t, 2, result.FailedSegments)
}

func TestTranscribeFullSegmentationError(t *testing.T) {
	ft := &fakeTranscriber{}
	p := New(ft, testLogger(), nil)

	_, err := p.TranscribeFull(context.Background(), "/nonexistent/audio.mp3", "en", 1, t.TempDir())
	require.Error(t, err)
	assert.Empty(t, ft.calls, "no transcription must be attempted when segmentation fails")
}

func TestTranscribeFullHonorsCancellation(t *testing.T) {
	path := writeAudio(t, 2*1024*1024)
	ft := &fakeTranscriber{}
	p := New(ft, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.TranscribeFull(ctx, path, "en", 1, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTranscribeFileDirect(t *testing.T) {
	path := writeAudio(t, 1024)
	ft := &fakeTranscriber{}
	p := New(ft, testLogger(), nil)

	text, err := p.TranscribeFile(context.Background(), path, "en")
	require.NoError(t, err)
	assert.Equal(t, "text0", text)
	require.Len(t, ft.calls, 1)
	assert.Equal(t, path, ft.calls[0], "non-chunked mode must submit the whole file")
}

func TestSaveTranscript(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "episode.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("audio"), 0o644))

	outPath, err := SaveTranscript(audioPath, "", "the transcript text")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "episode.txt"), outPath)

	content, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "the transcript text", string(content))
}

func TestSaveTranscriptAlternateDir(t *testing.T) {
	audioDir := t.TempDir()
	destDir := t.TempDir()
	audioPath := filepath.Join(audioDir, "episode_123.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("audio"), 0o644))

	outPath, err := SaveTranscript(audioPath, destDir, "text")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "episode_123.txt"), outPath)
}
