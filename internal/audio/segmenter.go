package audio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Segment represents one contiguous byte range of a source file, materialized
// as its own file. StartByte and EndByte are inclusive; Index defines the
// reassembly order of the transcribed text.
type Segment struct {
	Index     int    `json:"index"`
	StartByte int64  `json:"start_byte"`
	EndByte   int64  `json:"end_byte"`
	Path      string `json:"path"`
}

// Size returns the segment length in bytes
func (s Segment) Size() int64 {
	return s.EndByte - s.StartByte + 1
}

// Split cuts the file at srcPath into ceil(size/maxSegmentBytes) contiguous,
// non-overlapping segments written to destDir, and returns them in ascending
// index order together with the total file size. Segment files keep the source
// file's extension because the transcription API infers the audio format from
// the filename suffix.
//
// On a write failure the whole operation fails; segments written so far are
// left in destDir for the caller's scratch cleanup to collect.
func Split(srcPath, destDir string, maxSegmentBytes int64) ([]Segment, int64, error) {
	if maxSegmentBytes <= 0 {
		return nil, 0, fmt.Errorf("max segment size must be positive, got %d", maxSegmentBytes)
	}

	src, err := os.Open(srcPath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open source file %s: %w", srcPath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to stat source file %s: %w", srcPath, err)
	}
	if !info.Mode().IsRegular() {
		return nil, 0, fmt.Errorf("source %s is not a regular file", srcPath)
	}

	totalSize := info.Size()
	segmentCount := (totalSize + maxSegmentBytes - 1) / maxSegmentBytes

	ext := filepath.Ext(srcPath)
	base := strings.TrimSuffix(filepath.Base(srcPath), ext)

	segments := make([]Segment, 0, segmentCount)
	for i := int64(0); i < segmentCount; i++ {
		startByte := i * maxSegmentBytes
		endByte := (i+1)*maxSegmentBytes - 1
		if endByte > totalSize-1 {
			endByte = totalSize - 1
		}

		segPath := filepath.Join(destDir, fmt.Sprintf("%s_segment_%03d%s", base, i, ext))
		if err := writeSegment(src, segPath, endByte-startByte+1); err != nil {
			return nil, 0, fmt.Errorf("failed to write segment %d of %s: %w", i, srcPath, err)
		}

		segments = append(segments, Segment{
			Index:     int(i),
			StartByte: startByte,
			EndByte:   endByte,
			Path:      segPath,
		})
	}

	return segments, totalSize, nil
}

// writeSegment copies the next n bytes of src into a new file at path.
// Segments are consumed in order, so a single sequential reader suffices.
func writeSegment(src io.Reader, path string, n int64) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}

	if _, err := io.CopyN(dst, src, n); err != nil {
		dst.Close()
		return err
	}

	return dst.Close()
}
