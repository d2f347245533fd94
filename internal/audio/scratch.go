package audio

import (
	"fmt"
	"os"
)

// ScratchDir is a request-scoped temporary directory holding downloaded audio
// and segment files. It must be cleaned up on every exit path, success or
// failure; callers typically defer Cleanup right after creation.
type ScratchDir struct {
	path string
}

// NewScratchDir creates a uniquely named scratch directory under the system
// temp directory.
func NewScratchDir() (*ScratchDir, error) {
	path, err := os.MkdirTemp("", "podcast-transcriber-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	return &ScratchDir{path: path}, nil
}

// Path returns the scratch directory path
func (d *ScratchDir) Path() string {
	return d.path
}

// Cleanup removes the scratch directory and everything in it
func (d *ScratchDir) Cleanup() error {
	return os.RemoveAll(d.path)
}
