package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Sentinel errors for audio source resolution failures.
var (
	ErrFileNotFound    = errors.New("audio file not found")
	ErrFileNotReadable = errors.New("audio file not readable")
	ErrDownloadFailed  = errors.New("audio download failed")
)

// SourceKind discriminates the two audio source variants
type SourceKind int

const (
	// SourceLocalFile refers to a file already on disk
	SourceLocalFile SourceKind = iota
	// SourceRemoteURL refers to audio that must be downloaded first
	SourceRemoteURL
)

// Source identifies the audio to transcribe: either an existing local file or
// a remote URL to download into the scratch directory. The zero value is not
// usable; construct with LocalSource or RemoteSource.
type Source struct {
	Kind SourceKind
	Path string
	URL  string
}

// LocalSource returns a Source for a file already on disk
func LocalSource(path string) Source {
	return Source{Kind: SourceLocalFile, Path: path}
}

// RemoteSource returns a Source for a remote audio URL
func RemoteSource(url string) Source {
	return Source{Kind: SourceRemoteURL, URL: url}
}

// Resolve materializes the source as a readable local file and returns its
// path. Local paths are validated and returned unchanged (no copy); remote
// URLs are streamed into a uniquely named file inside scratchDir.
func (s Source) Resolve(ctx context.Context, client *http.Client, scratchDir string) (string, error) {
	switch s.Kind {
	case SourceLocalFile:
		return s.resolveLocal()
	case SourceRemoteURL:
		return s.download(ctx, client, scratchDir)
	default:
		return "", fmt.Errorf("unknown audio source kind %d", s.Kind)
	}
}

func (s Source) resolveLocal() (string, error) {
	info, err := os.Stat(s.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrFileNotFound, s.Path)
		}
		return "", fmt.Errorf("%w: %s: %v", ErrFileNotReadable, s.Path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrFileNotReadable, s.Path)
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrFileNotReadable, s.Path, err)
	}
	f.Close()

	return s.Path, nil
}

// download streams the URL body into scratchDir. Podcast enclosures are
// overwhelmingly MP3, so the downloaded file gets a fixed .mp3 suffix rather
// than attempting content-type negotiation.
func (s Source) download(ctx context.Context, client *http.Client, scratchDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: invalid URL %s: %v", ErrDownloadFailed, s.URL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrDownloadFailed, s.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %s: HTTP %d", ErrDownloadFailed, s.URL, resp.StatusCode)
	}

	destPath := filepath.Join(scratchDir, fmt.Sprintf("episode_%d.mp3", time.Now().UnixNano()))
	dst, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("%w: creating %s: %v", ErrDownloadFailed, destPath, err)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		dst.Close()
		return "", fmt.Errorf("%w: %s: %v", ErrDownloadFailed, s.URL, err)
	}

	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("%w: closing %s: %v", ErrDownloadFailed, destPath, err)
	}

	return destPath, nil
}
