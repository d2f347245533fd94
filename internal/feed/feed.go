package feed

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/mmcdole/gofeed"
)

// ErrNoFeed is returned when episodes are listed before any successful fetch.
var ErrNoFeed = errors.New("no feed cached: fetch a feed first")

// Summary describes a fetched podcast feed
type Summary struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Link          string `json:"link"`
	LastBuildDate string `json:"last_build_date,omitempty"`
	EpisodeCount  int    `json:"episode_count"`
}

// Episode is a single feed item, carried over verbatim from the feed fields
// with no validation beyond optional-field defaulting.
type Episode struct {
	Title          string `json:"title"`
	PublishDate    string `json:"publish_date,omitempty"`
	Duration       string `json:"duration,omitempty"`
	AudioURL       string `json:"audio_url,omitempty"`
	AudioSizeBytes int64  `json:"audio_size_bytes,omitempty"`
}

// Source fetches podcast RSS feeds and serves episode listings from a
// single-slot in-memory cache. The cache is replaced wholesale on each
// successful fetch and left untouched on failure; episode order is preserved
// exactly as the feed provides it. Safe for concurrent use.
type Source struct {
	parser *gofeed.Parser

	mu       sync.RWMutex
	summary  *Summary
	episodes []Episode
}

// NewSource creates a new feed source with an empty cache
func NewSource() *Source {
	return &Source{parser: gofeed.NewParser()}
}

// Fetch retrieves and parses the feed at feedURL, replacing the cached feed
// unconditionally on success.
func (s *Source) Fetch(ctx context.Context, feedURL string) (Summary, error) {
	parsed, err := s.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to fetch feed %s: %w", feedURL, err)
	}

	episodes := make([]Episode, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		episodes = append(episodes, episodeFromItem(item))
	}

	summary := Summary{
		Title:         parsed.Title,
		Description:   parsed.Description,
		Link:          parsed.Link,
		LastBuildDate: parsed.Updated,
		EpisodeCount:  len(episodes),
	}

	s.mu.Lock()
	s.summary = &summary
	s.episodes = episodes
	s.mu.Unlock()

	return summary, nil
}

// Episodes returns a window of the cached episode list. Offset values beyond
// the episode count are clamped; a limit of 0 or less means unbounded.
func (s *Source) Episodes(offset, limit int) ([]Episode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.summary == nil {
		return nil, ErrNoFeed
	}

	if offset < 0 {
		offset = 0
	}
	if offset > len(s.episodes) {
		offset = len(s.episodes)
	}

	window := s.episodes[offset:]
	if limit > 0 && limit < len(window) {
		window = window[:limit]
	}

	// Copy so callers never alias the cache.
	out := make([]Episode, len(window))
	copy(out, window)
	return out, nil
}

// Cached reports whether a feed has been fetched successfully
func (s *Source) Cached() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary != nil
}

func episodeFromItem(item *gofeed.Item) Episode {
	ep := Episode{
		Title:       item.Title,
		PublishDate: item.Published,
	}

	if item.ITunesExt != nil {
		ep.Duration = item.ITunesExt.Duration
	}

	if len(item.Enclosures) > 0 {
		enc := item.Enclosures[0]
		ep.AudioURL = enc.URL
		if n, err := strconv.ParseInt(enc.Length, 10, 64); err == nil {
			ep.AudioSizeBytes = n
		}
	}

	return ep
}
