package feed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rssDocument(episodeCount int) string {
	var items strings.Builder
	for i := 0; i < episodeCount; i++ {
		fmt.Fprintf(&items, `
		<item>
			<title>Episode %d</title>
			<pubDate>Mon, 0%d Jan 2024 10:00:00 +0000</pubDate>
			<itunes:duration>45:0%d</itunes:duration>
			<enclosure url="https://cdn.example.com/ep%d.mp3" length="%d" type="audio/mpeg"/>
		</item>`, i, (i%9)+1, i%10, i, 1000000+i)
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:itunes="http://www.itunes.com/dtds/podcast-1.0.dtd">
	<channel>
		<title>Test Podcast</title>
		<description>A podcast about testing</description>
		<link>https://example.com/podcast</link>
		<lastBuildDate>Tue, 09 Jan 2024 10:00:00 +0000</lastBuildDate>
		%s
	</channel>
</rss>`, items.String())
}

func serveFeed(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
}

func TestFetchPopulatesCache(t *testing.T) {
	ts := serveFeed(t, rssDocument(3), http.StatusOK)
	defer ts.Close()

	source := NewSource()
	require.False(t, source.Cached())

	summary, err := source.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)

	assert.Equal(t, "Test Podcast", summary.Title)
	assert.Equal(t, "A podcast about testing", summary.Description)
	assert.Equal(t, 3, summary.EpisodeCount)
	assert.True(t, source.Cached())

	episodes, err := source.Episodes(0, 0)
	require.NoError(t, err)
	require.Len(t, episodes, 3)

	// Feed order must be preserved, fields carried over verbatim.
	assert.Equal(t, "Episode 0", episodes[0].Title)
	assert.Equal(t, "https://cdn.example.com/ep0.mp3", episodes[0].AudioURL)
	assert.Equal(t, int64(1000000), episodes[0].AudioSizeBytes)
	assert.Equal(t, "Episode 2", episodes[2].Title)
}

func TestEpisodesBeforeFetchFails(t *testing.T) {
	source := NewSource()

	_, err := source.Episodes(0, 0)
	assert.ErrorIs(t, err, ErrNoFeed)
}

func TestEpisodesOffsetAndLimit(t *testing.T) {
	ts := serveFeed(t, rssDocument(10), http.StatusOK)
	defer ts.Close()

	source := NewSource()
	_, err := source.Fetch(context.Background(), ts.URL)
	require.NoError(t, err)

	tests := []struct {
		name           string
		offset, limit  int
		expectedTitles []string
	}{
		{"middle window", 5, 3, []string{"Episode 5", "Episode 6", "Episode 7"}},
		{"limit exceeds remainder", 8, 5, []string{"Episode 8", "Episode 9"}},
		{"offset beyond count clamps", 20, 3, []string{}},
		{"zero limit is unbounded from offset", 7, 0, []string{"Episode 7", "Episode 8", "Episode 9"}},
		{"negative offset treated as zero", -2, 1, []string{"Episode 0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			episodes, err := source.Episodes(tt.offset, tt.limit)
			require.NoError(t, err)
			require.Len(t, episodes, len(tt.expectedTitles))
			for i, title := range tt.expectedTitles {
				assert.Equal(t, title, episodes[i].Title)
			}
		})
	}
}

func TestFetchFailureLeavesCacheUntouched(t *testing.T) {
	good := serveFeed(t, rssDocument(2), http.StatusOK)
	defer good.Close()

	source := NewSource()
	_, err := source.Fetch(context.Background(), good.URL)
	require.NoError(t, err)

	bad := serveFeed(t, "not xml at all", http.StatusOK)
	defer bad.Close()

	_, err = source.Fetch(context.Background(), bad.URL)
	require.Error(t, err)

	// Previous fetch must still be served.
	episodes, err := source.Episodes(0, 0)
	require.NoError(t, err)
	assert.Len(t, episodes, 2)
}

func TestFetchReplacesCacheWholesale(t *testing.T) {
	first := serveFeed(t, rssDocument(5), http.StatusOK)
	defer first.Close()
	second := serveFeed(t, rssDocument(2), http.StatusOK)
	defer second.Close()

	source := NewSource()

	_, err := source.Fetch(context.Background(), first.URL)
	require.NoError(t, err)

	_, err = source.Fetch(context.Background(), second.URL)
	require.NoError(t, err)

	episodes, err := source.Episodes(0, 0)
	require.NoError(t, err)
	assert.Len(t, episodes, 2, "caches must never merge across fetches")
}

func TestFetchHTTPError(t *testing.T) {
	ts := serveFeed(t, "", http.StatusInternalServerError)
	defer ts.Close()

	source := NewSource()
	_, err := source.Fetch(context.Background(), ts.URL)
	assert.Error(t, err)
}
