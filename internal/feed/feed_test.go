package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Cast</title>
    <item>
      <title>Episode Two</title>
      <pubDate>Tue, 02 Jan 2024 08:00:00 +0000</pubDate>
      <enclosure url="https://cdn.example.com/ep2.mp3" length="123" type="audio/mpeg"/>
    </item>
    <item>
      <title>No Audio Here</title>
      <pubDate>Wed, 03 Jan 2024 08:00:00 +0000</pubDate>
    </item>
    <item>
      <title>Episode One</title>
      <pubDate>Mon, 01 Jan 2024 08:00:00 +0000</pubDate>
      <enclosure url="https://cdn.example.com/ep1.mp3" length="456" type="audio/mpeg"/>
    </item>
  </channel>
</rss>`

func TestParseSortsOldestFirst(t *testing.T) {
	episodes, err := Parse([]byte(sampleFeed))
	require.NoError(t, err)
	require.Len(t, episodes, 2) // the enclosure-less item is dropped

	assert.Equal(t, "Episode One", episodes[0].Title)
	assert.Equal(t, "https://cdn.example.com/ep1.mp3", episodes[0].URL)
	assert.Equal(t, "Episode Two", episodes[1].Title)
	assert.True(t, episodes[0].PublishedAt.Before(episodes[1].PublishedAt))
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("this is not xml"))
	assert.Error(t, err)
}

func TestParsePubDateFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{
			name: "rfc1123z",
			raw:  "Mon, 01 Jan 2024 08:00:00 +0000",
			want: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "rfc1123",
			raw:  "Mon, 01 Jan 2024 08:00:00 UTC",
			want: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "single digit day",
			raw:  "Mon, 1 Jan 2024 08:00:00 +0000",
			want: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "unparseable falls back to zero",
			raw:  "sometime last week",
			want: time.Time{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parsePubDate(tt.raw)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestFetchAgainstServer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL)
	episodes, err := f.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, episodes, 2)
}

func TestFetchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL)
	_, err := f.Fetch(context.Background())
	assert.Error(t, err)
}
