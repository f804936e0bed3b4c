package feed

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/pkg/errors"
)

// Episode is one playable item from the podcast feed. Immutable once parsed.
type Episode struct {
	Title       string
	URL         string
	PublishedAt time.Time
}

// RSS structures for the podcast feed format
type rss struct {
	XMLName xml.Name `xml:"rss"`
	Channel channel  `xml:"channel"`
}

type channel struct {
	Title string `xml:"title"`
	Items []item `xml:"item"`
}

type item struct {
	Title     string    `xml:"title"`
	PubDate   string    `xml:"pubDate"`
	Enclosure enclosure `xml:"enclosure"`
}

type enclosure struct {
	URL    string `xml:"url,attr"`
	Length int64  `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

// pubDate formats seen in the wild, tried in order
var pubDateFormats = []string{
	time.RFC1123Z,
	time.RFC1123,
	"Mon, 2 Jan 2006 15:04:05 -0700",
	"Mon, 2 Jan 2006 15:04:05 MST",
	"2006-01-02T15:04:05Z07:00",
}

// Fetcher downloads and parses a podcast RSS feed.
type Fetcher struct {
	client  *http.Client
	feedURL string
}

// NewFetcher creates a fetcher for the given feed URL.
func NewFetcher(feedURL string) *Fetcher {
	return &Fetcher{
		client:  &http.Client{Timeout: 30 * time.Second},
		feedURL: feedURL,
	}
}

// Fetch downloads the feed and returns its episodes sorted by publish time,
// oldest first. Items without an audio enclosure are dropped.
func (f *Fetcher) Fetch(ctx context.Context) ([]Episode, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.feedURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "building feed request")
	}
	req.Header.Set("User-Agent", "podradio/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "fetching feed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, errors.Wrap(err, "reading feed body")
	}

	return Parse(body)
}

// Parse decodes raw RSS bytes into episodes, oldest first.
func Parse(data []byte) ([]Episode, error) {
	var doc rss
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "parsing feed xml")
	}

	episodes := make([]Episode, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		if it.Enclosure.URL == "" {
			continue
		}
		episodes = append(episodes, Episode{
			Title:       it.Title,
			URL:         it.Enclosure.URL,
			PublishedAt: parsePubDate(it.PubDate),
		})
	}

	sort.SliceStable(episodes, func(i, j int) bool {
		return episodes[i].PublishedAt.Before(episodes[j].PublishedAt)
	})

	return episodes, nil
}

func parsePubDate(raw string) time.Time {
	for _, layout := range pubDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
