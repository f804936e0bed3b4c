package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureReplacer struct {
	replaced chan []Episode
	rejected atomic.Int64
}

func (c *captureReplacer) Replace(items []Episode) bool {
	if len(items) == 0 {
		c.rejected.Add(1)
		return false
	}
	select {
	case c.replaced <- items:
	default:
	}
	return true
}

func TestRefresherSwapsCollection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &captureReplacer{replaced: make(chan []Episode, 1)}
	go RunRefresher(ctx, zerolog.Nop(), NewFetcher(srv.URL), r, 10*time.Millisecond)

	select {
	case items := <-r.replaced:
		assert.Len(t, items, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("refresher never replaced the collection")
	}
}

func TestRefresherKeepsCollectionOnEmptyFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<rss version="2.0"><channel><title>empty</title></channel></rss>`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := &captureReplacer{replaced: make(chan []Episode, 1)}
	go RunRefresher(ctx, zerolog.Nop(), NewFetcher(srv.URL), r, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return r.rejected.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)

	select {
	case <-r.replaced:
		t.Fatal("empty feed must not replace the collection")
	default:
	}
}
