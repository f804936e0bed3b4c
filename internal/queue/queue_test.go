package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/miekas/podradio/internal/feed"
)

func episodes(titles ...string) []feed.Episode {
	eps := make([]feed.Episode, len(titles))
	for i, title := range titles {
		eps[i] = feed.Episode{
			Title:       title,
			URL:         "https://cdn.example.com/" + title + ".mp3",
			PublishedAt: time.Unix(int64(i), 0),
		}
	}
	return eps
}

func TestAdvanceCyclesThroughCollection(t *testing.T) {
	q := New()
	require.True(t, q.Replace(episodes("a", "b", "c")))

	first, ok := q.Current()
	require.True(t, ok)

	// Exactly len advances return to the first episode.
	for i := 0; i < q.Len(); i++ {
		q.Advance()
	}
	again, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, first, again)
}

func TestCurrentOnEmptyQueue(t *testing.T) {
	q := New()

	_, ok := q.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())

	// Advance on empty is a no-op, not a panic.
	q.Advance()
	_, ok = q.Current()
	assert.False(t, ok)
}

func TestReplaceRejectsEmptyResult(t *testing.T) {
	q := New()
	require.True(t, q.Replace(episodes("a", "b")))

	assert.False(t, q.Replace(nil))
	assert.False(t, q.Replace([]feed.Episode{}))

	// The previous collection survives a bad refresh.
	assert.Equal(t, 2, q.Len())
	ep, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "a", ep.Title)
}

func TestCursorRevalidatedWhenCollectionShrinks(t *testing.T) {
	q := New()
	require.True(t, q.Replace(episodes("a", "b", "c", "d")))

	q.Advance()
	q.Advance()
	q.Advance() // cursor on "d"

	require.True(t, q.Replace(episodes("a", "b")))

	ep, ok := q.Current()
	require.True(t, ok)
	assert.Contains(t, []string{"a", "b"}, ep.Title)
}

func TestReplaceCopiesInput(t *testing.T) {
	q := New()
	input := episodes("a", "b")
	require.True(t, q.Replace(input))

	input[0].Title = "mutated"

	ep, ok := q.Current()
	require.True(t, ok)
	assert.Equal(t, "a", ep.Title)
}
