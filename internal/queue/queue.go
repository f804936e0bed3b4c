package queue

import (
	"sync"

	"github.com/miekas/podradio/internal/feed"
)

// Queue holds the ordered episode collection and the playback cursor. The
// collection is replaced wholesale on each feed refresh; the cursor wraps
// modulo the collection length so playback cycles chronologically.
type Queue struct {
	mu     sync.RWMutex
	items  []feed.Episode
	cursor int
}

// New creates an empty queue.
func New() *Queue {
	return &Queue{}
}

// Replace atomically swaps the active collection. An empty refresh result is
// treated as a transient fetch failure and rejected, preserving the previous
// collection. The cursor is re-validated since the collection may shrink.
func (q *Queue) Replace(items []feed.Episode) bool {
	if len(items) == 0 {
		return false
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.items = make([]feed.Episode, len(items))
	copy(q.items, items)
	q.cursor = q.cursor % len(q.items)
	return true
}

// Current returns the episode under the cursor, or false if the queue is empty.
func (q *Queue) Current() (feed.Episode, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if len(q.items) == 0 {
		return feed.Episode{}, false
	}
	return q.items[q.cursor%len(q.items)], true
}

// Advance moves the cursor to the next episode, wrapping at the end.
func (q *Queue) Advance() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return
	}
	q.cursor = (q.cursor + 1) % len(q.items)
}

// Len returns the number of episodes in the current collection.
func (q *Queue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.items)
}
