package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(zerolog.Nop(), filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)

	s.Record("Episode One", "https://cdn.example.com/1.mp3", "started", 0)
	s.Record("Episode One", "https://cdn.example.com/1.mp3", "completed", 0)
	s.Record("Episode Two", "https://cdn.example.com/2.mp3", "started", 90*time.Second)

	entries, err := s.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Newest first.
	assert.Equal(t, "Episode Two", entries[0].Title)
	assert.Equal(t, "started", entries[0].Outcome)
	assert.Equal(t, int64(90000), entries[0].OffsetMs)
	assert.Equal(t, "completed", entries[1].Outcome)
}

func TestRecentHonorsLimit(t *testing.T) {
	s := openTestStore(t)

	for i := 0; i < 5; i++ {
		s.Record("Episode", "https://cdn.example.com/ep.mp3", "completed", 0)
	}

	entries, err := s.Recent(2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRecentOnEmptyStore(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.Recent(10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
