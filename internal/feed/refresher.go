package feed

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Replacer is the queue-side contract of a refresh: swap in a new collection,
// reporting false when the swap was rejected (empty result).
type Replacer interface {
	Replace(items []Episode) bool
}

// RunRefresher periodically re-fetches the feed and swaps the queue
// collection. Fetch failures and empty results keep the previous collection;
// nothing here is fatal. Blocks until ctx is cancelled.
func RunRefresher(ctx context.Context, log zerolog.Logger, f *Fetcher, q Replacer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			episodes, err := f.Fetch(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("feed refresh failed, keeping previous episodes")
				continue
			}
			if !q.Replace(episodes) {
				log.Warn().Msg("feed refresh returned no episodes, keeping previous collection")
				continue
			}
			log.Debug().Int("episodes", len(episodes)).Msg("feed refreshed")
		}
	}
}
