package feed

import (
	"context"
	"time"

	"ripple/internal/cache"
	"ripple/internal/observability"

	"golang.org/x/sync/singleflight"
)

// CandidateCache stores ranked, user-agnostic candidate lists keyed by mode.
// There are exactly three possible keys; a user identifier must never become
// part of the key. Entries carry a per-mode TTL and the "timeline"
// invalidation tag.
//
// Population is coalesced with a singleflight group per mode key, so N
// concurrent misses trigger one computation. The computation is read-only and
// idempotent, so the guard is purely a load optimization, not a correctness
// requirement. When Redis is unavailable every Get is a miss and results are
// computed directly, uncached.
type CandidateCache struct {
	ttls  map[Mode]time.Duration
	group singleflight.Group
}

// NewCandidateCache builds the cache with per-mode TTLs. Zero durations fall
// back to the package defaults.
func NewCandidateCache(feedTTL, trendingTTL time.Duration) *CandidateCache {
	if feedTTL <= 0 {
		feedTTL = cache.FeedTTL
	}
	if trendingTTL <= 0 {
		trendingTTL = cache.TrendingTTL
	}
	return &CandidateCache{
		ttls: map[Mode]time.Duration{
			ModeChronological: feedTTL,
			ModeAlgorithmic:   feedTTL,
			ModeTrending:      trendingTTL,
		},
	}
}

// Get returns the cached candidate list for the mode, if present.
func (c *CandidateCache) Get(ctx context.Context, mode Mode) ([]ScoredPost, bool) {
	var entries []ScoredPost
	found, err := cache.GetJSON(ctx, cache.FeedKey(mode.String()), &entries)
	if err != nil || !found {
		observability.FeedCacheMisses.WithLabelValues(mode.String()).Inc()
		return nil, false
	}
	observability.FeedCacheHits.WithLabelValues(mode.String()).Inc()
	return entries, true
}

// Populate stores a freshly ranked candidate list under the mode key and
// records it under the timeline invalidation tag. Best-effort: a failed write
// only means the next request recomputes.
func (c *CandidateCache) Populate(ctx context.Context, mode Mode, entries []ScoredPost) {
	key := cache.FeedKey(mode.String())
	if err := cache.SetJSON(ctx, key, entries, c.ttls[mode]); err != nil {
		return
	}
	cache.Tag(ctx, cache.TagTimeline, key)
}

// GetOrCompute returns the cached entry for the mode or computes, stores and
// returns it. A failed or canceled computation writes nothing.
func (c *CandidateCache) GetOrCompute(ctx context.Context, mode Mode, compute func(context.Context) ([]ScoredPost, error)) ([]ScoredPost, error) {
	if entries, ok := c.Get(ctx, mode); ok {
		return entries, nil
	}

	val, err, _ := c.group.Do(mode.String(), func() (interface{}, error) {
		// A concurrent flight may have populated the key while we waited.
		if entries, ok := c.Get(ctx, mode); ok {
			return entries, nil
		}
		entries, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.Populate(ctx, mode, entries)
		return entries, nil
	})
	if err != nil {
		return nil, err
	}
	return val.([]ScoredPost), nil
}
