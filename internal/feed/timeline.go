package feed

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"ripple/internal/models"
	"ripple/internal/observability"
)

// Options tunes the timeline service.
type Options struct {
	// DefaultLimit is the page size when the caller passes none.
	DefaultLimit int
	// PoolSize is how many ranked candidates each cache entry holds; it
	// bounds how deep pagination can reach within one entry.
	PoolSize int
	// HistoryWindow is how far back interaction history is read for the
	// affinity sub-score.
	HistoryWindow time.Duration
}

// Timeline composes the shared candidate cache, the per-request personal
// re-rank and the interaction overlay into the one public feed entry point.
type Timeline struct {
	selector      *Selector
	cache         *CandidateCache
	hydrator      *Hydrator
	interactions  InteractionSource
	defaultLimit  int
	poolSize      int
	historyWindow time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

// NewTimeline wires the feed pipeline together.
func NewTimeline(selector *Selector, candidateCache *CandidateCache, hydrator *Hydrator, interactions InteractionSource, opts Options, logger *slog.Logger) *Timeline {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 20
	}
	if opts.PoolSize < opts.DefaultLimit {
		opts.PoolSize = opts.DefaultLimit * 5
	}
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = 90 * 24 * time.Hour
	}
	return &Timeline{
		selector:      selector,
		cache:         candidateCache,
		hydrator:      hydrator,
		interactions:  interactions,
		defaultLimit:  opts.DefaultLimit,
		poolSize:      opts.PoolSize,
		historyWindow: opts.HistoryWindow,
		now:           time.Now,
		logger:        logger,
	}
}

// GetTimeline produces one page of the user's feed. The expensive,
// user-agnostic ranking comes from the shared cache (populated on miss); the
// follow-set eligibility, personal affinity delta and like/repost flags are
// resolved fresh for this request and never written back.
//
// An empty page is a valid response, not an error. Store faults propagate as
// DataSourceError, with one documented exception: if only the interaction
// overlay lookup fails, the page is served with all-false flags and the
// fallback is logged and counted.
func (t *Timeline) GetTimeline(ctx context.Context, userID uint, modeStr string, page, limit int) ([]HydratedPost, error) {
	mode, err := ParseMode(modeStr)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = t.defaultLimit
	}

	entries, err := t.cache.GetOrCompute(ctx, mode, func(ctx context.Context) ([]ScoredPost, error) {
		return t.buildEntry(ctx, mode)
	})
	if err != nil {
		return nil, err
	}

	if mode.Scored() {
		entries, err = t.personalize(ctx, mode, userID, entries)
		if err != nil {
			return nil, err
		}
	}

	pageEntries := slicePage(entries, page, limit)
	if len(pageEntries) == 0 {
		return []HydratedPost{}, nil
	}

	overlay, err := t.hydrator.Hydrate(ctx, userID, overlayTargets(pageEntries))
	if err != nil {
		// Degraded but explicit: the page renders with all-false flags
		// rather than failing entirely.
		t.logger.WarnContext(ctx, "interaction hydration failed, serving unhydrated page",
			slog.String("mode", mode.String()),
			slog.String("error", err.Error()),
		)
		observability.FeedHydrationFallbacks.Inc()
		overlay = Overlay{}
	}

	out := make([]HydratedPost, len(pageEntries))
	for i, entry := range pageEntries {
		flags := overlay[overlayTarget(&entry.PostSummary)]
		out[i] = HydratedPost{
			ScoredPost: entry,
			IsLiked:    flags.IsLiked,
			IsReposted: flags.IsReposted,
		}
	}
	return out, nil
}

// buildEntry runs the full selection + baseline scoring pass for one mode.
// It runs only on a cache miss and holds no user state.
func (t *Timeline) buildEntry(ctx context.Context, mode Mode) ([]ScoredPost, error) {
	start := time.Now()
	candidates, err := t.selector.SelectCandidates(ctx, mode, t.poolSize)
	if err != nil {
		return nil, err
	}
	entries := rankCandidates(mode, candidates, t.poolSize, t.now())
	observability.ObserveRank(mode.String(), start)
	return entries, nil
}

// rankCandidates orders candidates for the cache entry. Chronological mode
// sorts by effective timestamp descending; scored modes compute the
// user-agnostic baseline score (empty history and follow set) and sort
// descending, ties retaining selector order.
func rankCandidates(mode Mode, candidates []PostSummary, poolSize int, now time.Time) []ScoredPost {
	entries := make([]ScoredPost, len(candidates))

	if !mode.Scored() {
		for i := range candidates {
			entries[i] = ScoredPost{PostSummary: candidates[i]}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].EffectiveTime().After(entries[j].EffectiveTime())
		})
	} else {
		for i := range candidates {
			entries[i] = ScoredPost{
				PostSummary: candidates[i],
				Score:       Score(&candidates[i], i, candidates, History{}, FollowSet{}, now),
			}
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].Score > entries[j].Score
		})
	}

	if len(entries) > poolSize {
		entries = entries[:poolSize]
	}
	for i := range entries {
		entries[i].Rank = i
	}
	return entries
}

// personalize applies the per-request half of the corrected design: the
// algorithmic follow/engagement eligibility rule and the personal score delta
// (affinity plus the liked-author relevance bonus), followed by a stable
// re-sort. It copies entries; the cached slice is never mutated.
func (t *Timeline) personalize(ctx context.Context, mode Mode, userID uint, entries []ScoredPost) ([]ScoredPost, error) {
	if userID == 0 {
		// Anonymous requesters see the shared baseline order. The
		// algorithmic eligibility filter still applies with an empty
		// follow set.
		entries = filterBaseline(mode, entries)
		return entries, nil
	}
	followingIDs, err := t.interactions.Following(ctx, userID)
	if err != nil {
		return nil, models.NewDataSourceError("follow set", err)
	}
	rows, err := t.interactions.History(ctx, userID, t.now().Add(-t.historyWindow))
	if err != nil {
		return nil, models.NewDataSourceError("interaction history", err)
	}
	following := NewFollowSet(followingIDs)
	hist := NewHistory(rows)
	now := t.now()
	w := mode.Weights()

	personal := make([]ScoredPost, 0, len(entries))
	for _, entry := range entries {
		p := entry.PostSummary
		if mode == ModeAlgorithmic &&
			!following.Contains(p.AuthorID) &&
			p.TotalEngagement() <= algorithmicEngagementFloor {
			continue
		}
		delta := w.Affinity * AffinityScore(&p, hist, following, now)
		if hist.LikedAuthor(p.AuthorID) {
			delta += w.Relevance * likedAuthorBonus
		}
		entry.Score += delta
		personal = append(personal, entry)
	}

	sort.SliceStable(personal, func(i, j int) bool {
		return personal[i].Score > personal[j].Score
	})
	for i := range personal {
		personal[i].Rank = i
	}
	return personal, nil
}

// filterBaseline applies the algorithmic eligibility rule with an empty
// follow set, without copying scores. Other modes pass through untouched.
func filterBaseline(mode Mode, entries []ScoredPost) []ScoredPost {
	if mode != ModeAlgorithmic {
		return entries
	}
	out := make([]ScoredPost, 0, len(entries))
	for _, entry := range entries {
		if entry.TotalEngagement() <= algorithmicEngagementFloor {
			continue
		}
		out = append(out, entry)
	}
	for i := range out {
		out[i].Rank = i
	}
	return out
}

func slicePage(entries []ScoredPost, page, limit int) []ScoredPost {
	start := (page - 1) * limit
	if start >= len(entries) {
		return nil
	}
	end := start + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[start:end]
}

// overlayTarget is the post ID interaction flags attach to: a repost page
// item reflects the viewer's relationship with the original content.
func overlayTarget(p *PostSummary) uint {
	if p.IsRepost && p.OriginalPostID != nil {
		return *p.OriginalPostID
	}
	return p.ID
}

func overlayTargets(entries []ScoredPost) []uint {
	ids := make([]uint, 0, len(entries))
	seen := map[uint]struct{}{}
	for i := range entries {
		id := overlayTarget(&entries[i].PostSummary)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}
