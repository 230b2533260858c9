package feed

import (
	"context"
	"time"

	"ripple/internal/models"
)

// InteractionSource is the slice of the store resolving per-user interaction
// state. It is always queried fresh; nothing here may be cached per user.
type InteractionSource interface {
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	RepostedPostIDs(ctx context.Context, userID uint, originalPostIDs []uint) ([]uint, error)
	Following(ctx context.Context, userID uint) ([]uint, error)
	History(ctx context.Context, userID uint, since time.Time) ([]models.Interaction, error)
}

// Hydrator resolves the requesting user's like/repost flags for a page of
// post IDs. The result is a pure overlay: merging it never touches the cached
// summaries, which are shared across users.
type Hydrator struct {
	interactions InteractionSource
}

// NewHydrator builds a Hydrator over the given interaction source.
func NewHydrator(interactions InteractionSource) *Hydrator {
	return &Hydrator{interactions: interactions}
}

// Hydrate returns the overlay for exactly the given post IDs. It always
// bypasses the cache. A store fault is propagated as a DataSourceError; the
// caller decides whether to fail the page or serve a degraded all-false
// overlay.
func (h *Hydrator) Hydrate(ctx context.Context, userID uint, postIDs []uint) (Overlay, error) {
	overlay := make(Overlay, len(postIDs))
	if len(postIDs) == 0 || userID == 0 {
		// Anonymous requesters get the all-false overlay without store access.
		return overlay, nil
	}

	liked, err := h.interactions.LikedPostIDs(ctx, userID, postIDs)
	if err != nil {
		return nil, models.NewDataSourceError("hydration likes", err)
	}
	reposted, err := h.interactions.RepostedPostIDs(ctx, userID, postIDs)
	if err != nil {
		return nil, models.NewDataSourceError("hydration reposts", err)
	}

	for _, id := range liked {
		flags := overlay[id]
		flags.IsLiked = true
		overlay[id] = flags
	}
	for _, id := range reposted {
		flags := overlay[id]
		flags.IsReposted = true
		overlay[id] = flags
	}
	return overlay, nil
}
