package feed

import (
	"context"
	"time"

	"ripple/internal/models"
)

// PostSource is the slice of the post store the selector needs.
type PostSource interface {
	FindPublicPosts(ctx context.Context, filter CandidateFilter, limit int) ([]models.Post, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
}

// UserSource resolves author snapshots in one batch lookup.
type UserSource interface {
	FindByIDs(ctx context.Context, ids []uint) ([]models.User, error)
}

// overFetchFactor is how many raw candidates are pulled per requested slot,
// so scoring has enough material for a correct top-N after diversity
// penalties reshuffle the order.
const overFetchFactor = 2

// Selector builds the user-agnostic candidate pool for a ranking mode. It
// deliberately takes no user parameter; that is what keeps its output
// cacheable across every requester of the same mode.
type Selector struct {
	posts      PostSource
	users      UserSource
	poolWindow time.Duration
	now        func() time.Time
}

// NewSelector builds a Selector. poolWindow bounds the algorithmic recency
// union (see Mode.Filter).
func NewSelector(posts PostSource, users UserSource, poolWindow time.Duration) *Selector {
	return &Selector{
		posts:      posts,
		users:      users,
		poolWindow: poolWindow,
		now:        time.Now,
	}
}

// SelectCandidates fetches up to overFetchFactor*limit eligible posts for the
// mode and converts them into user-agnostic summaries with batch-resolved
// author snapshots. An empty result is not an error; a store fault is
// propagated as a DataSourceError.
func (s *Selector) SelectCandidates(ctx context.Context, mode Mode, limit int) ([]PostSummary, error) {
	filter := mode.Filter(s.now(), s.poolWindow)

	raw, err := s.posts.FindPublicPosts(ctx, filter, limit*overFetchFactor)
	if err != nil {
		return nil, models.NewDataSourceError("candidate selection", err)
	}
	if len(raw) == 0 {
		return []PostSummary{}, nil
	}

	originals, err := s.resolveOriginals(ctx, raw)
	if err != nil {
		return nil, err
	}
	authors, err := s.resolveAuthors(ctx, raw)
	if err != nil {
		return nil, err
	}

	summaries := make([]PostSummary, 0, len(raw))
	for i := range raw {
		p := &raw[i]
		author, ok := authors[p.UserID]
		if !ok {
			// Author deleted since the post was written; drop the candidate.
			continue
		}
		if p.IsRepost {
			if p.OriginalPostID == nil {
				continue
			}
			orig, ok := originals[*p.OriginalPostID]
			if !ok {
				// Original deleted; the repost has nothing to show.
				continue
			}
			summaries = append(summaries, repostSummary(p, orig, author))
			continue
		}
		summaries = append(summaries, postSummary(p, author))
	}
	return summaries, nil
}

// resolveOriginals batch-loads the originals referenced by repost records.
func (s *Selector) resolveOriginals(ctx context.Context, raw []models.Post) (map[uint]*models.Post, error) {
	ids := make([]uint, 0)
	seen := map[uint]struct{}{}
	for i := range raw {
		if !raw[i].IsRepost || raw[i].OriginalPostID == nil {
			continue
		}
		id := *raw[i].OriginalPostID
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return map[uint]*models.Post{}, nil
	}

	posts, err := s.posts.FindByIDs(ctx, ids)
	if err != nil {
		return nil, models.NewDataSourceError("repost resolution", err)
	}
	byID := make(map[uint]*models.Post, len(posts))
	for i := range posts {
		byID[posts[i].ID] = &posts[i]
	}
	return byID, nil
}

// resolveAuthors does one lookup for the distinct author set among the
// candidates, bounding the cost to O(distinct authors) rather than O(posts).
func (s *Selector) resolveAuthors(ctx context.Context, raw []models.Post) (map[uint]AuthorSnapshot, error) {
	ids := make([]uint, 0)
	seen := map[uint]struct{}{}
	for i := range raw {
		if _, dup := seen[raw[i].UserID]; dup {
			continue
		}
		seen[raw[i].UserID] = struct{}{}
		ids = append(ids, raw[i].UserID)
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, models.NewDataSourceError("author resolution", err)
	}
	byID := make(map[uint]AuthorSnapshot, len(users))
	for _, u := range users {
		byID[u.ID] = AuthorSnapshot{
			ID:          u.ID,
			Username:    u.Username,
			DisplayName: u.DisplayName,
			Avatar:      u.Avatar,
			Verified:    u.Verified,
		}
	}
	return byID, nil
}

func postSummary(p *models.Post, author AuthorSnapshot) PostSummary {
	return PostSummary{
		ID:             p.ID,
		AuthorID:       p.UserID,
		Content:        p.Content,
		MediaURL:       p.MediaURL,
		Hashtags:       p.Hashtags,
		Mentions:       p.Mentions,
		IsRepost:       false,
		ParentPostID:   p.ParentPostID,
		LikesCount:     p.LikesCount,
		RepostsCount:   p.RepostsCount,
		RepliesCount:   p.RepliesCount,
		ViewsCount:     p.ViewsCount,
		Author:         author,
		CreatedAt:      p.CreatedAt,
	}
}

// repostSummary projects a repost record: content, media and engagement come
// from the original, while RepostedAt carries the repost's own creation time
// so decay and ordering treat it as fresh.
func repostSummary(p *models.Post, orig *models.Post, author AuthorSnapshot) PostSummary {
	repostedAt := p.CreatedAt
	return PostSummary{
		ID:             p.ID,
		AuthorID:       p.UserID,
		Content:        orig.Content,
		MediaURL:       orig.MediaURL,
		Hashtags:       orig.Hashtags,
		Mentions:       orig.Mentions,
		IsRepost:       true,
		OriginalPostID: p.OriginalPostID,
		ParentPostID:   p.ParentPostID,
		LikesCount:     orig.LikesCount,
		RepostsCount:   orig.RepostsCount,
		RepliesCount:   orig.RepliesCount,
		ViewsCount:     orig.ViewsCount,
		Author:         author,
		CreatedAt:      orig.CreatedAt,
		RepostedAt:     &repostedAt,
	}
}
