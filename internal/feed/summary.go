// Package feed implements timeline candidate selection, scoring, the shared
// mode-keyed candidate cache and per-request interaction hydration.
//
// The central invariant is the split between the cacheable and the personal
// layers: everything stored in the candidate cache is user-agnostic and
// shared by every requester of the same mode, while follow-set eligibility,
// affinity scoring and like/repost flags are resolved fresh on every request
// and never written back to the cache.
package feed

import (
	"time"

	"ripple/internal/models"
)

// AuthorSnapshot is the denormalized author data carried by a cached post
// summary so rendering a page needs no further user lookups.
type AuthorSnapshot struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	Verified    bool   `json:"verified"`
}

// PostSummary is the cache-resident, user-agnostic projection of a post.
// It must never carry a viewer-specific field; IsLiked/IsReposted live on
// HydratedPost only.
type PostSummary struct {
	ID       uint   `json:"id"`
	AuthorID uint   `json:"author_id"`
	Content  string `json:"content"`
	MediaURL string `json:"media_url,omitempty"`
	Hashtags string `json:"hashtags,omitempty"`
	Mentions string `json:"mentions,omitempty"`

	IsRepost       bool  `json:"is_repost"`
	OriginalPostID *uint `json:"original_post_id,omitempty"`
	ParentPostID   *uint `json:"parent_post_id,omitempty"`

	LikesCount   int `json:"likes_count"`
	RepostsCount int `json:"reposts_count"`
	RepliesCount int `json:"replies_count"`
	ViewsCount   int `json:"views_count"`

	Author AuthorSnapshot `json:"author"`

	// CreatedAt is the content's creation time. For reposts it is the
	// original post's timestamp and RepostedAt carries the repost record's
	// own creation time.
	CreatedAt  time.Time  `json:"created_at"`
	RepostedAt *time.Time `json:"reposted_at,omitempty"`
}

// EffectiveTime is the timestamp used for decay, velocity and chronological
// ordering: a repost ranks by when it was reposted, not by when the original
// was written.
func (p *PostSummary) EffectiveTime() time.Time {
	if p.IsRepost && p.RepostedAt != nil {
		return *p.RepostedAt
	}
	return p.CreatedAt
}

// TotalEngagement is the combined engagement used by eligibility filters and
// the engagement-rate term.
func (p *PostSummary) TotalEngagement() int {
	return p.LikesCount + p.RepostsCount + p.RepliesCount
}

// ScoredPost is a PostSummary with its computed ordering score and rank
// position. It lives exactly as long as one cache entry and is recomputed
// whenever the entry is rebuilt.
type ScoredPost struct {
	PostSummary
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// HydratedPost is the per-request view of a scored post: the shared summary
// annotated with the requesting user's interaction flags.
type HydratedPost struct {
	ScoredPost
	IsLiked    bool `json:"is_liked"`
	IsReposted bool `json:"is_reposted"`
}

// InteractionFlags is one post's entry in the hydration overlay.
type InteractionFlags struct {
	IsLiked    bool
	IsReposted bool
}

// Overlay maps post ID to the requesting user's interaction flags for exactly
// the posts on the current page. It is built fresh per request and discarded
// after the response is formed.
type Overlay map[uint]InteractionFlags

// FollowSet is the set of author IDs the requesting user follows.
type FollowSet map[uint]struct{}

// NewFollowSet builds a FollowSet from a list of followee IDs.
func NewFollowSet(ids []uint) FollowSet {
	fs := make(FollowSet, len(ids))
	for _, id := range ids {
		fs[id] = struct{}{}
	}
	return fs
}

// Contains reports whether authorID is followed.
func (f FollowSet) Contains(authorID uint) bool {
	_, ok := f[authorID]
	return ok
}

// InteractionEvent is one row of the requester's interaction history, grouped
// by the author it targeted.
type InteractionEvent struct {
	Type      string
	CreatedAt time.Time
}

// History is the requester's recent interaction history keyed by author ID.
type History map[uint][]InteractionEvent

// NewHistory groups raw interaction rows by author.
func NewHistory(rows []models.Interaction) History {
	h := make(History)
	for _, r := range rows {
		h[r.AuthorID] = append(h[r.AuthorID], InteractionEvent{Type: r.Type, CreatedAt: r.CreatedAt})
	}
	return h
}

// LikedAuthor reports whether the requester has previously liked content by
// the given author.
func (h History) LikedAuthor(authorID uint) bool {
	for _, ev := range h[authorID] {
		if ev.Type == models.InteractionLike {
			return true
		}
	}
	return false
}
