package models

import "time"

// Interaction types recorded in the per-user history that feeds affinity
// ranking.
const (
	InteractionLike   = "like"
	InteractionRepost = "repost"
	InteractionReply  = "reply"
	InteractionFollow = "follow"
	InteractionView   = "view"
)

// Interaction is an append-only record of a user acting on an author's
// content. It is never updated; the feed ranker reads a recent window of
// these rows to compute affinity.
type Interaction struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_interaction_user_time" json:"user_id"`
	AuthorID  uint      `gorm:"not null;index" json:"author_id"`
	PostID    *uint     `json:"post_id,omitempty"`
	Type      string    `gorm:"not null" json:"type"`
	CreatedAt time.Time `gorm:"index:idx_interaction_user_time" json:"created_at"`
}
