package models

import "time"

// Like represents a user liking a post. The (UserID, PostID) pair is unique;
// inserts use ON CONFLICT DO NOTHING so double-taps are harmless.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post" json:"user_id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_like_user_post;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}
