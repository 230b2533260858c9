// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"gorm.io/gorm"
)

// Visibility values for posts. An empty string is treated as public.
const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers"
	VisibilityPrivate   = "private"
)

// Post represents a post (or a repost record) in the Ripple application.
type Post struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	UserID   uint   `gorm:"not null;index" json:"user_id"`
	User     User   `gorm:"foreignKey:UserID" json:"user"`
	Content  string `gorm:"type:text" json:"content"`
	MediaURL string `json:"media_url"`
	// Hashtags and Mentions are extracted from content at creation time,
	// stored space-separated.
	Hashtags   string `json:"hashtags"`
	Mentions   string `json:"mentions"`
	Visibility string `gorm:"index" json:"visibility"`

	// Repost linkage. A repost record carries its own ID and CreatedAt;
	// OriginalPostID points at the reposted content.
	IsRepost       bool  `gorm:"default:false;index" json:"is_repost"`
	OriginalPostID *uint `gorm:"index" json:"original_post_id,omitempty"`
	ParentPostID   *uint `gorm:"index" json:"parent_post_id,omitempty"`

	// Denormalized engagement counters. Write paths bump these; the feed
	// ranker only ever reads a snapshot, so they are eventually consistent.
	LikesCount   int `gorm:"default:0" json:"likes_count"`
	RepostsCount int `gorm:"default:0" json:"reposts_count"`
	RepliesCount int `gorm:"default:0" json:"replies_count"`
	ViewsCount   int `gorm:"default:0" json:"views_count"`

	CreatedAt time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// IsPublic reports whether the post is visible to everyone. An unset
// visibility is treated as public.
func (p *Post) IsPublic() bool {
	return p.Visibility == VisibilityPublic || p.Visibility == ""
}

// TotalEngagement is the combined engagement used by feed eligibility filters.
func (p *Post) TotalEngagement() int {
	return p.LikesCount + p.RepostsCount + p.RepliesCount
}
