package models

import "time"

// Notification types.
const (
	NotificationLike   = "like"
	NotificationFollow = "follow"
	NotificationRepost = "repost"
)

// Notification represents an event delivered to a user's notification tray.
type Notification struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	RecipientID uint      `gorm:"not null;index" json:"recipient_id"`
	ActorID     uint      `gorm:"not null" json:"actor_id"`
	Actor       User      `gorm:"foreignKey:ActorID" json:"actor"`
	Type        string    `gorm:"not null" json:"type"`
	PostID      *uint     `json:"post_id,omitempty"`
	Read        bool      `gorm:"default:false;index" json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}
