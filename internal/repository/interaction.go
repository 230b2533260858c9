package repository

import (
	"context"
	"time"

	"ripple/internal/models"
	"ripple/internal/observability"

	"gorm.io/gorm"
)

// InteractionRepository covers likes, reposts-by-viewer, follows and the
// append-only interaction history. Its read methods satisfy the feed's
// InteractionSource; they are always queried fresh, never cached per user.
type InteractionRepository interface {
	// Reads used by hydration and personalization.
	LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error)
	RepostedPostIDs(ctx context.Context, userID uint, originalPostIDs []uint) ([]uint, error)
	Following(ctx context.Context, userID uint) ([]uint, error)
	History(ctx context.Context, userID uint, since time.Time) ([]models.Interaction, error)

	// Writes used by the service layer.
	Like(ctx context.Context, userID, postID uint) (bool, error)
	Unlike(ctx context.Context, userID, postID uint) (bool, error)
	Follow(ctx context.Context, followerID, followeeID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	Record(ctx context.Context, interaction *models.Interaction) error
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository creates a new interaction repository
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) LikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	if len(postIDs) == 0 {
		return nil, nil
	}
	defer observability.TrackQuery("hydrate_likes", "likes")()
	var liked []uint
	err := r.db.WithContext(ctx).
		Model(&models.Like{}).
		Where("user_id = ? AND post_id IN ?", userID, postIDs).
		Pluck("post_id", &liked).Error
	return liked, err
}

func (r *interactionRepository) RepostedPostIDs(ctx context.Context, userID uint, originalPostIDs []uint) ([]uint, error) {
	if len(originalPostIDs) == 0 {
		return nil, nil
	}
	defer observability.TrackQuery("hydrate_reposts", "posts")()
	var reposted []uint
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("user_id = ? AND is_repost = ? AND original_post_id IN ?", userID, true, originalPostIDs).
		Pluck("original_post_id", &reposted).Error
	return reposted, err
}

func (r *interactionRepository) Following(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	return ids, err
}

func (r *interactionRepository) History(ctx context.Context, userID uint, since time.Time) ([]models.Interaction, error) {
	var rows []models.Interaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND created_at > ?", userID, since).
		Find(&rows).Error
	return rows, err
}

// Like inserts the like if absent. Returns whether a new row was created so
// the caller knows whether to bump counters.
func (r *interactionRepository) Like(ctx context.Context, userID, postID uint) (bool, error) {
	// INSERT ... ON CONFLICT DO NOTHING handles double-tap races atomically.
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO likes (user_id, post_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (user_id, post_id) DO NOTHING`,
		userID, postID, time.Now(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *interactionRepository) Unlike(ctx context.Context, userID, postID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Delete(&models.Like{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *interactionRepository) Follow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	result := r.db.WithContext(ctx).Exec(
		`INSERT INTO follows (follower_id, followee_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT (follower_id, followee_id) DO NOTHING`,
		followerID, followeeID, time.Now(),
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *interactionRepository) Unfollow(ctx context.Context, followerID, followeeID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *interactionRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

func (r *interactionRepository) Record(ctx context.Context, interaction *models.Interaction) error {
	return r.db.WithContext(ctx).Create(interaction).Error
}
