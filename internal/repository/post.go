// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"ripple/internal/cache"
	"ripple/internal/feed"
	"ripple/internal/models"
	"ripple/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations. Its read
// methods satisfy the feed selector's PostSource.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	FindByIDs(ctx context.Context, ids []uint) ([]models.Post, error)
	FindPublicPosts(ctx context.Context, filter feed.CandidateFilter, limit int) ([]models.Post, error)
	GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error)
	Delete(ctx context.Context, id uint) error
	IncrementCounter(ctx context.Context, postID uint, counter string, delta int) error
}

// Counter column names accepted by IncrementCounter.
const (
	CounterLikes   = "likes_count"
	CounterReposts = "reposts_count"
	CounterReplies = "replies_count"
	CounterViews   = "views_count"
)

var errUnknownCounter = errors.New("unknown post counter column")

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		return r.db.WithContext(ctx).Preload("User").First(&post, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) FindByIDs(ctx context.Context, ids []uint) ([]models.Post, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var posts []models.Post
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&posts).Error
	return posts, err
}

// FindPublicPosts fetches the eligible candidate pool for a feed mode,
// newest first. Visibility, the recency window and the engagement floor all
// come from the mode's filter; nothing user-specific reaches this query.
func (r *postRepository) FindPublicPosts(ctx context.Context, filter feed.CandidateFilter, limit int) ([]models.Post, error) {
	defer observability.TrackQuery("feed_candidates", "posts")()

	q := r.db.WithContext(ctx).
		Where("(visibility = ? OR visibility = '')", models.VisibilityPublic)

	if !filter.CreatedAfter.IsZero() {
		q = q.Where("created_at > ?", filter.CreatedAfter)
	}

	const engagement = "(likes_count + reposts_count + replies_count)"
	switch {
	case filter.MinEngagement > 0 && !filter.OrCreatedAfter.IsZero():
		q = q.Where("("+engagement+" > ? OR created_at > ?)", filter.MinEngagement, filter.OrCreatedAfter)
	case filter.MinEngagement > 0:
		q = q.Where(engagement+" > ?", filter.MinEngagement)
	}

	var posts []models.Post
	err := q.Order("created_at DESC").Limit(limit).Find(&posts).Error
	return posts, err
}

func (r *postRepository) GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	return posts, err
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return err
	}
	cache.InvalidatePost(ctx, id)
	return nil
}

// IncrementCounter atomically bumps one denormalized engagement counter.
// The counter name is checked against the known columns; callers never feed
// it user input.
func (r *postRepository) IncrementCounter(ctx context.Context, postID uint, counter string, delta int) error {
	switch counter {
	case CounterLikes, CounterReposts, CounterReplies, CounterViews:
	default:
		return errUnknownCounter
	}
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumn(counter, gorm.Expr(counter+" + ?", delta)).Error
	if err == nil {
		cache.InvalidatePost(ctx, postID)
	}
	return err
}
