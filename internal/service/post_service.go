// Package service contains the application's business logic.
package service

import (
	"context"
	"strings"

	"ripple/internal/cache"
	"ripple/internal/models"
	"ripple/internal/repository"
)

const maxContentLen = 5000

// PostService owns the post write paths: creation, replies, reposts, likes
// and deletion. Writes that materially change ranking inputs (new posts,
// reposts, replies) invalidate the timeline cache tag; individual like
// increments rely on the TTL instead, because ranking signals tolerate
// bounded staleness and per-like invalidation would defeat the cache.
type PostService struct {
	postRepo         repository.PostRepository
	interactionRepo  repository.InteractionRepository
	notificationRepo repository.NotificationRepository
}

// CreatePostInput is the payload for creating a post or a reply.
type CreatePostInput struct {
	UserID       uint
	Content      string
	MediaURL     string
	Visibility   string
	ParentPostID *uint
}

// NewPostService creates a new post service.
func NewPostService(
	postRepo repository.PostRepository,
	interactionRepo repository.InteractionRepository,
	notificationRepo repository.NotificationRepository,
) *PostService {
	return &PostService{
		postRepo:         postRepo,
		interactionRepo:  interactionRepo,
		notificationRepo: notificationRepo,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" && in.MediaURL == "" {
		return nil, models.NewValidationError("Content or media is required")
	}
	if len(content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 5000 characters)")
	}

	visibility := in.Visibility
	switch visibility {
	case "", models.VisibilityPublic, models.VisibilityFollowers, models.VisibilityPrivate:
		// valid
	default:
		return nil, models.NewValidationError("Invalid visibility")
	}

	post := &models.Post{
		UserID:       in.UserID,
		Content:      content,
		MediaURL:     in.MediaURL,
		Hashtags:     extractTagged(content, '#'),
		Mentions:     extractTagged(content, '@'),
		Visibility:   visibility,
		ParentPostID: in.ParentPostID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	if in.ParentPostID != nil {
		if parent, err := s.postRepo.GetByID(ctx, *in.ParentPostID); err == nil {
			_ = s.postRepo.IncrementCounter(ctx, parent.ID, repository.CounterReplies, 1)
			_ = s.interactionRepo.Record(ctx, &models.Interaction{
				UserID:   in.UserID,
				AuthorID: parent.UserID,
				PostID:   &parent.ID,
				Type:     models.InteractionReply,
			})
		}
	}

	cache.InvalidateTag(ctx, cache.TagTimeline)
	return s.postRepo.GetByID(ctx, post.ID)
}

// Repost creates a repost record pointing at the original. Reposting a
// repost re-targets the underlying original.
func (s *PostService) Repost(ctx context.Context, userID, postID uint) (*models.Post, error) {
	original, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, models.NewNotFoundError("Post", postID)
	}
	if original.IsRepost && original.OriginalPostID != nil {
		original, err = s.postRepo.GetByID(ctx, *original.OriginalPostID)
		if err != nil {
			return nil, models.NewNotFoundError("Post", postID)
		}
	}
	if !original.IsPublic() {
		return nil, models.NewValidationError("Only public posts can be reposted")
	}
	if original.UserID == userID {
		return nil, models.NewValidationError("Cannot repost your own post")
	}

	repost := &models.Post{
		UserID:         userID,
		Visibility:     models.VisibilityPublic,
		IsRepost:       true,
		OriginalPostID: &original.ID,
	}
	if err := s.postRepo.Create(ctx, repost); err != nil {
		return nil, err
	}

	_ = s.postRepo.IncrementCounter(ctx, original.ID, repository.CounterReposts, 1)
	_ = s.interactionRepo.Record(ctx, &models.Interaction{
		UserID:   userID,
		AuthorID: original.UserID,
		PostID:   &original.ID,
		Type:     models.InteractionRepost,
	})
	_ = s.notificationRepo.Create(ctx, &models.Notification{
		RecipientID: original.UserID,
		ActorID:     userID,
		Type:        models.NotificationRepost,
		PostID:      &original.ID,
	})

	cache.InvalidateTag(ctx, cache.TagTimeline)
	return s.postRepo.GetByID(ctx, repost.ID)
}

// LikePost records a like. Double-likes are no-ops; only a newly created
// like bumps the counter, records history and notifies the author.
func (s *PostService) LikePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return models.NewNotFoundError("Post", postID)
	}

	created, err := s.interactionRepo.Like(ctx, userID, postID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	_ = s.postRepo.IncrementCounter(ctx, postID, repository.CounterLikes, 1)
	_ = s.interactionRepo.Record(ctx, &models.Interaction{
		UserID:   userID,
		AuthorID: post.UserID,
		PostID:   &postID,
		Type:     models.InteractionLike,
	})
	if post.UserID != userID {
		_ = s.notificationRepo.Create(ctx, &models.Notification{
			RecipientID: post.UserID,
			ActorID:     userID,
			Type:        models.NotificationLike,
			PostID:      &postID,
		})
	}
	return nil
}

// UnlikePost removes a like; unliking something never liked is a no-op.
func (s *PostService) UnlikePost(ctx context.Context, userID, postID uint) error {
	removed, err := s.interactionRepo.Unlike(ctx, userID, postID)
	if err != nil {
		return err
	}
	if removed {
		_ = s.postRepo.IncrementCounter(ctx, postID, repository.CounterLikes, -1)
	}
	return nil
}

// GetPost loads one post and tracks the view for the viewer's affinity
// history. Anonymous views still bump the counter.
func (s *PostService) GetPost(ctx context.Context, postID, viewerID uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, models.NewNotFoundError("Post", postID)
	}

	_ = s.postRepo.IncrementCounter(ctx, postID, repository.CounterViews, 1)
	if viewerID != 0 && viewerID != post.UserID {
		_ = s.interactionRepo.Record(ctx, &models.Interaction{
			UserID:   viewerID,
			AuthorID: post.UserID,
			PostID:   &postID,
			Type:     models.InteractionView,
		})
	}
	return post, nil
}

// DeletePost removes the author's own post.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return models.NewNotFoundError("Post", postID)
	}
	if post.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return err
	}
	cache.InvalidateTag(ctx, cache.TagTimeline)
	return nil
}

// extractTagged pulls #hashtags or @mentions out of content, space-joined,
// without the sigil.
func extractTagged(content string, sigil byte) string {
	var out []string
	for _, field := range strings.Fields(content) {
		if len(field) < 2 || field[0] != sigil {
			continue
		}
		tag := strings.TrimRight(field[1:], ".,!?:;")
		if tag != "" {
			out = append(out, tag)
		}
	}
	return strings.Join(out, " ")
}
