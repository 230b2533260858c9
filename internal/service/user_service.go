package service

import (
	"context"

	"ripple/internal/models"
	"ripple/internal/repository"
)

// UserService owns the social graph write paths. Follows feed both the
// affinity history and the algorithmic eligibility filter, so they go
// through the interaction repository rather than raw gorm.
type UserService struct {
	userRepo         repository.UserRepository
	interactionRepo  repository.InteractionRepository
	notificationRepo repository.NotificationRepository
}

// NewUserService creates a new user service.
func NewUserService(
	userRepo repository.UserRepository,
	interactionRepo repository.InteractionRepository,
	notificationRepo repository.NotificationRepository,
) *UserService {
	return &UserService{
		userRepo:         userRepo,
		interactionRepo:  interactionRepo,
		notificationRepo: notificationRepo,
	}
}

// Follow makes followerID follow followeeID. Following twice is a no-op;
// only the first follow records history and notifies the followee.
func (s *UserService) Follow(ctx context.Context, followerID, followeeID uint) error {
	if followerID == followeeID {
		return models.NewValidationError("Cannot follow yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, followeeID); err != nil {
		return models.NewNotFoundError("User", followeeID)
	}

	created, err := s.interactionRepo.Follow(ctx, followerID, followeeID)
	if err != nil {
		return err
	}
	if !created {
		return nil
	}

	_ = s.interactionRepo.Record(ctx, &models.Interaction{
		UserID:   followerID,
		AuthorID: followeeID,
		Type:     models.InteractionFollow,
	})
	_ = s.notificationRepo.Create(ctx, &models.Notification{
		RecipientID: followeeID,
		ActorID:     followerID,
		Type:        models.NotificationFollow,
	})
	return nil
}

// Unfollow removes the edge; unfollowing a stranger is a no-op.
func (s *UserService) Unfollow(ctx context.Context, followerID, followeeID uint) error {
	_, err := s.interactionRepo.Unfollow(ctx, followerID, followeeID)
	return err
}

// GetProfile loads a user by username.
func (s *UserService) GetProfile(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

// Notifications lists the user's most recent notifications.
func (s *UserService) Notifications(ctx context.Context, userID uint, limit, offset int) ([]models.Notification, error) {
	return s.notificationRepo.ListByRecipient(ctx, userID, limit, offset)
}

// MarkNotificationRead marks one of the user's notifications as read.
func (s *UserService) MarkNotificationRead(ctx context.Context, userID, notificationID uint) error {
	return s.notificationRepo.MarkRead(ctx, userID, notificationID)
}
