package server

import (
	"ripple/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userRepo.GetByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondAppError(c, models.NewNotFoundError("User", currentUserID(c)))
	}
	return c.JSON(user)
}

// GetMyPosts handles GET /api/users/me/posts
func (s *Server) GetMyPosts(c *fiber.Ctx) error {
	p := parsePagination(c, s.config.FeedDefaultLimit)
	posts, err := s.postRepo.GetByUserID(c.UserContext(), currentUserID(c), p.Limit, (p.Page-1)*p.Limit)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"posts": posts})
}

// GetUserProfile handles GET /api/users/:username
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	username := c.Params("username")
	user, err := s.userService.GetProfile(c.UserContext(), username)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(user)
}

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	followeeID, err := parseID(c, "id", "user ID")
	if err != nil {
		return nil
	}

	if err := s.userService.Follow(c.UserContext(), currentUserID(c), followeeID); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"following": true})
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	followeeID, err := parseID(c, "id", "user ID")
	if err != nil {
		return nil
	}

	if err := s.userService.Unfollow(c.UserContext(), currentUserID(c), followeeID); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"following": false})
}

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	p := parsePagination(c, s.config.FeedDefaultLimit)
	notifications, err := s.userService.Notifications(c.UserContext(), currentUserID(c), p.Limit, (p.Page-1)*p.Limit)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"notifications": notifications})
}

// MarkNotificationRead handles POST /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := parseID(c, "id", "notification ID")
	if err != nil {
		return nil
	}

	if err := s.userService.MarkNotificationRead(c.UserContext(), currentUserID(c), notificationID); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"read": true})
}
