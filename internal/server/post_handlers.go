package server

import (
	"ripple/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Content      string `json:"content"`
		MediaURL     string `json:"media_url"`
		Visibility   string `json:"visibility"`
		ParentPostID *uint  `json:"parent_post_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondAppError(c, errInvalidBody)
	}

	post, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:       currentUserID(c),
		Content:      req.Content,
		MediaURL:     req.MediaURL,
		Visibility:   req.Visibility,
		ParentPostID: req.ParentPostID,
	})
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(post)
}

// Repost handles POST /api/posts/:id/repost
func (s *Server) Repost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	repost, err := s.postService.Repost(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(repost)
}

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	if err := s.postService.LikePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"liked": true})
}

// UnlikePost handles DELETE /api/posts/:id/like
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	if err := s.postService.UnlikePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"liked": false})
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := parseID(c, "id", "post ID")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), currentUserID(c), postID); err != nil {
		return respondAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
