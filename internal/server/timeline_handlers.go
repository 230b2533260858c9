package server

import (
	"ripple/internal/feed"

	"github.com/gofiber/fiber/v2"
)

// flagRankedTimeline controls the algorithmic timeline rollout. When the
// flag is defined, users outside its rollout get the chronological feed
// for algorithmic requests. An undefined flag opens the mode to everyone.
const flagRankedTimeline = "ranked_timeline"

// GetTimeline handles GET /api/timeline.
//
// Query parameters:
//
//	mode  - chronological (default), algorithmic, or trending
//	page  - one-based page within the ranked candidate pool
//	limit - page size, capped at 100
//
// Anonymous requests get the shared baseline ranking; authenticated requests
// additionally get personalization and like/repost hydration.
func (s *Server) GetTimeline(c *fiber.Ctx) error {
	p := parsePagination(c, s.config.FeedDefaultLimit)
	mode := c.Query("mode")
	userID := currentUserID(c)

	if mode == string(feed.ModeAlgorithmic) &&
		s.flags.Defined(flagRankedTimeline) && !s.flags.Enabled(flagRankedTimeline, userID) {
		mode = string(feed.ModeChronological)
	}

	posts, err := s.timeline.GetTimeline(c.UserContext(), userID, mode, p.Page, p.Limit)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(fiber.Map{
		"mode":  s.timelineMode(mode),
		"page":  p.Page,
		"limit": p.Limit,
		"posts": posts,
	})
}

func (s *Server) timelineMode(mode string) string {
	if mode == "" {
		return "chronological"
	}
	return mode
}

// GetFeatureFlags handles GET /api/flags, returning the evaluated flag set
// for the requesting user so clients can gate UI without re-implementing
// rollout hashing.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"flags": s.flags.Snapshot(currentUserID(c))})
}
