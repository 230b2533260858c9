package feed

import (
	"time"

	"ripple/internal/models"
)

// Mode selects one of the three feed ranking algorithms. Each mode fully
// determines its candidate filter and scoring weights; nothing user-specific
// may leak into it, because the mode is the entire cache key.
type Mode string

const (
	ModeChronological Mode = "chronological"
	ModeAlgorithmic   Mode = "algorithmic"
	ModeTrending      Mode = "trending"
)

// ParseMode validates a mode string. An empty string defaults to
// chronological; anything else unrecognized fails fast, before any store
// access.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeChronological, ModeAlgorithmic, ModeTrending:
		return Mode(s), nil
	case "":
		return ModeChronological, nil
	default:
		return "", models.NewInvalidModeError(s)
	}
}

func (m Mode) String() string {
	return string(m)
}

// Scored reports whether the mode ranks by computed score. Chronological
// bypasses scoring entirely and orders by effective timestamp.
func (m Mode) Scored() bool {
	return m != ModeChronological
}

// CandidateFilter describes which posts are eligible for a mode's candidate
// pool. It is deliberately user-agnostic: the follow-set half of the
// algorithmic eligibility rule is applied after cache retrieval, per request.
type CandidateFilter struct {
	// CreatedAfter, when non-zero, restricts candidates to posts newer than
	// this instant.
	CreatedAfter time.Time
	// MinEngagement, when positive, requires combined engagement
	// (likes + reposts + replies) strictly greater than this value.
	MinEngagement int
	// OrCreatedAfter, when non-zero, turns the engagement floor into a union:
	// a post qualifies if it clears MinEngagement OR is newer than this
	// instant. Used by the algorithmic pool so fresh posts from any author
	// (including ones the requester follows) reach the cache.
	OrCreatedAfter time.Time
}

// Algorithmic eligibility: posts by non-followed authors need combined
// engagement strictly greater than this.
const algorithmicEngagementFloor = 10

// Trending eligibility window and engagement floor.
const (
	trendingWindow          = 24 * time.Hour
	trendingEngagementFloor = 3
)

// Filter builds the mode's candidate filter. poolWindow bounds the
// algorithmic recency union (how far back a low-engagement post can be and
// still reach the shared pool).
func (m Mode) Filter(now time.Time, poolWindow time.Duration) CandidateFilter {
	switch m {
	case ModeAlgorithmic:
		return CandidateFilter{
			MinEngagement:  algorithmicEngagementFloor,
			OrCreatedAfter: now.Add(-poolWindow),
		}
	case ModeTrending:
		return CandidateFilter{
			CreatedAfter:  now.Add(-trendingWindow),
			MinEngagement: trendingEngagementFloor,
		}
	default:
		return CandidateFilter{}
	}
}

// Weights is the blend applied to the five sub-scores.
type Weights struct {
	Engagement float64
	Affinity   float64
	Relevance  float64
	Virality   float64
	Diversity  float64
}

var rankingWeights = Weights{
	Engagement: 0.30,
	Affinity:   0.25,
	Relevance:  0.20,
	Virality:   0.15,
	Diversity:  0.10,
}

// Weights returns the scoring blend for the mode. Chronological mode does not
// score; its weights are zero.
func (m Mode) Weights() Weights {
	if !m.Scored() {
		return Weights{}
	}
	return rankingWeights
}
