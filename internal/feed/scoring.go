package feed

import (
	"math"
	"time"

	"ripple/internal/models"
)

// Scoring constants. Each sub-score is independently computable; Score blends
// them with the mode weight table.
const (
	engagementDecayHours  = 24.0
	likeWeight            = 1.0
	repostWeight          = 3.0
	replyWeight           = 5.0
	engagementRateBoost   = 10.0
	verifiedAuthorBoost   = 1.2
	followedAuthorBonus   = 10.0
	affinityDecayDays     = 30.0
	likedAuthorBonus      = 5.0
	mediaBonus            = 3.0
	longContentBonus      = 2.0
	longContentThreshold  = 100
	viralityThreshold     = 5.0
	viralityBoost         = 2.0
	diversityWindow       = 5
	diversityPenaltyStep  = 0.2
)

// interactionWeights maps a historical interaction type to its affinity
// contribution before decay.
var interactionWeights = map[string]float64{
	models.InteractionLike:   1,
	models.InteractionRepost: 2,
	models.InteractionReply:  3,
	models.InteractionFollow: 5,
	models.InteractionView:   0.1,
}

// Score computes the full ordering score for one candidate. It is a pure
// function: no I/O, no mutation of inputs, identical inputs always produce
// the same float.
//
// index and batch give the post's position among its siblings in the current
// batch ordering, which the diversity penalty inspects. hist and following
// are the requester's interaction history and follow set; at cache-population
// time both are empty, which yields the shared user-agnostic baseline.
func Score(post *PostSummary, index int, batch []PostSummary, hist History, following FollowSet, now time.Time) float64 {
	w := rankingWeights
	return w.Engagement*EngagementScore(post, now) +
		w.Affinity*AffinityScore(post, hist, following, now) +
		w.Relevance*RelevanceScore(post, hist) +
		w.Virality*ViralityScore(post, now) +
		w.Diversity*DiversityScore(index, batch)
}

// EngagementScore is time-decayed raw engagement. Reposts decay by the repost
// record's own age, not the original post's.
func EngagementScore(p *PostSummary, now time.Time) float64 {
	hoursOld := now.Sub(p.EffectiveTime()).Hours()
	decay := math.Exp(-hoursOld / engagementDecayHours)

	raw := float64(p.LikesCount)*likeWeight +
		float64(p.RepostsCount)*repostWeight +
		float64(p.RepliesCount)*replyWeight

	views := p.ViewsCount
	if views < 1 {
		views = 1
	}
	rate := float64(p.TotalEngagement()) / float64(views)

	score := (raw + rate*engagementRateBoost) * decay
	if p.Author.Verified {
		score *= verifiedAuthorBoost
	}
	return score
}

// AffinityScore reflects the requester's relationship with the post's author:
// a flat bonus for a followed author plus the decayed weight of every
// historical interaction with that author.
func AffinityScore(p *PostSummary, hist History, following FollowSet, now time.Time) float64 {
	var score float64
	if following.Contains(p.AuthorID) {
		score += followedAuthorBonus
	}
	for _, ev := range hist[p.AuthorID] {
		weight, ok := interactionWeights[ev.Type]
		if !ok {
			continue
		}
		ageDays := now.Sub(ev.CreatedAt).Hours() / 24
		score += weight * math.Exp(-ageDays/affinityDecayDays)
	}
	return score
}

// RelevanceScore adds flat, non-decaying bonuses: the requester previously
// liked this author, the post carries media, the content is long-form.
func RelevanceScore(p *PostSummary, hist History) float64 {
	var score float64
	if hist.LikedAuthor(p.AuthorID) {
		score += likedAuthorBonus
	}
	if p.MediaURL != "" {
		score += mediaBonus
	}
	if len(p.Content) > longContentThreshold {
		score += longContentBonus
	}
	return score
}

// ViralityScore measures engagement accumulation per hour, doubled once the
// velocity clears the virality threshold. Uses the same repost-aware
// timestamp rule as EngagementScore.
func ViralityScore(p *PostSummary, now time.Time) float64 {
	hoursOld := now.Sub(p.EffectiveTime()).Hours()
	if hoursOld < 1 {
		hoursOld = 1
	}
	velocity := float64(p.TotalEngagement()) / hoursOld
	if velocity > viralityThreshold {
		return velocity * viralityBoost
	}
	return velocity
}

// DiversityScore penalizes author clustering: it looks at up to the five
// immediately preceding posts in the current batch ordering and knocks 0.2
// off per same-author neighbor, floored at zero. Always within [0, 1].
func DiversityScore(index int, batch []PostSummary) float64 {
	if index < 0 || index >= len(batch) {
		return 1
	}
	start := index - diversityWindow
	if start < 0 {
		start = 0
	}
	same := 0
	for i := start; i < index; i++ {
		if batch[i].AuthorID == batch[index].AuthorID {
			same++
		}
	}
	score := 1 - float64(same)*diversityPenaltyStep
	if score < 0 {
		return 0
	}
	return score
}
