package feed

import (
	"math"
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func summaryAt(id, authorID uint, age time.Duration, now time.Time) PostSummary {
	return PostSummary{
		ID:        id,
		AuthorID:  authorID,
		Content:   "hello world",
		Author:    AuthorSnapshot{ID: authorID},
		CreatedAt: now.Add(-age),
	}
}

func TestEngagementScore_DecaysWithAge(t *testing.T) {
	t.Parallel()
	now := time.Now()

	fresh := summaryAt(1, 1, time.Hour, now)
	fresh.LikesCount = 10
	fresh.ViewsCount = 100

	stale := fresh
	stale.CreatedAt = now.Add(-48 * time.Hour)

	assert.Greater(t, EngagementScore(&fresh, now), EngagementScore(&stale, now))
}

func TestEngagementScore_WeightsRepliesOverLikes(t *testing.T) {
	t.Parallel()
	now := time.Now()

	liked := summaryAt(1, 1, time.Hour, now)
	liked.LikesCount = 5
	liked.ViewsCount = 1000

	replied := summaryAt(2, 2, time.Hour, now)
	replied.RepliesCount = 5
	replied.ViewsCount = 1000

	assert.Greater(t, EngagementScore(&replied, now), EngagementScore(&liked, now))
}

func TestEngagementScore_VerifiedAuthorBoost(t *testing.T) {
	t.Parallel()
	now := time.Now()

	plain := summaryAt(1, 1, time.Hour, now)
	plain.LikesCount = 10
	plain.ViewsCount = 50

	verified := plain
	verified.Author.Verified = true

	assert.InDelta(t, EngagementScore(&plain, now)*1.2, EngagementScore(&verified, now), 1e-9)
}

func TestEngagementScore_ZeroViewsDoesNotDivideByZero(t *testing.T) {
	t.Parallel()
	now := time.Now()
	p := summaryAt(1, 1, time.Hour, now)
	p.LikesCount = 3

	score := EngagementScore(&p, now)
	assert.False(t, math.IsNaN(score))
	assert.False(t, math.IsInf(score, 0))
}

func TestAffinityScore_FollowedAuthorFlatBonus(t *testing.T) {
	t.Parallel()
	now := time.Now()
	p := summaryAt(1, 7, time.Hour, now)

	score := AffinityScore(&p, History{}, NewFollowSet([]uint{7}), now)
	assert.InDelta(t, 10.0, score, 1e-9)

	none := AffinityScore(&p, History{}, NewFollowSet(nil), now)
	assert.Zero(t, none)
}

func TestAffinityScore_HistoryDecays(t *testing.T) {
	t.Parallel()
	now := time.Now()
	p := summaryAt(1, 7, time.Hour, now)

	recent := History{7: {{Type: models.InteractionReply, CreatedAt: now.Add(-24 * time.Hour)}}}
	old := History{7: {{Type: models.InteractionReply, CreatedAt: now.Add(-60 * 24 * time.Hour)}}}

	assert.Greater(t,
		AffinityScore(&p, recent, FollowSet{}, now),
		AffinityScore(&p, old, FollowSet{}, now))

	// A fresh reply is worth close to its full weight of 3.
	assert.InDelta(t, 3.0, AffinityScore(&p, recent, FollowSet{}, now), 0.15)
}

func TestAffinityScore_IgnoresUnknownInteractionTypes(t *testing.T) {
	t.Parallel()
	now := time.Now()
	p := summaryAt(1, 7, time.Hour, now)
	hist := History{7: {{Type: "poke", CreatedAt: now}}}

	assert.Zero(t, AffinityScore(&p, hist, FollowSet{}, now))
}

func TestRelevanceScore_Bonuses(t *testing.T) {
	t.Parallel()
	now := time.Now()

	p := summaryAt(1, 7, time.Hour, now)
	assert.Zero(t, RelevanceScore(&p, History{}))

	p.MediaURL = "https://example.com/pic.png"
	assert.InDelta(t, 3.0, RelevanceScore(&p, History{}), 1e-9)

	p.Content = string(make([]byte, 101))
	assert.InDelta(t, 5.0, RelevanceScore(&p, History{}), 1e-9)

	hist := History{7: {{Type: models.InteractionLike, CreatedAt: now}}}
	assert.InDelta(t, 10.0, RelevanceScore(&p, hist), 1e-9)
}

func TestViralityScore_ThresholdDoubles(t *testing.T) {
	t.Parallel()
	now := time.Now()

	slow := summaryAt(1, 1, 10*time.Hour, now)
	slow.LikesCount = 10 // 1/hour
	assert.InDelta(t, 1.0, ViralityScore(&slow, now), 1e-9)

	viral := summaryAt(2, 2, 2*time.Hour, now)
	viral.LikesCount = 20 // 10/hour, above threshold
	assert.InDelta(t, 20.0, ViralityScore(&viral, now), 1e-9)
}

func TestViralityScore_FloorsAgeAtOneHour(t *testing.T) {
	t.Parallel()
	now := time.Now()
	p := summaryAt(1, 1, time.Minute, now)
	p.LikesCount = 4

	// Velocity is computed against a minimum age of one hour, so a
	// minutes-old post cannot have runaway velocity.
	assert.InDelta(t, 4.0, ViralityScore(&p, now), 1e-9)
}

func TestDiversityScore_Bounds(t *testing.T) {
	t.Parallel()
	now := time.Now()

	batch := make([]PostSummary, 20)
	for i := range batch {
		batch[i] = summaryAt(uint(i+1), 42, time.Hour, now)
	}

	for i := range batch {
		score := DiversityScore(i, batch)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 1.0)
	}

	// Past the window the penalty saturates at zero.
	assert.Zero(t, DiversityScore(10, batch))
	assert.Equal(t, 1.0, DiversityScore(0, batch))
	assert.InDelta(t, 0.8, DiversityScore(1, batch), 1e-9)
}

func TestDiversityScore_OnlyCountsSameAuthor(t *testing.T) {
	t.Parallel()
	now := time.Now()
	batch := []PostSummary{
		summaryAt(1, 1, time.Hour, now),
		summaryAt(2, 2, time.Hour, now),
		summaryAt(3, 1, time.Hour, now),
	}
	assert.Equal(t, 1.0, DiversityScore(1, batch))
	assert.InDelta(t, 0.8, DiversityScore(2, batch), 1e-9)
}

func TestScore_IsPureAndDeterministic(t *testing.T) {
	t.Parallel()
	now := time.Now()
	p := summaryAt(1, 7, time.Hour, now)
	p.LikesCount = 8
	p.ViewsCount = 40
	batch := []PostSummary{p}
	hist := History{7: {{Type: models.InteractionLike, CreatedAt: now.Add(-time.Hour)}}}
	follows := NewFollowSet([]uint{7})

	before := p
	first := Score(&p, 0, batch, hist, follows, now)
	second := Score(&p, 0, batch, hist, follows, now)

	assert.Equal(t, first, second)
	assert.Equal(t, before, p, "scoring must not mutate its input")
}

func TestScore_PersonalizationRaisesFollowedAuthor(t *testing.T) {
	t.Parallel()
	now := time.Now()

	// Same post scored with and without a relationship to the author:
	// the personalized score must be strictly higher.
	p := summaryAt(1, 7, 2*time.Hour, now)
	p.LikesCount = 12
	p.ViewsCount = 60
	batch := []PostSummary{p}

	baseline := Score(&p, 0, batch, History{}, FollowSet{}, now)
	personal := Score(&p, 0, batch, History{}, NewFollowSet([]uint{7}), now)

	require.Greater(t, personal, baseline)
	// The delta is exactly the affinity weight times the flat follow bonus.
	assert.InDelta(t, 0.25*10.0, personal-baseline, 1e-9)
}

func TestEffectiveTime_RepostRanksByRepostTime(t *testing.T) {
	t.Parallel()
	now := time.Now()

	repostedAt := now.Add(-time.Hour)
	p := PostSummary{
		ID:             10,
		IsRepost:       true,
		OriginalPostID: ptrUint(3),
		CreatedAt:      now.Add(-72 * time.Hour),
		RepostedAt:     &repostedAt,
	}
	assert.Equal(t, repostedAt, p.EffectiveTime())

	plain := PostSummary{ID: 3, CreatedAt: now.Add(-72 * time.Hour)}
	assert.Equal(t, plain.CreatedAt, plain.EffectiveTime())

	// An old post reposted recently outscores its own original on decay.
	orig := PostSummary{ID: 3, CreatedAt: now.Add(-72 * time.Hour), LikesCount: 10, ViewsCount: 50}
	rep := orig
	rep.ID = 10
	rep.IsRepost = true
	rep.RepostedAt = &repostedAt
	assert.Greater(t, EngagementScore(&rep, now), EngagementScore(&orig, now))
}

func ptrUint(v uint) *uint { return &v }
