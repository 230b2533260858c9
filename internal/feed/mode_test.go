package feed

import (
	"testing"
	"time"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want Mode
	}{
		{"chronological", ModeChronological},
		{"algorithmic", ModeAlgorithmic},
		{"trending", ModeTrending},
		{"", ModeChronological},
	}
	for _, tt := range tests {
		mode, err := ParseMode(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, mode)
	}
}

func TestParseMode_RejectsUnknown(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"spicy", "ALGORITHMIC", "chrono"} {
		_, err := ParseMode(in)
		require.Error(t, err, in)

		var appErr *models.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "INVALID_MODE", appErr.Code)
	}
}

func TestModeScored(t *testing.T) {
	t.Parallel()
	assert.False(t, ModeChronological.Scored())
	assert.True(t, ModeAlgorithmic.Scored())
	assert.True(t, ModeTrending.Scored())
}

func TestModeFilter(t *testing.T) {
	t.Parallel()
	now := time.Now()
	poolWindow := 7 * 24 * time.Hour

	chrono := ModeChronological.Filter(now, poolWindow)
	assert.Zero(t, chrono.CreatedAfter)
	assert.Zero(t, chrono.MinEngagement)

	algo := ModeAlgorithmic.Filter(now, poolWindow)
	assert.Equal(t, 10, algo.MinEngagement)
	assert.Equal(t, now.Add(-poolWindow), algo.OrCreatedAfter)

	trending := ModeTrending.Filter(now, poolWindow)
	assert.Equal(t, now.Add(-24*time.Hour), trending.CreatedAfter)
	assert.Equal(t, 3, trending.MinEngagement)
	assert.Zero(t, trending.OrCreatedAfter)
}

func TestModeWeights(t *testing.T) {
	t.Parallel()

	w := ModeAlgorithmic.Weights()
	assert.InDelta(t, 1.0, w.Engagement+w.Affinity+w.Relevance+w.Virality+w.Diversity, 1e-9)
	assert.Equal(t, Weights{}, ModeChronological.Weights())
}
