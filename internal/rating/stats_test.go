package rating

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/store"
)

func mkRating(ratee uuid.UUID, score float64, tag models.PlayType) models.Rating {
	return models.Rating{
		ID:           uuid.New(),
		SessionID:    uuid.New(),
		RaterID:      uuid.New(),
		RatedUserID:  ratee,
		OverallScore: score,
		PlayType:     tag,
	}
}

// TestComputeUserStats average rounds to one decimal; percentages round
// independently per tag.
func TestComputeUserStats(t *testing.T) {
	ratee := uuid.New()
	stats := computeUserStats([]models.Rating{
		mkRating(ratee, 7, models.PlayTypeFun),
		mkRating(ratee, 8, models.PlayTypeFun),
		mkRating(ratee, 6.5, models.PlayTypeTechnical),
	})

	// (7 + 8 + 6.5) / 3 = 7.1666... -> 7.2
	assert.Equal(t, 7.2, stats.OverallRating)
	assert.Equal(t, 3, stats.TotalRatingsReceived)
	assert.Equal(t, 67, stats.PlayTypeDistribution[models.PlayTypeFun])
	assert.Equal(t, 33, stats.PlayTypeDistribution[models.PlayTypeTechnical])

	// absent tags are present with an explicit zero
	v, ok := stats.PlayTypeDistribution[models.PlayTypeSocial]
	require.True(t, ok)
	assert.Equal(t, 0, v)
}

// TestDistributionMayNotSumTo100 independent rounding is accepted: three
// equal thirds give 33+33+33.
func TestDistributionMayNotSumTo100(t *testing.T) {
	ratee := uuid.New()
	stats := computeUserStats([]models.Rating{
		mkRating(ratee, 7, models.PlayTypeFun),
		mkRating(ratee, 7, models.PlayTypeSocial),
		mkRating(ratee, 7, models.PlayTypeReliable),
	})

	sum := 0
	for _, v := range stats.PlayTypeDistribution {
		sum += v
	}
	assert.Equal(t, 99, sum, "thirds round to 33 each: %v", stats.PlayTypeDistribution)
}

// TestPickMVP strictly highest average wins; an exact tie goes to the lowest
// user ID regardless of input order.
func TestPickMVP(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	mvp, ok := pickMVP([]participantAverage{
		{UserID: a, Average: 7.5},
		{UserID: b, Average: 9.0},
	})
	require.True(t, ok)
	assert.Equal(t, b, mvp)

	// tie, both orders
	mvp, _ = pickMVP([]participantAverage{
		{UserID: b, Average: 8.0},
		{UserID: a, Average: 8.0},
	})
	assert.Equal(t, a, mvp, "tie must go to the lowest id")
	mvp, _ = pickMVP([]participantAverage{
		{UserID: a, Average: 8.0},
		{UserID: b, Average: 8.0},
	})
	assert.Equal(t, a, mvp, "tie result must not depend on input order")

	_, ok = pickMVP(nil)
	assert.False(t, ok, "empty input must not elect an MVP")
}

// TestRecomputeIdempotent running the aggregator twice on an unchanged set
// stores identical values.
func TestRecomputeIdempotent(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	ratee := &models.User{Email: "r@example.com", Username: "ratee"}
	require.NoError(t, mem.CreateUser(ctx, ratee))

	sess := &models.Session{
		Title: "t", Location: "l", DateTime: time.Now(), Duration: 120,
		MaxParticipants: 10, Code: "IDEM01", OrganizerID: uuid.New(),
		Status: models.StatusCompleted,
	}
	require.NoError(t, mem.CreateSession(ctx, sess))

	for _, score := range []float64{6, 8.5, 9} {
		r := mkRating(ratee.ID, score, models.PlayTypeCompetitive)
		r.SessionID = sess.ID
		require.NoError(t, mem.InsertRating(ctx, &r))
	}

	agg := NewAggregator(mem)
	require.NoError(t, agg.RecomputeUser(ctx, ratee.ID))
	first, err := mem.UserByID(ctx, ratee.ID)
	require.NoError(t, err)

	require.NoError(t, agg.RecomputeUser(ctx, ratee.ID))
	second, err := mem.UserByID(ctx, ratee.ID)
	require.NoError(t, err)

	assert.Equal(t, first.CurrentOverallRating, second.CurrentOverallRating)
	assert.Equal(t, first.TotalRatingsReceived, second.TotalRatingsReceived)
	assert.Equal(t, 7.8, second.CurrentOverallRating)

	require.NoError(t, agg.RecomputeSessionMVP(ctx, sess.ID))
	require.NoError(t, agg.RecomputeSessionMVP(ctx, sess.ID))
	got, err := mem.SessionByID(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, got.MVPUserID)
	assert.Equal(t, ratee.ID, *got.MVPUserID)
}

// TestRecomputeEmptySetLeavesStats an empty rating set writes nothing.
func TestRecomputeEmptySetLeavesStats(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()

	u := &models.User{Email: "u@example.com", Username: "u"}
	require.NoError(t, mem.CreateUser(ctx, u))
	require.NoError(t, mem.UpdateUserRatingStats(ctx, u.ID, models.RatingStats{
		OverallRating:        6.5,
		PlayTypeDistribution: map[models.PlayType]int{models.PlayTypeFun: 100},
		TotalRatingsReceived: 2,
	}))

	require.NoError(t, NewAggregator(mem).RecomputeUser(ctx, u.ID))
	got, err := mem.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 6.5, got.CurrentOverallRating)
	assert.Equal(t, 2, got.TotalRatingsReceived)
}

// TestValidScore the half-point grid.
func TestValidScore(t *testing.T) {
	for _, s := range []float64{1, 1.5, 7, 9.5, 10} {
		assert.True(t, validScore(s), "expected %v to be valid", s)
	}
	for _, s := range []float64{0, 0.5, 10.5, 7.3, -1} {
		assert.False(t, validScore(s), "expected %v to be invalid", s)
	}
}
