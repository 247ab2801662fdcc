package rating

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/store"
)

// Aggregator recomputes rating-derived statistics from the full rating set.
// It is the only writer of the derived user fields and the session MVP.
// Every recomputation is a pure function of the stored ratings, so running
// it twice on an unchanged set stores identical values.
type Aggregator struct {
	store store.Store

	// sessionLocks serializes MVP recomputation per session, so two
	// submissions for different ratees of the same session cannot both read a
	// snapshot missing the other's rating and race the write.
	sessionLocks store.KeyedMutex
}

// NewAggregator builds an Aggregator over the given store.
func NewAggregator(st store.Store) *Aggregator {
	return &Aggregator{store: st}
}

// RecomputeUser rebuilds a ratee's overall average, play-type distribution
// and received count from all their ratings. An empty rating set leaves the
// stored values untouched.
func (a *Aggregator) RecomputeUser(ctx context.Context, userID uuid.UUID) error {
	ratings, err := a.store.RatingsForRatee(ctx, userID)
	if err != nil {
		return fmt.Errorf("load ratings: %w", err)
	}
	if len(ratings) == 0 {
		return nil
	}

	stats := computeUserStats(ratings)
	if err := a.store.UpdateUserRatingStats(ctx, userID, stats); err != nil {
		return fmt.Errorf("write user stats: %w", err)
	}
	return nil
}

// RecomputeSessionMVP rebuilds per-participant averages for a session and
// stores the MVP. Nothing is written while the session has no ratings. The
// participant with the strictly highest average wins; an exact tie goes to
// the lowest user ID, so the result never depends on iteration order.
// Read and write happen under a per-session lock; the last recomputation to
// run always sees every rating inserted before it.
func (a *Aggregator) RecomputeSessionMVP(ctx context.Context, sessionID uuid.UUID) error {
	unlock := a.sessionLocks.Lock(sessionID.String())
	defer unlock()

	ratings, err := a.store.RatingsForSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session ratings: %w", err)
	}
	if len(ratings) == 0 {
		return nil
	}

	mvp, ok := pickMVP(participantAverages(ratings))
	if !ok {
		return nil
	}
	if err := a.store.SetSessionMVP(ctx, sessionID, mvp); err != nil {
		return fmt.Errorf("write mvp: %w", err)
	}
	return nil
}

// round1 rounds to one decimal place.
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// computeUserStats derives the materialized user view from a non-empty
// rating set. Percentages are rounded independently per tag; the six values
// may not sum to exactly 100 and that is accepted.
func computeUserStats(ratings []models.Rating) models.RatingStats {
	var sum float64
	counts := make(map[models.PlayType]int, len(models.PlayTypes))
	for _, r := range ratings {
		sum += r.OverallScore
		counts[r.PlayType]++
	}

	total := len(ratings)
	dist := make(map[models.PlayType]int, len(models.PlayTypes))
	for _, t := range models.PlayTypes {
		dist[t] = int(math.Round(float64(counts[t]) / float64(total) * 100))
	}

	return models.RatingStats{
		OverallRating:        round1(sum / float64(total)),
		PlayTypeDistribution: dist,
		TotalRatingsReceived: total,
	}
}

// participantAverage holds one ratee's aggregate within a session.
type participantAverage struct {
	UserID  uuid.UUID
	Average float64
	Count   int
}

// participantAverages groups a session's ratings by ratee.
func participantAverages(ratings []models.Rating) []participantAverage {
	sums := make(map[uuid.UUID]float64)
	counts := make(map[uuid.UUID]int)
	var order []uuid.UUID
	for _, r := range ratings {
		if counts[r.RatedUserID] == 0 {
			order = append(order, r.RatedUserID)
		}
		sums[r.RatedUserID] += r.OverallScore
		counts[r.RatedUserID]++
	}

	out := make([]participantAverage, 0, len(order))
	for _, id := range order {
		out = append(out, participantAverage{
			UserID:  id,
			Average: sums[id] / float64(counts[id]),
			Count:   counts[id],
		})
	}
	return out
}

// pickMVP selects the highest average, breaking exact ties by lowest user ID.
func pickMVP(avgs []participantAverage) (uuid.UUID, bool) {
	if len(avgs) == 0 {
		return uuid.Nil, false
	}
	best := avgs[0]
	for _, pa := range avgs[1:] {
		if pa.Average > best.Average {
			best = pa
			continue
		}
		if pa.Average == best.Average && strings.Compare(pa.UserID.String(), best.UserID.String()) < 0 {
			best = pa
		}
	}
	return best.UserID, true
}
