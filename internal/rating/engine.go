// Package rating implements the post-session peer-rating engine and the
// statistics aggregator that maintains every derived reputation field.
package rating

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"github.com/pitchrate/pitchrate/internal/events"
	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/session"
	"github.com/pitchrate/pitchrate/internal/store"
)

const (
	// MaxCommentLen caps the optional free-text comment.
	MaxCommentLen = 500
	// DeleteGraceWindow is how long a rater may retract their own rating.
	DeleteGraceWindow = 24 * time.Hour
)

// Engine validates and records rating submissions, then drives the
// aggregator. Submissions targeting the same ratee serialize on a per-ratee
// mutex so a recomputation never runs against a stale snapshot.
type Engine struct {
	store store.Store
	stats *Aggregator
	relay events.Relay
	locks store.KeyedMutex
}

// NewEngine builds an Engine. Pass events.Nop{} when no relay is wired.
func NewEngine(st store.Store, stats *Aggregator, relay events.Relay) *Engine {
	if relay == nil {
		relay = events.Nop{}
	}
	return &Engine{store: st, stats: stats, relay: relay}
}

// SubmitInput is one rating submission.
type SubmitInput struct {
	SessionID   uuid.UUID       `json:"session_id"`
	RaterID     uuid.UUID       `json:"rater_id"`
	RatedUserID uuid.UUID       `json:"rated_user_id"`
	Score       float64         `json:"overall_score"`
	PlayType    models.PlayType `json:"play_type"`
	Comment     string          `json:"comment"`
	IsAnonymous bool            `json:"is_anonymous"`
}

// validScore accepts [1,10] on half-point steps.
func validScore(s float64) bool {
	if s < 1 || s > 10 {
		return false
	}
	return math.Mod(s*2, 1) == 0
}

// Submit validates a rating against the session and participant state, and
// on success persists it and synchronously recomputes the ratee's statistics
// and the session MVP. Checks run in a fixed order and the first violated
// rule wins. A rejected rating is never persisted.
//
// If the rating is persisted but recomputation still fails after retries,
// Submit returns the rating together with an error wrapping ErrStatsUpdate;
// re-running the aggregator repairs the published statistics.
func (e *Engine) Submit(ctx context.Context, in SubmitInput) (*models.Rating, error) {
	if !validScore(in.Score) {
		return nil, ErrInvalidScore
	}
	if len(in.Comment) > MaxCommentLen {
		return nil, ErrInvalidComment
	}
	if in.RaterID == in.RatedUserID {
		return nil, ErrSelfRating
	}
	if !in.PlayType.Valid() {
		return nil, ErrInvalidPlayType
	}

	sess, err := e.store.SessionByID(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}
	if p, err := e.store.Participant(ctx, in.SessionID, in.RaterID); err != nil || !p.IsConfirmed {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check rater membership: %w", err)
		}
		return nil, session.ErrNotAParticipant
	}
	if sess.Status != models.StatusCompleted {
		return nil, ErrSessionNotCompleted
	}
	if p, err := e.store.Participant(ctx, in.SessionID, in.RatedUserID); err != nil || !p.IsConfirmed {
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("check ratee membership: %w", err)
		}
		return nil, ErrInvalidRatee
	}
	exists, err := e.store.RatingExists(ctx, in.SessionID, in.RaterID, in.RatedUserID)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if exists {
		return nil, ErrDuplicateRating
	}

	unlock := e.locks.Lock(in.RatedUserID.String())
	defer unlock()

	r := &models.Rating{
		SessionID:    in.SessionID,
		RaterID:      in.RaterID,
		RatedUserID:  in.RatedUserID,
		OverallScore: in.Score,
		PlayType:     in.PlayType,
		Comment:      in.Comment,
		IsAnonymous:  in.IsAnonymous,
	}
	if err := e.store.InsertRating(ctx, r); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrDuplicateRating
		}
		return nil, fmt.Errorf("insert rating: %w", err)
	}

	e.relay.Publish(ctx, events.Event{Entity: "rating", ID: r.ID, Change: events.ChangeCreated})

	if err := e.recompute(ctx, in.RatedUserID, in.SessionID); err != nil {
		return r, fmt.Errorf("%w: %v", ErrStatsUpdate, err)
	}
	e.relay.Publish(ctx, events.Event{Entity: "user", ID: in.RatedUserID, Change: events.ChangeUpdated})
	return r, nil
}

// Delete retracts a rating. Only the original rater may delete, and only
// within the grace window. The ratee's statistics and the session MVP are
// recomputed from the remaining set.
func (e *Engine) Delete(ctx context.Context, ratingID, requesterID uuid.UUID) error {
	r, err := e.store.RatingByID(ctx, ratingID)
	if err != nil {
		return err
	}
	if r.RaterID != requesterID {
		return ErrForbidden
	}
	if time.Since(r.CreatedAt) > DeleteGraceWindow {
		return ErrDeleteExpired
	}

	unlock := e.locks.Lock(r.RatedUserID.String())
	defer unlock()

	if err := e.store.DeleteRating(ctx, ratingID); err != nil {
		return err
	}

	e.relay.Publish(ctx, events.Event{Entity: "rating", ID: ratingID, Change: events.ChangeDeleted})

	if err := e.recompute(ctx, r.RatedUserID, r.SessionID); err != nil {
		return fmt.Errorf("%w: %v", ErrStatsUpdate, err)
	}
	e.relay.Publish(ctx, events.Event{Entity: "user", ID: r.RatedUserID, Change: events.ChangeUpdated})
	return nil
}

// recompute runs the aggregator for a ratee and a session with a short
// bounded retry, since a transient storage error here leaves a persisted
// rating whose aggregate has not caught up yet.
func (e *Engine) recompute(ctx context.Context, rateeID, sessionID uuid.UUID) error {
	backoff := retry.NewExponential(50 * time.Millisecond)
	return retry.Do(ctx, retry.WithMaxRetries(3, backoff), func(ctx context.Context) error {
		if err := e.stats.RecomputeUser(ctx, rateeID); err != nil {
			return retry.RetryableError(err)
		}
		if err := e.stats.RecomputeSessionMVP(ctx, sessionID); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// sanitize hides the rater's identity on anonymous ratings.
func sanitize(ratings []models.Rating) []models.Rating {
	out := make([]models.Rating, len(ratings))
	for i, r := range ratings {
		if r.IsAnonymous {
			r.RaterID = uuid.Nil
		}
		out[i] = r
	}
	return out
}

// ReceivedBy lists ratings received by a user, with anonymous raters hidden.
func (e *Engine) ReceivedBy(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	ratings, err := e.store.RatingsForRatee(ctx, userID)
	if err != nil {
		return nil, err
	}
	return sanitize(ratings), nil
}

// GivenBy lists ratings authored by a user.
func (e *Engine) GivenBy(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	return e.store.RatingsByRater(ctx, userID)
}

// ForSession lists a session's ratings with anonymous raters hidden.
func (e *Engine) ForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Rating, error) {
	ratings, err := e.store.RatingsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return sanitize(ratings), nil
}

// PendingSession is a completed session in which the user still has
// co-participants left to rate.
type PendingSession struct {
	Session models.Session `json:"session"`
	Unrated []uuid.UUID    `json:"unrated_user_ids"`
}

// PendingForUser walks the user's completed sessions and reports, per
// session, the confirmed co-participants they have not rated yet.
func (e *Engine) PendingForUser(ctx context.Context, userID uuid.UUID) ([]PendingSession, error) {
	sessions, err := e.store.SessionsForParticipant(ctx, userID, models.StatusCompleted)
	if err != nil {
		return nil, err
	}

	var out []PendingSession
	for _, sess := range sessions {
		participants, err := e.store.ListParticipants(ctx, sess.ID)
		if err != nil {
			return nil, err
		}
		given, err := e.store.RatingsBySessionRater(ctx, sess.ID, userID)
		if err != nil {
			return nil, err
		}
		rated := make(map[uuid.UUID]bool, len(given))
		for _, r := range given {
			rated[r.RatedUserID] = true
		}

		var unrated []uuid.UUID
		for _, p := range participants {
			if !p.IsConfirmed || p.UserID == userID || rated[p.UserID] {
				continue
			}
			unrated = append(unrated, p.UserID)
		}
		if len(unrated) > 0 {
			out = append(out, PendingSession{Session: sess, Unrated: unrated})
		}
	}
	return out, nil
}

// ParticipantSummary aggregates one ratee's ratings within a session.
type ParticipantSummary struct {
	UserID         uuid.UUID               `json:"user_id"`
	AverageRating  float64                 `json:"average_rating"`
	TotalRatings   int                     `json:"total_ratings"`
	PlayTypeCounts map[models.PlayType]int `json:"play_type_counts"`
}

// SessionSummary is the rating roll-up for one session.
type SessionSummary struct {
	TotalRatings         int                     `json:"total_ratings"`
	AverageRating        float64                 `json:"average_rating"`
	Participants         []ParticipantSummary    `json:"participants"`
	MVPUserID            *uuid.UUID              `json:"mvp_user_id,omitempty"`
	PlayTypeDistribution map[models.PlayType]int `json:"play_type_distribution"`
}

// Summary rolls a session's ratings up into per-participant averages, the
// session-wide play type distribution, and the MVP.
func (e *Engine) Summary(ctx context.Context, sessionID uuid.UUID) (*SessionSummary, error) {
	ratings, err := e.store.RatingsForSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(ratings) == 0 {
		return &SessionSummary{PlayTypeDistribution: map[models.PlayType]int{}}, nil
	}

	byUser := make(map[uuid.UUID][]models.Rating)
	var order []uuid.UUID
	var sum float64
	typeCounts := make(map[models.PlayType]int)
	for _, r := range ratings {
		if len(byUser[r.RatedUserID]) == 0 {
			order = append(order, r.RatedUserID)
		}
		byUser[r.RatedUserID] = append(byUser[r.RatedUserID], r)
		sum += r.OverallScore
		typeCounts[r.PlayType]++
	}

	summaries := make([]ParticipantSummary, 0, len(order))
	for _, id := range order {
		rs := byUser[id]
		var s float64
		counts := make(map[models.PlayType]int)
		for _, r := range rs {
			s += r.OverallScore
			counts[r.PlayType]++
		}
		summaries = append(summaries, ParticipantSummary{
			UserID:         id,
			AverageRating:  round1(s / float64(len(rs))),
			TotalRatings:   len(rs),
			PlayTypeCounts: counts,
		})
	}

	dist := make(map[models.PlayType]int, len(models.PlayTypes))
	for _, t := range models.PlayTypes {
		dist[t] = int(math.Round(float64(typeCounts[t]) / float64(len(ratings)) * 100))
	}

	out := &SessionSummary{
		TotalRatings:         len(ratings),
		AverageRating:        round1(sum / float64(len(ratings))),
		Participants:         summaries,
		PlayTypeDistribution: dist,
	}
	if mvp, ok := pickMVP(participantAverages(ratings)); ok {
		out.MVPUserID = &mvp
	}
	return out, nil
}
