// Package store defines the persistence boundary shared by the session and
// rating services. Two implementations exist: the pgx-backed one in
// internal/database and the mutex-guarded in-memory one in this package used
// by unit tests.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/pitchrate/pitchrate/internal/models"
)

var (
	// ErrNotFound is returned when a referenced row does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrDuplicate is returned on unique-constraint violations (email,
	// session code, participant pair, rating triple).
	ErrDuplicate = errors.New("store: duplicate")
	// ErrCapacity is returned by AddParticipant when the session is already
	// at max_participants. It is a backstop behind the service-level check.
	ErrCapacity = errors.New("store: session at capacity")
)

// Store is the full persistence surface. Operations that touch the
// denormalized participant counter (AddParticipant, RemoveParticipant) and
// the rater's given-ratings counter (InsertRating, DeleteRating) must apply
// both writes in one atomic unit; partial application is never observable.
type Store interface {
	// users
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, u *models.User) error

	// UpdateUserRatingStats overwrites the rating-derived user fields. Only
	// the statistics aggregator calls this.
	UpdateUserRatingStats(ctx context.Context, userID uuid.UUID, stats models.RatingStats) error

	// IncrementSessionsPlayed bumps total_sessions_played for each user,
	// called once when a session completes.
	IncrementSessionsPlayed(ctx context.Context, userIDs []uuid.UUID) error

	// sessions
	CreateSession(ctx context.Context, s *models.Session) error
	SessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error)
	SessionByCode(ctx context.Context, code string) (*models.Session, error)
	UpdateSessionDetails(ctx context.Context, s *models.Session) error
	SetSessionStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error
	SetSessionMVP(ctx context.Context, id, mvpUserID uuid.UUID) error
	ListUpcomingSessions(ctx context.Context, limit int) ([]models.Session, error)
	SearchSessions(ctx context.Context, query string, limit int) ([]models.Session, error)
	SessionsForOrganizer(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	SessionsForParticipant(ctx context.Context, userID uuid.UUID, status models.SessionStatus) ([]models.Session, error)

	// participants
	AddParticipant(ctx context.Context, sessionID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, sessionID, userID uuid.UUID) (bool, error)
	Participant(ctx context.Context, sessionID, userID uuid.UUID) (*models.Participant, error)
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error)
	CountParticipants(ctx context.Context, sessionID uuid.UUID) (int, error)

	// ratings
	InsertRating(ctx context.Context, r *models.Rating) error
	RatingByID(ctx context.Context, id uuid.UUID) (*models.Rating, error)
	DeleteRating(ctx context.Context, id uuid.UUID) error
	RatingsForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Rating, error)
	RatingsForRatee(ctx context.Context, userID uuid.UUID) ([]models.Rating, error)
	RatingsBySessionRater(ctx context.Context, sessionID, raterID uuid.UUID) ([]models.Rating, error)
	RatingsByRater(ctx context.Context, raterID uuid.UUID) ([]models.Rating, error)
	RatingExists(ctx context.Context, sessionID, raterID, ratedUserID uuid.UUID) (bool, error)
}
