// Package session owns the session registry and the participation manager:
// creation and invite-code issuance, organizer-driven status transitions, and
// the join/leave/remove membership flow with its capacity accounting.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pitchrate/pitchrate/internal/events"
	"github.com/pitchrate/pitchrate/internal/invite"
	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/store"
)

// Defaults applied when creation input omits duration or capacity.
const (
	DefaultDurationMinutes = 120
	DefaultMaxParticipants = 20
)

// Service implements the session registry and participation manager over a
// store.Store. All capacity read-modify-writes for one session serialize on a
// per-session mutex; different sessions proceed in parallel.
type Service struct {
	store store.Store
	relay events.Relay
	locks store.KeyedMutex
}

// NewService builds a Service. Pass events.Nop{} when no relay is wired.
func NewService(st store.Store, relay events.Relay) *Service {
	if relay == nil {
		relay = events.Nop{}
	}
	return &Service{store: st, relay: relay}
}

// CreateInput is the organizer-supplied session definition.
type CreateInput struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	DateTime        time.Time `json:"date_time"`
	Duration        int       `json:"duration"` // minutes
	MaxParticipants int       `json:"max_participants"`
}

// Create registers a new session owned by organizerID, issuing a fresh
// collision-checked invite code. The code never changes afterwards.
func (s *Service) Create(ctx context.Context, organizerID uuid.UUID, in CreateInput) (*models.Session, error) {
	if in.Title == "" || in.Location == "" || in.DateTime.IsZero() {
		return nil, ErrValidation
	}
	if in.Duration <= 0 {
		in.Duration = DefaultDurationMinutes
	}
	if in.MaxParticipants <= 0 {
		in.MaxParticipants = DefaultMaxParticipants
	}

	code, err := invite.NewCode(ctx, s.codeExists)
	if err != nil {
		return nil, fmt.Errorf("issue invite code: %w", err)
	}

	sess := &models.Session{
		Title:           in.Title,
		Description:     in.Description,
		Location:        in.Location,
		DateTime:        in.DateTime,
		Duration:        in.Duration,
		MaxParticipants: in.MaxParticipants,
		Code:            code,
		OrganizerID:     organizerID,
		Status:          models.StatusUpcoming,
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.relay.Publish(ctx, events.Event{Entity: "session", ID: sess.ID, Change: events.ChangeCreated})
	return sess, nil
}

// codeExists adapts the store's by-code lookup for the invite generator.
func (s *Service) codeExists(ctx context.Context, code string) (bool, error) {
	_, err := s.store.SessionByCode(ctx, code)
	if err == store.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ByID fetches a session.
func (s *Service) ByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	return s.store.SessionByID(ctx, id)
}

// ByCode resolves an invite code to its session.
func (s *Service) ByCode(ctx context.Context, code string) (*models.Session, error) {
	return s.store.SessionByCode(ctx, code)
}

// InvitePayload builds the QR payload for a session, stamped now.
func (s *Service) InvitePayload(ctx context.Context, id uuid.UUID) (invite.Payload, error) {
	sess, err := s.store.SessionByID(ctx, id)
	if err != nil {
		return invite.Payload{}, err
	}
	return invite.NewPayload(sess.ID, sess.Code), nil
}

// UpdateInput carries the organizer-editable fields.
type UpdateInput struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	DateTime        time.Time `json:"date_time"`
	Duration        int       `json:"duration"`
	MaxParticipants int       `json:"max_participants"`
}

// Update rewrites the session's editable details. Only the organizer may
// call it, terminal sessions are immutable, and capacity can never drop
// below the current membership.
func (s *Service) Update(ctx context.Context, sessionID, actorID uuid.UUID, in UpdateInput) (*models.Session, error) {
	unlock := s.locks.Lock(sessionID.String())
	defer unlock()

	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.OrganizerID != actorID {
		return nil, ErrForbidden
	}
	if sess.Status.Terminal() {
		return nil, ErrInvalidTransition
	}
	if in.Title == "" || in.Location == "" || in.DateTime.IsZero() || in.Duration <= 0 || in.MaxParticipants <= 0 {
		return nil, ErrValidation
	}
	if in.MaxParticipants < sess.CurrentParticipants {
		return nil, ErrCapacityViolation
	}

	sess.Title = in.Title
	sess.Description = in.Description
	sess.Location = in.Location
	sess.DateTime = in.DateTime
	sess.Duration = in.Duration
	sess.MaxParticipants = in.MaxParticipants
	if err := s.store.UpdateSessionDetails(ctx, sess); err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}

	s.relay.Publish(ctx, events.Event{Entity: "session", ID: sess.ID, Change: events.ChangeUpdated})
	return sess, nil
}

// Close marks the session completed. Organizer only; terminal states are
// final. Every confirmed participant gets total_sessions_played bumped, and
// ratings open up once the new status is visible.
func (s *Service) Close(ctx context.Context, sessionID, actorID uuid.UUID) error {
	unlock := s.locks.Lock(sessionID.String())
	defer unlock()

	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.OrganizerID != actorID {
		return ErrForbidden
	}
	if sess.Status.Terminal() {
		return ErrInvalidTransition
	}

	if err := s.store.SetSessionStatus(ctx, sessionID, models.StatusCompleted); err != nil {
		return fmt.Errorf("close session: %w", err)
	}

	participants, err := s.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("list participants: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(participants))
	for _, p := range participants {
		if p.IsConfirmed {
			ids = append(ids, p.UserID)
		}
	}
	if err := s.store.IncrementSessionsPlayed(ctx, ids); err != nil {
		return fmt.Errorf("bump sessions played: %w", err)
	}

	s.relay.Publish(ctx, events.Event{Entity: "session", ID: sessionID, Change: events.ChangeUpdated})
	return nil
}

// Cancel marks the session cancelled. Same actor and terminal-state rules as
// Close; cancelled sessions never accept ratings.
func (s *Service) Cancel(ctx context.Context, sessionID, actorID uuid.UUID) error {
	unlock := s.locks.Lock(sessionID.String())
	defer unlock()

	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.OrganizerID != actorID {
		return ErrForbidden
	}
	if sess.Status.Terminal() {
		return ErrInvalidTransition
	}

	if err := s.store.SetSessionStatus(ctx, sessionID, models.StatusCancelled); err != nil {
		return fmt.Errorf("cancel session: %w", err)
	}

	s.relay.Publish(ctx, events.Event{Entity: "session", ID: sessionID, Change: events.ChangeUpdated})
	return nil
}

// ListUpcoming returns upcoming sessions ordered by start time.
func (s *Service) ListUpcoming(ctx context.Context, limit int) ([]models.Session, error) {
	return s.store.ListUpcomingSessions(ctx, limit)
}

// Search matches upcoming sessions by title or location substring.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.Session, error) {
	return s.store.SearchSessions(ctx, query, limit)
}

// ForOrganizer lists sessions created by a user, newest first.
func (s *Service) ForOrganizer(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	return s.store.SessionsForOrganizer(ctx, userID)
}

// ForParticipant lists sessions a user is confirmed in, optionally filtered
// by stored status ("" for all).
func (s *Service) ForParticipant(ctx context.Context, userID uuid.UUID, status models.SessionStatus) ([]models.Session, error) {
	return s.store.SessionsForParticipant(ctx, userID, status)
}
