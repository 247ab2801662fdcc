package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pitchrate/pitchrate/internal/events"
	"github.com/pitchrate/pitchrate/internal/store"
)

// Join adds userID to the session as a confirmed participant. Checks run in
// order: capacity, joinability, duplicate membership. The membership row and
// the participant counter move together in one store call; the per-session
// lock serializes concurrent joins so the capacity read cannot go stale.
func (s *Service) Join(ctx context.Context, sessionID, userID uuid.UUID) error {
	unlock := s.locks.Lock(sessionID.String())
	defer unlock()

	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if sess.CurrentParticipants >= sess.MaxParticipants {
		return ErrSessionFull
	}
	if sess.Status.Terminal() || sess.HasStarted(time.Now()) {
		return ErrSessionClosed
	}
	if _, err := s.store.Participant(ctx, sessionID, userID); err == nil {
		return ErrAlreadyJoined
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check membership: %w", err)
	}

	if err := s.store.AddParticipant(ctx, sessionID, userID); err != nil {
		// The store re-checks under its own atomicity; map its backstop
		// errors onto the join taxonomy.
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return ErrAlreadyJoined
		case errors.Is(err, store.ErrCapacity):
			return ErrSessionFull
		default:
			return fmt.Errorf("add participant: %w", err)
		}
	}

	s.relay.Publish(ctx, events.Event{Entity: "participant", ID: userID, Change: events.ChangeCreated})
	s.relay.Publish(ctx, events.Event{Entity: "session", ID: sessionID, Change: events.ChangeUpdated})
	return nil
}

// Leave removes the caller's own membership. Removing a row and decrementing
// the counter happen atomically in the store; the counter floors at zero.
func (s *Service) Leave(ctx context.Context, sessionID, userID uuid.UUID) error {
	unlock := s.locks.Lock(sessionID.String())
	defer unlock()

	removed, err := s.store.RemoveParticipant(ctx, sessionID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotAParticipant
	}

	s.relay.Publish(ctx, events.Event{Entity: "participant", ID: userID, Change: events.ChangeDeleted})
	s.relay.Publish(ctx, events.Event{Entity: "session", ID: sessionID, Change: events.ChangeUpdated})
	return nil
}

// Remove ejects targetID from the session. Organizer only; otherwise the
// same discipline as Leave.
func (s *Service) Remove(ctx context.Context, sessionID, actorID, targetID uuid.UUID) error {
	unlock := s.locks.Lock(sessionID.String())
	defer unlock()

	sess, err := s.store.SessionByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if sess.OrganizerID != actorID {
		return ErrForbidden
	}

	removed, err := s.store.RemoveParticipant(ctx, sessionID, targetID)
	if err != nil {
		return err
	}
	if !removed {
		return ErrNotAParticipant
	}

	s.relay.Publish(ctx, events.Event{Entity: "participant", ID: targetID, Change: events.ChangeDeleted})
	s.relay.Publish(ctx, events.Event{Entity: "session", ID: sessionID, Change: events.ChangeUpdated})
	return nil
}

// Participants lists the session's membership rows.
func (s *Service) Participants(ctx context.Context, sessionID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, p := range rows {
		if p.IsConfirmed {
			ids = append(ids, p.UserID)
		}
	}
	return ids, nil
}
