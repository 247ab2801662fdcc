package session

import "errors"

var (
	// ErrForbidden means the acting user is not permitted to perform the
	// operation (not the organizer).
	ErrForbidden = errors.New("session: forbidden")
	// ErrInvalidTransition means the session is already in a terminal state.
	ErrInvalidTransition = errors.New("session: invalid status transition")
	// ErrCapacityViolation means max_participants cannot be reduced below the
	// current membership.
	ErrCapacityViolation = errors.New("session: capacity below current participants")

	// ErrSessionFull means the session is at max_participants.
	ErrSessionFull = errors.New("session: full")
	// ErrSessionClosed means the session is completed, cancelled, or has
	// already started.
	ErrSessionClosed = errors.New("session: closed to joining")
	// ErrAlreadyJoined means a membership row already exists for the pair.
	ErrAlreadyJoined = errors.New("session: already joined")
	// ErrNotAParticipant means the user has no membership row for the session.
	ErrNotAParticipant = errors.New("session: not a participant")

	// ErrValidation covers malformed creation/update input (empty title,
	// non-positive capacity or duration).
	ErrValidation = errors.New("session: invalid input")
)
