package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus is the stored session state. Only the organizer-driven states
// are persisted; "active" is a display state computed from the time window at
// read time (see Session.EffectiveStatus).
type SessionStatus string

const (
	StatusUpcoming  SessionStatus = "upcoming"
	StatusActive    SessionStatus = "active"
	StatusCompleted SessionStatus = "completed"
	StatusCancelled SessionStatus = "cancelled"
)

// Terminal reports whether no further transitions are allowed from s.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Valid reports whether s is a known status value.
func (s SessionStatus) Valid() bool {
	switch s {
	case StatusUpcoming, StatusActive, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Session is a scheduled football gathering with a capacity and a short
// invite code. CurrentParticipants is a denormalized counter that must always
// equal the count of confirmed participant rows; the store updates both in
// one atomic unit.
type Session struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location"`
	DateTime    time.Time `json:"date_time"`
	Duration    int       `json:"duration"` // minutes

	MaxParticipants     int `json:"max_participants"`
	CurrentParticipants int `json:"current_participants"`

	Code        string        `json:"qr_code_data"` // immutable once issued
	OrganizerID uuid.UUID     `json:"organizer_id"`
	Status      SessionStatus `json:"status"`
	MVPUserID   *uuid.UUID    `json:"mvp_user_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EndsAt returns the scheduled end of the session.
func (s *Session) EndsAt() time.Time {
	return s.DateTime.Add(time.Duration(s.Duration) * time.Minute)
}

// HasStarted reports whether the scheduled start time has passed.
func (s *Session) HasStarted(now time.Time) bool {
	return !now.Before(s.DateTime)
}

// EffectiveStatus resolves the display status at the given instant. A stored
// "upcoming" session whose time window has been entered reads as active; the
// stored value itself only ever changes through Close or Cancel.
func (s *Session) EffectiveStatus(now time.Time) SessionStatus {
	if s.Status.Terminal() {
		return s.Status
	}
	if s.HasStarted(now) && now.Before(s.EndsAt()) {
		return StatusActive
	}
	return s.Status
}

// Participant is a join record linking a user to a session. The
// (SessionID, UserID) pair is unique.
type Participant struct {
	SessionID   uuid.UUID `json:"session_id"`
	UserID      uuid.UUID `json:"user_id"`
	IsConfirmed bool      `json:"is_confirmed"`
	JoinedAt    time.Time `json:"joined_at"`
}
