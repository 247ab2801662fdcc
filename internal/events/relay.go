// Package events carries change notifications out of the core. The services
// emit an Event after each committed mutation; delivery is fire-and-forget
// and never blocks or fails a request.
package events

import (
	"context"

	"github.com/google/uuid"
)

// Change classifies what happened to an entity.
type Change string

const (
	ChangeCreated Change = "created"
	ChangeUpdated Change = "updated"
	ChangeDeleted Change = "deleted"
)

// Event identifies one committed mutation: which kind of entity, which row,
// and what happened to it. Observers re-fetch state themselves; the event
// carries no payload beyond identity.
type Event struct {
	Entity string    `json:"entity"` // "session", "participant", "rating", "user"
	ID     uuid.UUID `json:"id"`
	Change Change    `json:"change"`
}

// Relay publishes committed-change events to interested observers.
type Relay interface {
	Publish(ctx context.Context, ev Event)
}

// Nop is a Relay that drops everything. Used in tests and when no redis is
// configured.
type Nop struct{}

func (Nop) Publish(ctx context.Context, ev Event) {}
