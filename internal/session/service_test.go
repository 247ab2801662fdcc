package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/store"
)

func newTestService(t *testing.T) (*Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return NewService(mem, nil), mem
}

func seedUser(t *testing.T, mem *store.Memory, email string) uuid.UUID {
	t.Helper()
	u := &models.User{Email: email, Username: email}
	if err := mem.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u.ID
}

func futureInput() CreateInput {
	return CreateInput{
		Title:    "Friday five-a-side",
		Location: "Riverside pitch 2",
		DateTime: time.Now().Add(48 * time.Hour),
	}
}

// TestCreateAppliesDefaults checks duration/capacity defaults and the issued
// invite code.
func TestCreateAppliesDefaults(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	organizer := uuid.New()

	sess, err := svc.Create(ctx, organizer, futureInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.Duration != DefaultDurationMinutes {
		t.Fatalf("expected default duration %d, got %d", DefaultDurationMinutes, sess.Duration)
	}
	if sess.MaxParticipants != DefaultMaxParticipants {
		t.Fatalf("expected default capacity %d, got %d", DefaultMaxParticipants, sess.MaxParticipants)
	}
	if sess.Status != models.StatusUpcoming {
		t.Fatalf("expected upcoming, got %q", sess.Status)
	}
	if len(sess.Code) != 6 {
		t.Fatalf("expected 6-char code, got %q", sess.Code)
	}

	byCode, err := svc.ByCode(ctx, sess.Code)
	if err != nil {
		t.Fatalf("ByCode: %v", err)
	}
	if byCode.ID != sess.ID {
		t.Fatalf("code resolves to wrong session")
	}
}

// TestCreateRejectsMissingFields requires title, location, and a start time.
func TestCreateRejectsMissingFields(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, in := range []CreateInput{
		{Location: "pitch", DateTime: time.Now().Add(time.Hour)},
		{Title: "game", DateTime: time.Now().Add(time.Hour)},
		{Title: "game", Location: "pitch"},
	} {
		if _, err := svc.Create(ctx, uuid.New(), in); !errors.Is(err, ErrValidation) {
			t.Fatalf("Create(%+v): expected ErrValidation, got %v", in, err)
		}
	}
}

// TestUpdateAuthorization only the organizer may edit, and terminal sessions
// are immutable.
func TestUpdateAuthorization(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	organizer := uuid.New()

	sess, err := svc.Create(ctx, organizer, futureInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	in := UpdateInput{
		Title:           sess.Title,
		Location:        sess.Location,
		DateTime:        sess.DateTime,
		Duration:        90,
		MaxParticipants: 10,
	}

	if _, err := svc.Update(ctx, sess.ID, uuid.New(), in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-organizer, got %v", err)
	}

	if _, err := svc.Update(ctx, sess.ID, organizer, in); err != nil {
		t.Fatalf("organizer update: %v", err)
	}

	if err := svc.Cancel(ctx, sess.ID, organizer); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := svc.Update(ctx, sess.ID, organizer, in); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after cancel, got %v", err)
	}
}

// TestUpdateCapacityFloor capacity can never drop below current membership.
func TestUpdateCapacityFloor(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	organizer := seedUser(t, mem, "org@example.com")

	sess, err := svc.Create(ctx, organizer, futureInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := svc.Join(ctx, sess.ID, uuid.New()); err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
	}

	in := UpdateInput{
		Title:           sess.Title,
		Location:        sess.Location,
		DateTime:        sess.DateTime,
		Duration:        sess.Duration,
		MaxParticipants: 2,
	}
	if _, err := svc.Update(ctx, sess.ID, organizer, in); !errors.Is(err, ErrCapacityViolation) {
		t.Fatalf("expected ErrCapacityViolation, got %v", err)
	}

	in.MaxParticipants = 3
	if _, err := svc.Update(ctx, sess.ID, organizer, in); err != nil {
		t.Fatalf("shrink to exactly current membership: %v", err)
	}
}

// TestCloseBumpsSessionsPlayed every confirmed participant's played counter
// moves on completion, and terminal states refuse further transitions.
func TestCloseBumpsSessionsPlayed(t *testing.T) {
	svc, mem := newTestService(t)
	ctx := context.Background()
	organizer := seedUser(t, mem, "org@example.com")
	player := seedUser(t, mem, "p1@example.com")

	sess, err := svc.Create(ctx, organizer, futureInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Join(ctx, sess.ID, player); err != nil {
		t.Fatalf("Join: %v", err)
	}

	if err := svc.Close(ctx, sess.ID, player); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for non-organizer close, got %v", err)
	}
	if err := svc.Close(ctx, sess.ID, organizer); err != nil {
		t.Fatalf("Close: %v", err)
	}

	got, err := svc.ByID(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if got.Status != models.StatusCompleted {
		t.Fatalf("expected completed, got %q", got.Status)
	}

	u, err := mem.UserByID(ctx, player)
	if err != nil {
		t.Fatalf("UserByID: %v", err)
	}
	if u.TotalSessionsPlayed != 1 {
		t.Fatalf("expected 1 session played, got %d", u.TotalSessionsPlayed)
	}

	if err := svc.Cancel(ctx, sess.ID, organizer); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition cancelling a completed session, got %v", err)
	}
	if err := svc.Close(ctx, sess.ID, organizer); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition closing twice, got %v", err)
	}
}

// TestInvitePayload stamps the session's id and immutable code.
func TestInvitePayload(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Create(ctx, uuid.New(), futureInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	p, err := svc.InvitePayload(ctx, sess.ID)
	if err != nil {
		t.Fatalf("InvitePayload: %v", err)
	}
	if p.SessionID != sess.ID || p.SessionCode != sess.Code {
		t.Fatalf("payload mismatch: %+v", p)
	}
	if p.IssuedAt <= 0 {
		t.Fatalf("payload missing timestamp")
	}
}

// TestEffectiveStatus a stored upcoming session reads active inside its time
// window without the stored value changing.
func TestEffectiveStatus(t *testing.T) {
	sess := models.Session{
		Status:   models.StatusUpcoming,
		DateTime: time.Now().Add(-10 * time.Minute),
		Duration: 120,
	}
	if got := sess.EffectiveStatus(time.Now()); got != models.StatusActive {
		t.Fatalf("expected active inside the window, got %q", got)
	}
	if got := sess.EffectiveStatus(time.Now().Add(3 * time.Hour)); got != models.StatusUpcoming {
		t.Fatalf("expected stored status after the window, got %q", got)
	}
	sess.Status = models.StatusCancelled
	if got := sess.EffectiveStatus(time.Now()); got != models.StatusCancelled {
		t.Fatalf("terminal status must win, got %q", got)
	}
}
