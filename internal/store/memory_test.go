package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pitchrate/pitchrate/internal/models"
)

func seedSession(t *testing.T, m *Memory, max int) *models.Session {
	t.Helper()
	s := &models.Session{
		Title: "t", Location: "l", DateTime: time.Now().Add(time.Hour),
		Duration: 120, MaxParticipants: max, Code: uuid.NewString()[:6],
		OrganizerID: uuid.New(), Status: models.StatusUpcoming,
	}
	if err := m.CreateSession(context.Background(), s); err != nil {
		t.Fatalf("create session: %v", err)
	}
	return s
}

// TestAddParticipantCapacityBackstop raw concurrent inserts never push the
// counter past capacity, even without the service-level lock.
func TestAddParticipantCapacityBackstop(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	sess := seedSession(t, m, 5)

	const attempts = 40
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.AddParticipant(ctx, sess.ID, uuid.New())
		}(i)
	}
	wg.Wait()

	var ok, capped int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrCapacity):
			capped++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 5 || capped != attempts-5 {
		t.Fatalf("expected 5 inserts and %d rejections, got %d/%d", attempts-5, ok, capped)
	}

	got, _ := m.SessionByID(ctx, sess.ID)
	rows, _ := m.CountParticipants(ctx, sess.ID)
	if got.CurrentParticipants != 5 || rows != 5 {
		t.Fatalf("counter %d, rows %d, want 5/5", got.CurrentParticipants, rows)
	}
}

// TestRemoveParticipantFloorsCounter the counter never goes negative.
func TestRemoveParticipantFloorsCounter(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	sess := seedSession(t, m, 5)
	user := uuid.New()

	if err := m.AddParticipant(ctx, sess.ID, user); err != nil {
		t.Fatalf("add: %v", err)
	}
	removed, err := m.RemoveParticipant(ctx, sess.ID, user)
	if err != nil || !removed {
		t.Fatalf("remove: %v removed=%v", err, removed)
	}
	removed, err = m.RemoveParticipant(ctx, sess.ID, user)
	if err != nil || removed {
		t.Fatalf("second remove must be a no-op, got %v removed=%v", err, removed)
	}

	got, _ := m.SessionByID(ctx, sess.ID)
	if got.CurrentParticipants != 0 {
		t.Fatalf("counter went to %d", got.CurrentParticipants)
	}

	if _, err := m.RemoveParticipant(ctx, uuid.New(), user); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown session, got %v", err)
	}
}

// TestRatingTripleUniqueness the (session, rater, ratee) triple is unique and
// the rater's given counter tracks insert/delete.
func TestRatingTripleUniqueness(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	sess := seedSession(t, m, 5)

	rater := &models.User{Email: "rater@example.com", Username: "rater"}
	if err := m.CreateUser(ctx, rater); err != nil {
		t.Fatalf("create user: %v", err)
	}
	ratee := uuid.New()

	r := &models.Rating{
		SessionID: sess.ID, RaterID: rater.ID, RatedUserID: ratee,
		OverallScore: 7, PlayType: models.PlayTypeFun,
	}
	if err := m.InsertRating(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}
	dup := &models.Rating{
		SessionID: sess.ID, RaterID: rater.ID, RatedUserID: ratee,
		OverallScore: 9, PlayType: models.PlayTypeSocial,
	}
	if err := m.InsertRating(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	u, _ := m.UserByID(ctx, rater.ID)
	if u.TotalRatingsGiven != 1 {
		t.Fatalf("expected given counter 1, got %d", u.TotalRatingsGiven)
	}

	if err := m.DeleteRating(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	u, _ = m.UserByID(ctx, rater.ID)
	if u.TotalRatingsGiven != 0 {
		t.Fatalf("expected given counter 0 after delete, got %d", u.TotalRatingsGiven)
	}

	// the triple is free again
	if err := m.InsertRating(ctx, dup); err != nil {
		t.Fatalf("reinsert after delete: %v", err)
	}
}

// TestDuplicateEmail unique email constraint.
func TestDuplicateEmail(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.CreateUser(ctx, &models.User{Email: "a@example.com", Username: "a"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := m.CreateUser(ctx, &models.User{Email: "a@example.com", Username: "b"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

// TestReadsReturnCopies mutating a returned struct must not leak back into
// the store.
func TestReadsReturnCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	sess := seedSession(t, m, 5)

	got, _ := m.SessionByID(ctx, sess.ID)
	got.Title = "mutated"

	again, _ := m.SessionByID(ctx, sess.ID)
	if again.Title != "t" {
		t.Fatalf("store leaked a mutable reference")
	}
}

// TestKeyedMutexIndependentKeys different keys do not serialize.
func TestKeyedMutexIndependentKeys(t *testing.T) {
	var km KeyedMutex

	unlockA := km.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := km.Lock("b")
		unlockB()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("lock on a different key blocked")
	}
	unlockA()

	// same key serializes
	unlock1 := km.Lock("same")
	acquired := make(chan struct{})
	go func() {
		unlock2 := km.Lock("same")
		unlock2()
		close(acquired)
	}()
	select {
	case <-acquired:
		t.Fatalf("same-key lock did not block")
	case <-time.After(50 * time.Millisecond):
	}
	unlock1()
	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatalf("same-key lock never released")
	}
}
