package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pitchrate/pitchrate/internal/models"
)

// Memory is an in-memory Store guarded by a single RWMutex. It backs unit
// tests and local development without postgres. Counter and row mutations
// happen under one lock acquisition, which satisfies the same atomicity
// contract the postgres implementation meets with transactions.
type Memory struct {
	mu sync.RWMutex

	users        map[uuid.UUID]*models.User
	usersByEmail map[string]uuid.UUID

	sessions       map[uuid.UUID]*models.Session
	sessionsByCode map[string]uuid.UUID

	// participants[sessionID][userID]
	participants map[uuid.UUID]map[uuid.UUID]*models.Participant

	ratings        map[uuid.UUID]*models.Rating
	ratingByTriple map[string]uuid.UUID
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		users:          make(map[uuid.UUID]*models.User),
		usersByEmail:   make(map[string]uuid.UUID),
		sessions:       make(map[uuid.UUID]*models.Session),
		sessionsByCode: make(map[string]uuid.UUID),
		participants:   make(map[uuid.UUID]map[uuid.UUID]*models.Participant),
		ratings:        make(map[uuid.UUID]*models.Rating),
		ratingByTriple: make(map[string]uuid.UUID),
	}
}

func tripleKey(sessionID, raterID, ratedUserID uuid.UUID) string {
	return sessionID.String() + "|" + raterID.String() + "|" + ratedUserID.String()
}

func copyUser(u *models.User) *models.User {
	cp := *u
	if u.PlayTypeDistribution != nil {
		cp.PlayTypeDistribution = make(map[models.PlayType]int, len(u.PlayTypeDistribution))
		for k, v := range u.PlayTypeDistribution {
			cp.PlayTypeDistribution[k] = v
		}
	}
	return &cp
}

func copySession(s *models.Session) *models.Session {
	cp := *s
	if s.MVPUserID != nil {
		id := *s.MVPUserID
		cp.MVPUserID = &id
	}
	return &cp
}

// CreateUser inserts a new user, assigning an ID when absent.
func (m *Memory) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u.Email != "" {
		if _, exists := m.usersByEmail[u.Email]; exists {
			return ErrDuplicate
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	m.users[u.ID] = copyUser(u)
	if u.Email != "" {
		m.usersByEmail[u.Email] = u.ID
	}
	return nil
}

func (m *Memory) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (m *Memory) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.usersByEmail[email]
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(m.users[id]), nil
}

// UpdateUserProfile writes the non-derived profile fields only.
func (m *Memory) UpdateUserProfile(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.users[u.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Username = u.Username
	cur.DisplayName = u.DisplayName
	cur.Bio = u.Bio
	cur.Location = u.Location
	cur.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) UpdateUserRatingStats(ctx context.Context, userID uuid.UUID, stats models.RatingStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return ErrNotFound
	}
	u.CurrentOverallRating = stats.OverallRating
	u.PlayTypeDistribution = make(map[models.PlayType]int, len(stats.PlayTypeDistribution))
	for k, v := range stats.PlayTypeDistribution {
		u.PlayTypeDistribution[k] = v
	}
	u.TotalRatingsReceived = stats.TotalRatingsReceived
	u.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) IncrementSessionsPlayed(ctx context.Context, userIDs []uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range userIDs {
		if u, ok := m.users[id]; ok {
			u.TotalSessionsPlayed++
			u.UpdatedAt = time.Now()
		}
	}
	return nil
}

// CreateSession inserts a new session, assigning an ID when absent. The
// invite code must be unique.
func (m *Memory) CreateSession(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessionsByCode[s.Code]; exists {
		return ErrDuplicate
	}
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now

	m.sessions[s.ID] = copySession(s)
	m.sessionsByCode[s.Code] = s.ID
	m.participants[s.ID] = make(map[uuid.UUID]*models.Participant)
	return nil
}

func (m *Memory) SessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(s), nil
}

func (m *Memory) SessionByCode(ctx context.Context, code string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.sessionsByCode[code]
	if !ok {
		return nil, ErrNotFound
	}
	return copySession(m.sessions[id]), nil
}

// UpdateSessionDetails writes the organizer-editable fields. Status, code,
// counters and MVP are untouched.
func (m *Memory) UpdateSessionDetails(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.sessions[s.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Title = s.Title
	cur.Description = s.Description
	cur.Location = s.Location
	cur.DateTime = s.DateTime
	cur.Duration = s.Duration
	cur.MaxParticipants = s.MaxParticipants
	cur.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) SetSessionStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.Status = status
	s.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) SetSessionMVP(ctx context.Context, id, mvpUserID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	mvp := mvpUserID
	s.MVPUserID = &mvp
	s.UpdatedAt = time.Now()
	return nil
}

func (m *Memory) ListUpcomingSessions(ctx context.Context, limit int) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var out []models.Session
	for _, s := range m.sessions {
		if s.Status == models.StatusUpcoming && s.DateTime.After(now) {
			out = append(out, *copySession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SearchSessions(ctx context.Context, query string, limit int) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	q := strings.ToLower(query)
	var out []models.Session
	for _, s := range m.sessions {
		if s.Status != models.StatusUpcoming {
			continue
		}
		if strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.Location), q) {
			out = append(out, *copySession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) SessionsForOrganizer(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Session
	for _, s := range m.sessions {
		if s.OrganizerID == userID {
			out = append(out, *copySession(s))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	return out, nil
}

func (m *Memory) SessionsForParticipant(ctx context.Context, userID uuid.UUID, status models.SessionStatus) ([]models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Session
	for sid, members := range m.participants {
		p, ok := members[userID]
		if !ok || !p.IsConfirmed {
			continue
		}
		s := m.sessions[sid]
		if status != "" && s.Status != status {
			continue
		}
		out = append(out, *copySession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.After(out[j].DateTime) })
	return out, nil
}

// AddParticipant inserts a confirmed membership row and increments the
// session counter under one lock hold.
func (m *Memory) AddParticipant(ctx context.Context, sessionID, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	members := m.participants[sessionID]
	if _, exists := members[userID]; exists {
		return ErrDuplicate
	}
	if s.CurrentParticipants >= s.MaxParticipants {
		return ErrCapacity
	}

	members[userID] = &models.Participant{
		SessionID:   sessionID,
		UserID:      userID,
		IsConfirmed: true,
		JoinedAt:    time.Now(),
	}
	s.CurrentParticipants++
	s.UpdatedAt = time.Now()
	return nil
}

// RemoveParticipant deletes the membership row if present and decrements the
// counter with a floor of zero. The bool reports whether a row was removed.
func (m *Memory) RemoveParticipant(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionID]
	if !ok {
		return false, ErrNotFound
	}
	members := m.participants[sessionID]
	if _, exists := members[userID]; !exists {
		return false, nil
	}
	delete(members, userID)
	if s.CurrentParticipants > 0 {
		s.CurrentParticipants--
	}
	s.UpdatedAt = time.Now()
	return true, nil
}

func (m *Memory) Participant(ctx context.Context, sessionID, userID uuid.UUID) (*models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, ok := m.participants[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	p, ok := members[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *Memory) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, ok := m.participants[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]models.Participant, 0, len(members))
	for _, p := range members {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (m *Memory) CountParticipants(ctx context.Context, sessionID uuid.UUID) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	members, ok := m.participants[sessionID]
	if !ok {
		return 0, ErrNotFound
	}
	return len(members), nil
}

// InsertRating persists the rating and bumps the rater's given-ratings
// counter in the same lock hold.
func (m *Memory) InsertRating(ctx context.Context, r *models.Rating) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := tripleKey(r.SessionID, r.RaterID, r.RatedUserID)
	if _, exists := m.ratingByTriple[key]; exists {
		return ErrDuplicate
	}
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	cp := *r
	m.ratings[r.ID] = &cp
	m.ratingByTriple[key] = r.ID
	if u, ok := m.users[r.RaterID]; ok {
		u.TotalRatingsGiven++
	}
	return nil
}

func (m *Memory) RatingByID(ctx context.Context, id uuid.UUID) (*models.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.ratings[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// DeleteRating removes the rating and decrements the rater's given-ratings
// counter in the same lock hold.
func (m *Memory) DeleteRating(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.ratings[id]
	if !ok {
		return ErrNotFound
	}
	delete(m.ratings, id)
	delete(m.ratingByTriple, tripleKey(r.SessionID, r.RaterID, r.RatedUserID))
	if u, ok := m.users[r.RaterID]; ok && u.TotalRatingsGiven > 0 {
		u.TotalRatingsGiven--
	}
	return nil
}

func (m *Memory) RatingsForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Rating
	for _, r := range m.ratings {
		if r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) RatingsForRatee(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Rating
	for _, r := range m.ratings {
		if r.RatedUserID == userID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) RatingsBySessionRater(ctx context.Context, sessionID, raterID uuid.UUID) ([]models.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Rating
	for _, r := range m.ratings {
		if r.SessionID == sessionID && r.RaterID == raterID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *Memory) RatingsByRater(ctx context.Context, raterID uuid.UUID) ([]models.Rating, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Rating
	for _, r := range m.ratings {
		if r.RaterID == raterID {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) RatingExists(ctx context.Context, sessionID, raterID, ratedUserID uuid.UUID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.ratingByTriple[tripleKey(sessionID, raterID, ratedUserID)]
	return exists, nil
}
