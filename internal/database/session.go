package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/store"
)

const sessionColumns = `id, title, description, location, date_time, duration,
	max_participants, current_participants, qr_code_data, organizer_id,
	status, mvp_user_id, created_at, updated_at`

func scanSession(row pgx.Row) (*models.Session, error) {
	var s models.Session
	err := row.Scan(
		&s.ID, &s.Title, &s.Description, &s.Location, &s.DateTime, &s.Duration,
		&s.MaxParticipants, &s.CurrentParticipants, &s.Code, &s.OrganizerID,
		&s.Status, &s.MVPUserID, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, mapRowErr(err)
	}
	return &s, nil
}

func collectSessions(rows pgx.Rows) ([]models.Session, error) {
	defer rows.Close()
	var out []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CreateSession inserts a new session row, assigning an ID when absent. A
// duplicate invite code surfaces as store.ErrDuplicate.
func (p *Postgres) CreateSession(ctx context.Context, s *models.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	q := `INSERT INTO sessions
	      (id, title, description, location, date_time, duration,
	       max_participants, qr_code_data, organizer_id, status)
	      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	      RETURNING current_participants, created_at, updated_at`
	err := p.pool.QueryRow(ctx, q,
		s.ID, s.Title, s.Description, s.Location, s.DateTime, s.Duration,
		s.MaxParticipants, s.Code, s.OrganizerID, s.Status,
	).Scan(&s.CurrentParticipants, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (p *Postgres) SessionByID(ctx context.Context, id uuid.UUID) (*models.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1`
	return scanSession(p.pool.QueryRow(ctx, q, id))
}

func (p *Postgres) SessionByCode(ctx context.Context, code string) (*models.Session, error) {
	q := `SELECT ` + sessionColumns + ` FROM sessions WHERE qr_code_data = $1`
	return scanSession(p.pool.QueryRow(ctx, q, code))
}

// UpdateSessionDetails writes the organizer-editable fields. Status, code,
// counters and MVP are not touched here.
func (p *Postgres) UpdateSessionDetails(ctx context.Context, s *models.Session) error {
	q := `UPDATE sessions
	      SET title = $1, description = $2, location = $3, date_time = $4,
	          duration = $5, max_participants = $6, updated_at = now()
	      WHERE id = $7`
	tag, err := p.pool.Exec(ctx, q,
		s.Title, s.Description, s.Location, s.DateTime, s.Duration, s.MaxParticipants, s.ID)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (p *Postgres) SetSessionStatus(ctx context.Context, id uuid.UUID, status models.SessionStatus) error {
	q := `UPDATE sessions SET status = $1, updated_at = now() WHERE id = $2`
	tag, err := p.pool.Exec(ctx, q, status, id)
	if err != nil {
		return fmt.Errorf("set session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (p *Postgres) SetSessionMVP(ctx context.Context, id, mvpUserID uuid.UUID) error {
	q := `UPDATE sessions SET mvp_user_id = $1, updated_at = now() WHERE id = $2`
	tag, err := p.pool.Exec(ctx, q, mvpUserID, id)
	if err != nil {
		return fmt.Errorf("set session mvp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (p *Postgres) ListUpcomingSessions(ctx context.Context, limit int) ([]models.Session, error) {
	q := `SELECT ` + sessionColumns + `
	      FROM sessions
	      WHERE status = 'upcoming' AND date_time >= now()
	      ORDER BY date_time ASC
	      LIMIT $1`
	rows, err := p.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("list upcoming sessions: %w", err)
	}
	return collectSessions(rows)
}

func (p *Postgres) SearchSessions(ctx context.Context, query string, limit int) ([]models.Session, error) {
	q := `SELECT ` + sessionColumns + `
	      FROM sessions
	      WHERE status = 'upcoming'
	        AND (title ILIKE '%' || $1 || '%' OR location ILIKE '%' || $1 || '%')
	      ORDER BY date_time ASC
	      LIMIT $2`
	rows, err := p.pool.Query(ctx, q, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search sessions: %w", err)
	}
	return collectSessions(rows)
}

func (p *Postgres) SessionsForOrganizer(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	q := `SELECT ` + sessionColumns + `
	      FROM sessions
	      WHERE organizer_id = $1
	      ORDER BY date_time DESC`
	rows, err := p.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("sessions for organizer: %w", err)
	}
	return collectSessions(rows)
}

func (p *Postgres) SessionsForParticipant(ctx context.Context, userID uuid.UUID, status models.SessionStatus) ([]models.Session, error) {
	q := `SELECT ` + sessionColumns + `
	      FROM sessions s
	      JOIN session_participants sp ON sp.session_id = s.id
	      WHERE sp.user_id = $1 AND sp.is_confirmed
	        AND ($2 = '' OR s.status = $2)
	      ORDER BY s.date_time DESC`
	rows, err := p.pool.Query(ctx, q, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("sessions for participant: %w", err)
	}
	return collectSessions(rows)
}
