package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/store"
)

// AddParticipant inserts the membership row and bumps the session counter in
// one transaction. The session row is locked first so the capacity check and
// the increment cannot interleave with a concurrent join.
func (p *Postgres) AddParticipant(ctx context.Context, sessionID, userID uuid.UUID) error {
	err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var cur, max int
		err := tx.QueryRow(ctx,
			`SELECT current_participants, max_participants FROM sessions WHERE id = $1 FOR UPDATE`,
			sessionID,
		).Scan(&cur, &max)
		if err != nil {
			return mapRowErr(err)
		}
		if cur >= max {
			return store.ErrCapacity
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO session_participants (session_id, user_id, is_confirmed) VALUES ($1, $2, TRUE)`,
			sessionID, userID,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrDuplicate
			}
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE sessions SET current_participants = current_participants + 1, updated_at = now() WHERE id = $1`,
			sessionID,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrDuplicate) || errors.Is(err, store.ErrCapacity) {
			return err
		}
		return fmt.Errorf("add participant: %w", err)
	}
	return nil
}

// RemoveParticipant deletes the membership row and decrements the counter in
// one transaction, flooring at zero. The bool reports whether a row existed.
func (p *Postgres) RemoveParticipant(ctx context.Context, sessionID, userID uuid.UUID) (bool, error) {
	var removed bool
	err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var exists bool
		err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM sessions WHERE id = $1)`, sessionID,
		).Scan(&exists)
		if err != nil {
			return err
		}
		if !exists {
			return store.ErrNotFound
		}

		tag, err := tx.Exec(ctx,
			`DELETE FROM session_participants WHERE session_id = $1 AND user_id = $2`,
			sessionID, userID,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		removed = true

		_, err = tx.Exec(ctx,
			`UPDATE sessions
			 SET current_participants = GREATEST(current_participants - 1, 0), updated_at = now()
			 WHERE id = $1`,
			sessionID,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("remove participant: %w", err)
	}
	return removed, nil
}

func (p *Postgres) Participant(ctx context.Context, sessionID, userID uuid.UUID) (*models.Participant, error) {
	var pt models.Participant
	err := p.pool.QueryRow(ctx,
		`SELECT session_id, user_id, is_confirmed, joined_at
		 FROM session_participants WHERE session_id = $1 AND user_id = $2`,
		sessionID, userID,
	).Scan(&pt.SessionID, &pt.UserID, &pt.IsConfirmed, &pt.JoinedAt)
	if err != nil {
		return nil, mapRowErr(err)
	}
	return &pt, nil
}

func (p *Postgres) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.Participant, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT session_id, user_id, is_confirmed, joined_at
		 FROM session_participants WHERE session_id = $1
		 ORDER BY joined_at ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		var pt models.Participant
		if err := rows.Scan(&pt.SessionID, &pt.UserID, &pt.IsConfirmed, &pt.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, pt)
	}
	return out, rows.Err()
}

func (p *Postgres) CountParticipants(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM session_participants WHERE session_id = $1`,
		sessionID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}
