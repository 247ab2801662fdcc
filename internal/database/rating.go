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

const ratingColumns = `id, session_id, rater_id, rated_user_id,
	overall_score, play_type, comment, is_anonymous, created_at`

func scanRating(row pgx.Row) (*models.Rating, error) {
	var r models.Rating
	err := row.Scan(
		&r.ID, &r.SessionID, &r.RaterID, &r.RatedUserID,
		&r.OverallScore, &r.PlayType, &r.Comment, &r.IsAnonymous, &r.CreatedAt,
	)
	if err != nil {
		return nil, mapRowErr(err)
	}
	return &r, nil
}

func collectRatings(rows pgx.Rows) ([]models.Rating, error) {
	defer rows.Close()
	var out []models.Rating
	for rows.Next() {
		r, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// InsertRating persists the rating row and bumps the rater's given-ratings
// counter in one transaction. The unique (session, rater, ratee) index
// enforces the at-most-one invariant even across racing submissions.
func (p *Postgres) InsertRating(ctx context.Context, r *models.Rating) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}

	err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO ratings
			 (id, session_id, rater_id, rated_user_id, overall_score, play_type, comment, is_anonymous)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING created_at`,
			r.ID, r.SessionID, r.RaterID, r.RatedUserID,
			r.OverallScore, r.PlayType, r.Comment, r.IsAnonymous,
		).Scan(&r.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return store.ErrDuplicate
			}
			return err
		}

		_, err = tx.Exec(ctx,
			`UPDATE users SET total_ratings_given = total_ratings_given + 1, updated_at = now() WHERE id = $1`,
			r.RaterID,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return err
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

func (p *Postgres) RatingByID(ctx context.Context, id uuid.UUID) (*models.Rating, error) {
	q := `SELECT ` + ratingColumns + ` FROM ratings WHERE id = $1`
	return scanRating(p.pool.QueryRow(ctx, q, id))
}

// DeleteRating removes the row and decrements the rater's given-ratings
// counter in one transaction.
func (p *Postgres) DeleteRating(ctx context.Context, id uuid.UUID) error {
	err := pgx.BeginTxFunc(ctx, p.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var raterID uuid.UUID
		err := tx.QueryRow(ctx,
			`DELETE FROM ratings WHERE id = $1 RETURNING rater_id`, id,
		).Scan(&raterID)
		if err != nil {
			return mapRowErr(err)
		}

		_, err = tx.Exec(ctx,
			`UPDATE users
			 SET total_ratings_given = GREATEST(total_ratings_given - 1, 0), updated_at = now()
			 WHERE id = $1`,
			raterID,
		)
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete rating: %w", err)
	}
	return nil
}

func (p *Postgres) RatingsForSession(ctx context.Context, sessionID uuid.UUID) ([]models.Rating, error) {
	q := `SELECT ` + ratingColumns + ` FROM ratings WHERE session_id = $1 ORDER BY created_at ASC`
	rows, err := p.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("ratings for session: %w", err)
	}
	return collectRatings(rows)
}

func (p *Postgres) RatingsForRatee(ctx context.Context, userID uuid.UUID) ([]models.Rating, error) {
	q := `SELECT ` + ratingColumns + ` FROM ratings WHERE rated_user_id = $1 ORDER BY created_at ASC`
	rows, err := p.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("ratings for ratee: %w", err)
	}
	return collectRatings(rows)
}

func (p *Postgres) RatingsBySessionRater(ctx context.Context, sessionID, raterID uuid.UUID) ([]models.Rating, error) {
	q := `SELECT ` + ratingColumns + ` FROM ratings WHERE session_id = $1 AND rater_id = $2`
	rows, err := p.pool.Query(ctx, q, sessionID, raterID)
	if err != nil {
		return nil, fmt.Errorf("ratings by session rater: %w", err)
	}
	return collectRatings(rows)
}

func (p *Postgres) RatingsByRater(ctx context.Context, raterID uuid.UUID) ([]models.Rating, error) {
	q := `SELECT ` + ratingColumns + ` FROM ratings WHERE rater_id = $1 ORDER BY created_at ASC`
	rows, err := p.pool.Query(ctx, q, raterID)
	if err != nil {
		return nil, fmt.Errorf("ratings by rater: %w", err)
	}
	return collectRatings(rows)
}

func (p *Postgres) RatingExists(ctx context.Context, sessionID, raterID, ratedUserID uuid.UUID) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM ratings WHERE session_id = $1 AND rater_id = $2 AND rated_user_id = $3
		 )`,
		sessionID, raterID, ratedUserID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("rating exists: %w", err)
	}
	return exists, nil
}
