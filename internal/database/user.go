package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/store"
)

const userColumns = `id, email, password, username, display_name, bio, location,
	current_overall_rating, play_type_distribution,
	total_sessions_played, total_ratings_given, total_ratings_received,
	created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var dist []byte
	err := row.Scan(
		&u.ID, &u.Email, &u.Password, &u.Username, &u.DisplayName, &u.Bio, &u.Location,
		&u.CurrentOverallRating, &dist,
		&u.TotalSessionsPlayed, &u.TotalRatingsGiven, &u.TotalRatingsReceived,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapRowErr(err)
	}
	if len(dist) > 0 {
		if err := json.Unmarshal(dist, &u.PlayTypeDistribution); err != nil {
			return nil, fmt.Errorf("decode play type distribution: %w", err)
		}
	}
	return &u, nil
}

// CreateUser inserts a new user row, assigning an ID when absent.
func (p *Postgres) CreateUser(ctx context.Context, u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}

	q := `INSERT INTO users (id, email, password, username, display_name, bio, location)
	      VALUES ($1, $2, $3, $4, $5, $6, $7)
	      RETURNING created_at, updated_at`
	err := p.pool.QueryRow(ctx, q,
		u.ID, u.Email, u.Password, u.Username, u.DisplayName, u.Bio, u.Location,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (p *Postgres) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(p.pool.QueryRow(ctx, q, id))
}

func (p *Postgres) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(p.pool.QueryRow(ctx, q, email))
}

// UpdateUserProfile writes the non-derived profile fields only.
func (p *Postgres) UpdateUserProfile(ctx context.Context, u *models.User) error {
	q := `UPDATE users
	      SET username = $1, display_name = $2, bio = $3, location = $4, updated_at = now()
	      WHERE id = $5`
	tag, err := p.pool.Exec(ctx, q, u.Username, u.DisplayName, u.Bio, u.Location, u.ID)
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// UpdateUserRatingStats overwrites the rating-derived fields in one update.
func (p *Postgres) UpdateUserRatingStats(ctx context.Context, userID uuid.UUID, stats models.RatingStats) error {
	dist, err := json.Marshal(stats.PlayTypeDistribution)
	if err != nil {
		return fmt.Errorf("encode play type distribution: %w", err)
	}

	q := `UPDATE users
	      SET current_overall_rating = $1, play_type_distribution = $2,
	          total_ratings_received = $3, updated_at = now()
	      WHERE id = $4`
	tag, err := p.pool.Exec(ctx, q, stats.OverallRating, dist, stats.TotalRatingsReceived, userID)
	if err != nil {
		return fmt.Errorf("update user stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// IncrementSessionsPlayed bumps total_sessions_played for each user in one
// statement.
func (p *Postgres) IncrementSessionsPlayed(ctx context.Context, userIDs []uuid.UUID) error {
	if len(userIDs) == 0 {
		return nil
	}
	q := `UPDATE users
	      SET total_sessions_played = total_sessions_played + 1, updated_at = now()
	      WHERE id = ANY($1)`
	if _, err := p.pool.Exec(ctx, q, userIDs); err != nil {
		return fmt.Errorf("bump sessions played: %w", err)
	}
	return nil
}
