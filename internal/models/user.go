package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a row in the users table. The rating-derived fields
// (CurrentOverallRating, PlayTypeDistribution, TotalRatingsReceived) are
// maintained exclusively by the statistics aggregator; request handlers never
// write them directly.
type User struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"password,omitempty"`
	Username    string    `json:"username"`
	DisplayName string    `json:"display_name"`
	Bio         string    `json:"bio,omitempty"`
	Location    string    `json:"location,omitempty"`

	CurrentOverallRating float64          `json:"current_overall_rating"`
	PlayTypeDistribution map[PlayType]int `json:"play_type_distribution"`
	TotalSessionsPlayed  int              `json:"total_sessions_played"`
	TotalRatingsGiven    int              `json:"total_ratings_given"`
	TotalRatingsReceived int              `json:"total_ratings_received"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingStats is the materialized view of a user's received ratings, produced
// by the statistics aggregator and written back in one store call.
type RatingStats struct {
	OverallRating        float64          `json:"overall_rating"`
	PlayTypeDistribution map[PlayType]int `json:"play_type_distribution"`
	TotalRatingsReceived int              `json:"total_ratings_received"`
}
