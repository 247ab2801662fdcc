package models

import (
	"time"

	"github.com/google/uuid"
)

// PlayType is a categorical tag describing a rated player's style.
type PlayType string

const (
	PlayTypeFun         PlayType = "fun"
	PlayTypeCompetitive PlayType = "competitive"
	PlayTypeFairPlay    PlayType = "fair_play"
	PlayTypeTechnical   PlayType = "technical"
	PlayTypeSocial      PlayType = "social"
	PlayTypeReliable    PlayType = "reliable"
)

// PlayTypes lists all tags in canonical order.
var PlayTypes = []PlayType{
	PlayTypeFun,
	PlayTypeCompetitive,
	PlayTypeFairPlay,
	PlayTypeTechnical,
	PlayTypeSocial,
	PlayTypeReliable,
}

// Valid reports whether p is one of the six known tags.
func (p PlayType) Valid() bool {
	for _, t := range PlayTypes {
		if p == t {
			return true
		}
	}
	return false
}

// Rating is a post-session peer evaluation. The (SessionID, RaterID,
// RatedUserID) triple is unique: one rating per rater per ratee per session.
type Rating struct {
	ID          uuid.UUID `json:"id"`
	SessionID   uuid.UUID `json:"session_id"`
	RaterID     uuid.UUID `json:"rater_id"`
	RatedUserID uuid.UUID `json:"rated_user_id"`

	OverallScore float64  `json:"overall_score"` // 1-10, half points allowed
	PlayType     PlayType `json:"play_type"`
	Comment      string   `json:"comment,omitempty"`

	// IsAnonymous hides the rater's identity from the ratee. The rating still
	// counts toward the aggregate.
	IsAnonymous bool `json:"is_anonymous"`

	CreatedAt time.Time `json:"created_at"`
}
