package rating

import "errors"

var (
	// ErrInvalidScore means the score is outside [1,10] or not on a
	// half-point step.
	ErrInvalidScore = errors.New("rating: score out of range")
	// ErrInvalidComment means the comment exceeds the length limit.
	ErrInvalidComment = errors.New("rating: comment too long")
	// ErrInvalidPlayType means the tag is not one of the six known values.
	ErrInvalidPlayType = errors.New("rating: unknown play type")
	// ErrSelfRating means rater and ratee are the same user.
	ErrSelfRating = errors.New("rating: self-rating forbidden")
	// ErrSessionNotCompleted means ratings are not open yet; only completed
	// sessions accept them.
	ErrSessionNotCompleted = errors.New("rating: session not completed")
	// ErrInvalidRatee means the rated user was not a confirmed participant.
	ErrInvalidRatee = errors.New("rating: ratee was not a participant")
	// ErrDuplicateRating means this rater already rated this user for this
	// session.
	ErrDuplicateRating = errors.New("rating: already rated")
	// ErrForbidden means the requester is not the rating's author.
	ErrForbidden = errors.New("rating: forbidden")
	// ErrDeleteExpired means the 24-hour deletion grace window has passed.
	ErrDeleteExpired = errors.New("rating: deletion window expired")
	// ErrStatsUpdate wraps a statistics recomputation failure after the
	// rating itself was persisted. The state is recoverable: recomputation is
	// idempotent and can be re-run.
	ErrStatsUpdate = errors.New("rating: statistics update failed")
)
