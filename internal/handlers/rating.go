package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/pitchrate/pitchrate/internal/rating"
)

// SubmitRatingHandler records one peer rating. The rater is always the
// authenticated caller; any rater_id in the body is ignored.
func (s *Server) SubmitRatingHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in rating.SubmitInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	in.RaterID = userID

	rec, err := s.Ratings.Submit(r.Context(), in)
	if err != nil {
		// A stats failure after persistence still returns the stored rating;
		// the aggregates catch up on the next recomputation.
		if rec != nil && errors.Is(err, rating.ErrStatsUpdate) {
			s.Logger.WithError(err).WithField("rating_id", rec.ID).Warn("rating stored, statistics update pending")
			writeJSON(w, http.StatusCreated, rec)
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// DeleteRatingHandler retracts a rating the caller authored, within the
// grace window.
func (s *Server) DeleteRatingHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		RatingID uuid.UUID `json:"rating_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RatingID == uuid.Nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := s.Ratings.Delete(r.Context(), req.RatingID, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SessionRatingsHandler lists a session's ratings with anonymous raters
// hidden.
func (s *Server) SessionRatingsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, err)
		return
	}
	sessionID, err := queryUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	ratings, err := s.Ratings.ForSession(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratings)
}

// ReceivedRatingsHandler lists ratings received by a user (?id= defaults to
// the caller), anonymous raters hidden.
func (s *Server) ReceivedRatingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("id") != "" {
		if userID, err = queryUUID(r, "id"); err != nil {
			http.Error(w, "invalid user id", http.StatusBadRequest)
			return
		}
	}

	ratings, err := s.Ratings.ReceivedBy(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratings)
}

// GivenRatingsHandler lists ratings the caller has authored.
func (s *Server) GivenRatingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ratings, err := s.Ratings.GivenBy(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ratings)
}

// PendingRatingsHandler reports, per completed session, the co-participants
// the caller has not rated yet.
func (s *Server) PendingRatingsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	pending, err := s.Ratings.PendingForUser(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if pending == nil {
		pending = []rating.PendingSession{}
	}
	writeJSON(w, http.StatusOK, pending)
}

// SessionSummaryHandler rolls a session's ratings up into per-participant
// averages, the play type distribution, and the MVP.
func (s *Server) SessionSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, err)
		return
	}
	sessionID, err := queryUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	summary, err := s.Ratings.Summary(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
