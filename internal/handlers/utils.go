package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/pitchrate/pitchrate/internal/auth"
	"github.com/pitchrate/pitchrate/internal/invite"
	"github.com/pitchrate/pitchrate/internal/rating"
	"github.com/pitchrate/pitchrate/internal/session"
	"github.com/pitchrate/pitchrate/internal/store"
)

// extractCookieToken pulls a named cookie value from the Cookie header, or
// returns empty if not present.
func extractCookieToken(cookieHeader, cookieName string) string {
	parts := strings.Split(cookieHeader, cookieName+"=")
	if len(parts) < 2 {
		return ""
	}
	token := parts[1]
	if idx := strings.Index(token, ";"); idx != -1 {
		token = token[:idx]
	}
	return token
}

// requireUser resolves the authenticated user from the auth_token cookie.
func requireUser(r *http.Request) (uuid.UUID, error) {
	token := extractCookieToken(r.Header.Get("Cookie"), "auth_token")
	if token == "" {
		return uuid.Nil, auth.ErrUnauthorized
	}
	return auth.VerifyToken(token)
}

// queryUUID parses a UUID query parameter.
func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(r.URL.Query().Get(name))
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps domain sentinels onto HTTP statuses. Eligibility and
// state-machine conflicts share 409; expired grace windows and stale invite
// payloads get 410.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrUnauthorized):
		status = http.StatusUnauthorized
	case errors.Is(err, session.ErrForbidden), errors.Is(err, rating.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrValidation),
		errors.Is(err, rating.ErrInvalidScore),
		errors.Is(err, rating.ErrInvalidComment),
		errors.Is(err, rating.ErrInvalidPlayType),
		errors.Is(err, invite.ErrInvalidPayload):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrSessionFull),
		errors.Is(err, session.ErrSessionClosed),
		errors.Is(err, session.ErrAlreadyJoined),
		errors.Is(err, session.ErrNotAParticipant),
		errors.Is(err, session.ErrCapacityViolation),
		errors.Is(err, session.ErrInvalidTransition),
		errors.Is(err, rating.ErrSelfRating),
		errors.Is(err, rating.ErrSessionNotCompleted),
		errors.Is(err, rating.ErrInvalidRatee),
		errors.Is(err, rating.ErrDuplicateRating):
		status = http.StatusConflict
	case errors.Is(err, rating.ErrDeleteExpired), errors.Is(err, invite.ErrExpired):
		status = http.StatusGone
	}

	writeJSON(w, status, map[string]string{"error": err.Error()})
}
