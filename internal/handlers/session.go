package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/pitchrate/pitchrate/internal/invite"
	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/session"
)

// CreateSessionHandler registers a new session organized by the caller.
func (s *Server) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var in session.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	sess, err := s.Sessions.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

// GetSessionHandler fetches one session by ?id=.
func (s *Server) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, err)
		return
	}
	id, err := queryUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	sess, err := s.Sessions.ByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// SessionByCodeHandler resolves an invite code (?code=) to its session.
func (s *Server) SessionByCodeHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, err)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("code")))
	if code == "" {
		http.Error(w, "code is required", http.StatusBadRequest)
		return
	}

	sess, err := s.Sessions.ByCode(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

type inviteResponse struct {
	Payload invite.Payload `json:"payload"`
	Encoded string         `json:"encoded"`
}

// SessionInviteHandler issues the QR payload for a session, both structured
// and as the JSON string a QR encoder renders.
func (s *Server) SessionInviteHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, err)
		return
	}
	id, err := queryUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid session id", http.StatusBadRequest)
		return
	}

	payload, err := s.Sessions.InvitePayload(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	encoded, err := invite.Encode(payload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inviteResponse{Payload: payload, Encoded: encoded})
}

type scanRequest struct {
	Data string `json:"data"`
	Join bool   `json:"join"`
}

type scanResponse struct {
	Session *models.Session `json:"session"`
	Joined  bool            `json:"joined"`
}

// ScanInviteHandler decodes scanned QR data, resolves the session, and joins
// the caller when join is set.
func (s *Server) ScanInviteHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req scanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	payload, err := invite.Decode(req.Data, 0)
	if err != nil {
		writeError(w, err)
		return
	}

	sess, err := s.Sessions.ByID(r.Context(), payload.SessionID)
	if err != nil {
		writeError(w, err)
		return
	}
	if sess.Code != payload.SessionCode {
		writeError(w, invite.ErrInvalidPayload)
		return
	}

	resp := scanResponse{Session: sess}
	if req.Join {
		if err := s.Sessions.Join(r.Context(), sess.ID, userID); err != nil {
			writeError(w, err)
			return
		}
		resp.Joined = true
		resp.Session, err = s.Sessions.ByID(r.Context(), sess.ID)
		if err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// UpdateSessionHandler rewrites a session's editable details (organizer only).
func (s *Server) UpdateSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		SessionID uuid.UUID `json:"session_id"`
		session.UpdateInput
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.SessionID == uuid.Nil {
		http.Error(w, "session_id is required", http.StatusBadRequest)
		return
	}

	sess, err := s.Sessions.Update(r.Context(), req.SessionID, userID, req.UpdateInput)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// sessionTransition handles the shared decode/auth shape of the organizer
// status transitions and the self-service join/leave calls.
func (s *Server) sessionTransition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, sessionID, actorID uuid.UUID) error) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		SessionID uuid.UUID `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == uuid.Nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := op(r.Context(), req.SessionID, userID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CloseSessionHandler marks a session completed, opening it for ratings.
func (s *Server) CloseSessionHandler(w http.ResponseWriter, r *http.Request) {
	s.sessionTransition(w, r, s.Sessions.Close)
}

// CancelSessionHandler marks a session cancelled.
func (s *Server) CancelSessionHandler(w http.ResponseWriter, r *http.Request) {
	s.sessionTransition(w, r, s.Sessions.Cancel)
}

// JoinSessionHandler adds the caller to a session.
func (s *Server) JoinSessionHandler(w http.ResponseWriter, r *http.Request) {
	s.sessionTransition(w, r, s.Sessions.Join)
}

// LeaveSessionHandler removes the caller from a session.
func (s *Server) LeaveSessionHandler(w http.ResponseWriter, r *http.Request) {
	s.sessionTransition(w, r, s.Sessions.Leave)
}

// RemoveParticipantHandler ejects a participant (organizer only).
func (s *Server) RemoveParticipantHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req struct {
		SessionID uuid.UUID `json:"session_id"`
		UserID    uuid.UUID `json:"user_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == uuid.Nil || req.UserID == uuid.Nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	if err := s.Sessions.Remove(r.Context(), req.SessionID, userID, req.UserID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// queryLimit parses ?limit= with a default of 50.
func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return 50
	}
	return limit
}

// ListSessionsHandler lists upcoming sessions, optionally filtered by a
// ?q= title/location substring.
func (s *Server) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, err)
		return
	}

	var (
		sessions []models.Session
		err      error
	)
	if q := strings.TrimSpace(r.URL.Query().Get("q")); q != "" {
		sessions, err = s.Sessions.Search(r.Context(), q, queryLimit(r))
	} else {
		sessions, err = s.Sessions.ListUpcoming(r.Context(), queryLimit(r))
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// MySessionsHandler lists sessions the caller organizes, newest first.
func (s *Server) MySessionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	sessions, err := s.Sessions.ForOrganizer(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// JoinedSessionsHandler lists sessions the caller participates in, optionally
// filtered by ?status=.
func (s *Server) JoinedSessionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	status := models.SessionStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	sessions, err := s.Sessions.ForParticipant(r.Context(), userID, status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}
