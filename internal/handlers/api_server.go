// Package handlers exposes the HTTP surface over the session and rating
// services. Transport concerns stop here; all domain rules live in the
// service packages.
package handlers

import (
	"net/http"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pitchrate/pitchrate/internal/rating"
	"github.com/pitchrate/pitchrate/internal/session"
	"github.com/pitchrate/pitchrate/internal/store"
)

// Server bundles the services the handlers dispatch to.
type Server struct {
	Store    store.Store
	Sessions *session.Service
	Ratings  *rating.Engine
	Logger   *logrus.Logger

	// Redis and EventChannel feed the live websocket bridge; both may be
	// left zero when no redis is configured, which disables /events/ws.
	Redis        *redis.Client
	EventChannel string
}

// NewServer builds a Server around the given collaborators.
func NewServer(st store.Store, sessions *session.Service, ratings *rating.Engine, logger *logrus.Logger) *Server {
	if logger == nil {
		logger = logrus.New()
	}
	return &Server{Store: st, Sessions: sessions, Ratings: ratings, Logger: logger}
}

// Routes registers every endpoint on a fresh mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("/user/create", s.CreateUserHandler)
	mux.HandleFunc("/user/login", s.LoginHandler)
	mux.HandleFunc("/user/profile", s.ProfileHandler)
	mux.HandleFunc("/user/profile/update", s.UpdateProfileHandler)
	mux.HandleFunc("/user/stats", s.UserStatsHandler)

	// session endpoints
	mux.HandleFunc("/session/create", s.CreateSessionHandler)
	mux.HandleFunc("/session/get", s.GetSessionHandler)
	mux.HandleFunc("/session/code", s.SessionByCodeHandler)
	mux.HandleFunc("/session/invite", s.SessionInviteHandler)
	mux.HandleFunc("/session/scan", s.ScanInviteHandler)
	mux.HandleFunc("/session/update", s.UpdateSessionHandler)
	mux.HandleFunc("/session/close", s.CloseSessionHandler)
	mux.HandleFunc("/session/cancel", s.CancelSessionHandler)
	mux.HandleFunc("/session/join", s.JoinSessionHandler)
	mux.HandleFunc("/session/leave", s.LeaveSessionHandler)
	mux.HandleFunc("/session/remove", s.RemoveParticipantHandler)
	mux.HandleFunc("/session/list", s.ListSessionsHandler)
	mux.HandleFunc("/session/mine", s.MySessionsHandler)
	mux.HandleFunc("/session/joined", s.JoinedSessionsHandler)

	// rating endpoints
	mux.HandleFunc("/rating/submit", s.SubmitRatingHandler)
	mux.HandleFunc("/rating/delete", s.DeleteRatingHandler)
	mux.HandleFunc("/rating/session", s.SessionRatingsHandler)
	mux.HandleFunc("/rating/received", s.ReceivedRatingsHandler)
	mux.HandleFunc("/rating/given", s.GivenRatingsHandler)
	mux.HandleFunc("/rating/pending", s.PendingRatingsHandler)
	mux.HandleFunc("/rating/summary", s.SessionSummaryHandler)

	// live updates
	mux.HandleFunc("/events/ws", s.LiveEventsHandler)

	return mux
}
