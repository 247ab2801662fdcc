package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pitchrate/pitchrate/internal/auth"
	"github.com/pitchrate/pitchrate/internal/models"
	"github.com/pitchrate/pitchrate/internal/store"
)

type createUserRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Location    string `json:"location"`
	Bio         string `json:"bio"`
}

// CreateUserHandler registers a new user at onboarding.
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" || req.Username == "" {
		http.Error(w, "email, password and username are required", http.StatusBadRequest)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.Logger.WithError(err).Error("failed to hash password")
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}

	user := models.User{
		Email:       req.Email,
		Password:    hash,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Location:    req.Location,
		Bio:         req.Bio,
	}
	if user.DisplayName == "" {
		user.DisplayName = req.Username
	}

	if err := s.Store.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			http.Error(w, "email already exists", http.StatusConflict)
			return
		}
		s.Logger.WithError(err).Error("failed to create user")
		http.Error(w, "error creating user", http.StatusInternalServerError)
		return
	}

	user.Password = ""
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// LoginHandler authenticates email+password and sets the auth_token cookie.
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request payload", http.StatusBadRequest)
		return
	}

	user, err := s.Store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}
	match, err := auth.VerifyPassword(req.Password, user.Password)
	if err != nil || !match {
		http.Error(w, "authentication failed", http.StatusForbidden)
		return
	}

	token, err := auth.IssueToken(user.ID)
	if err != nil {
		s.Logger.WithError(err).Error("failed to issue token")
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "auth_token",
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   auth.TokenTTLSeconds(),
	})
	writeJSON(w, http.StatusOK, loginResponse{Token: token})
}

// ProfileHandler returns a user's public profile. ?id= defaults to the
// authenticated caller.
func (s *Server) ProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if raw := r.URL.Query().Get("id"); raw != "" {
		if userID, err = queryUUID(r, "id"); err != nil {
			http.Error(w, "invalid user id", http.StatusBadRequest)
			return
		}
	}

	user, err := s.Store.UserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

type updateProfileRequest struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Location    string `json:"location"`
}

// UpdateProfileHandler edits the caller's non-derived profile fields.
func (s *Server) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := requireUser(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	user, err := s.Store.UserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.DisplayName != "" {
		user.DisplayName = req.DisplayName
	}
	user.Bio = req.Bio
	user.Location = req.Location

	if err := s.Store.UpdateUserProfile(r.Context(), user); err != nil {
		writeError(w, err)
		return
	}
	user.Password = ""
	writeJSON(w, http.StatusOK, user)
}

type userStatsResponse struct {
	UserID               string                  `json:"user_id"`
	OverallRating        float64                 `json:"overall_rating"`
	PlayTypeDistribution map[models.PlayType]int `json:"play_type_distribution"`
	TotalSessionsPlayed  int                     `json:"total_sessions_played"`
	TotalRatingsGiven    int                     `json:"total_ratings_given"`
	TotalRatingsReceived int                     `json:"total_ratings_received"`
}

// UserStatsHandler returns the aggregate reputation for a user.
func (s *Server) UserStatsHandler(w http.ResponseWriter, r *http.Request) {
	if _, err := requireUser(r); err != nil {
		writeError(w, err)
		return
	}
	userID, err := queryUUID(r, "id")
	if err != nil {
		http.Error(w, "invalid user id", http.StatusBadRequest)
		return
	}

	user, err := s.Store.UserByID(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userStatsResponse{
		UserID:               user.ID.String(),
		OverallRating:        user.CurrentOverallRating,
		PlayTypeDistribution: user.PlayTypeDistribution,
		TotalSessionsPlayed:  user.TotalSessionsPlayed,
		TotalRatingsGiven:    user.TotalRatingsGiven,
		TotalRatingsReceived: user.TotalRatingsReceived,
	})
}
