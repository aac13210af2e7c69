package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	mw "github.com/tradebid/tradebid/internal/api/middleware"
	"github.com/tradebid/tradebid/internal/api/response"
	"github.com/tradebid/tradebid/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// NewLoginHandler returns an http.HandlerFunc for POST /api/v1/auth/login.
// On success it issues an opaque session token the client presents as a
// Bearer token on subsequent requests.
func NewLoginHandler(users UserStore, sessions mw.Sessions, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Username == "" || req.Password == "" {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"username and password are required", nil)
			return
		}

		user, err := users.GetUserByUsername(r.Context(), req.Username)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS",
					"Unknown username or wrong password", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log in", nil)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS",
				"Unknown username or wrong password", nil)
			return
		}

		token := uuid.NewString()
		if err := sessions.SetSession(r.Context(), token, user.ID, ttl); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create session", nil)
			return
		}

		response.JSON(w, map[string]any{
			"token": token,
			"user":  user,
		})
	}
}

// NewLogoutHandler returns an http.HandlerFunc for POST /api/v1/auth/logout.
// Requires authentication; revokes the presented session token.
func NewLogoutHandler(sessions mw.Sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := mw.GetSessionToken(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}
		if err := sessions.DeleteSession(r.Context(), token); err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to log out", nil)
			return
		}
		response.JSON(w, map[string]string{"status": "logged_out"})
	}
}
