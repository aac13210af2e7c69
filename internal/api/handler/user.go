package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tradebid/tradebid/internal/api/response"
	"github.com/tradebid/tradebid/internal/store"
	"github.com/tradebid/tradebid/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// UserStore defines the store interface the account handlers depend on.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// NewRegisterHandler returns an http.HandlerFunc for POST /api/v1/users.
func NewRegisterHandler(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Username    string `json:"username"`
			Email       string `json:"email"`
			Password    string `json:"password"`
			AccountType string `json:"account_type"`
			FirstName   string `json:"first_name"`
			LastName    string `json:"last_name"`
			Tel         string `json:"tel"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Username == "" || req.Password == "" || req.Email == "" {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"username, email and password are required", nil)
			return
		}
		accountType := models.AccountType(req.AccountType)
		if accountType == "" {
			accountType = models.AccountClient
		}
		if !models.ValidAccountType(accountType) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"account_type must be client or provider", nil)
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", nil)
			return
		}

		now := time.Now().UTC()
		user := &models.User{
			ID:           uuid.New(),
			Username:     req.Username,
			Email:        req.Email,
			PasswordHash: string(hash),
			AccountType:  accountType,
			FirstName:    req.FirstName,
			LastName:     req.LastName,
			Tel:          req.Tel,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := users.CreateUser(r.Context(), user); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "DUPLICATE_USER",
					"Username or email already taken", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", nil)
			return
		}
		response.Created(w, user)
	}
}

// NewGetUserHandler returns an http.HandlerFunc for GET /api/v1/users/{userID}.
func NewGetUserHandler(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseUserID(w, r)
		if !ok {
			return
		}
		user, err := users.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user", nil)
			return
		}
		response.JSON(w, user)
	}
}

// NewUpdateUserHandler returns an http.HandlerFunc for PATCH /api/v1/users/{userID}.
func NewUpdateUserHandler(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseUserID(w, r)
		if !ok {
			return
		}

		var req struct {
			Email     *string `json:"email"`
			FirstName *string `json:"first_name"`
			LastName  *string `json:"last_name"`
			Tel       *string `json:"tel"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		user, err := users.GetUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user", nil)
			return
		}

		if req.Email != nil {
			user.Email = *req.Email
		}
		if req.FirstName != nil {
			user.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			user.LastName = *req.LastName
		}
		if req.Tel != nil {
			user.Tel = *req.Tel
		}
		user.UpdatedAt = time.Now().UTC()

		if err := users.UpdateUser(r.Context(), user); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "DUPLICATE_USER", "Email already taken", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update user", nil)
			return
		}
		response.JSON(w, user)
	}
}

// NewDeleteUserHandler returns an http.HandlerFunc for DELETE /api/v1/users/{userID}.
func NewDeleteUserHandler(users UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := parseUserID(w, r)
		if !ok {
			return
		}
		if err := users.DeleteUser(r.Context(), userID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
				return
			}
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete user", nil)
			return
		}
		response.JSON(w, map[string]string{"status": "deleted"})
	}
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "userID must be a valid UUID", nil)
		return uuid.Nil, false
	}
	return id, true
}
