package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const (
	userIDKey       contextKey = "user_id"
	sessionTokenKey contextKey = "session_token"
)

func SetUserID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

func GetUserID(r *http.Request) (uuid.UUID, bool) {
	id, ok := r.Context().Value(userIDKey).(uuid.UUID)
	return id, ok
}

func setSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, sessionTokenKey, token)
}

// GetSessionToken returns the raw session token the caller authenticated
// with, so logout can revoke it.
func GetSessionToken(r *http.Request) (string, bool) {
	token, ok := r.Context().Value(sessionTokenKey).(string)
	return token, ok
}
