package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tradebid/tradebid/internal/api/response"
)

// Sessions resolves opaque login tokens to user ids.
type Sessions interface {
	GetSession(ctx context.Context, token string) (uuid.UUID, bool, error)
	SetSession(ctx context.Context, token string, userID uuid.UUID, ttl time.Duration) error
	DeleteSession(ctx context.Context, token string) error
}

// Auth provides session-token authentication middleware.
type Auth struct {
	sessions Sessions
}

// NewAuth creates a new Auth middleware.
func NewAuth(sessions Sessions) *Auth {
	return &Auth{sessions: sessions}
}

// Authenticate validates the Bearer token against the session store and
// sets the caller's user id and token in the request context.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		userID, ok, err := a.sessions.GetSession(r.Context(), token)
		if err != nil {
			response.Error(w, http.StatusInternalServerError,
				"INTERNAL_ERROR", "Failed to validate session", nil)
			return
		}
		if !ok {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Session expired or unknown", nil)
			return
		}

		ctx := SetUserID(r.Context(), userID)
		ctx = setSessionToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractBearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
