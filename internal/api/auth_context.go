package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/templatedir/templatedir-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	// userIDKey is the context key for the authenticated user ID.
	userIDKey ctxKey = "userID"
	// sessionIDKey is the context key for the session the token belongs to.
	sessionIDKey ctxKey = "sessionID"
)

// GetUserID returns the authenticated user ID from context.
// Returns 401 error if user is not authenticated.
func GetUserID(ctx context.Context) (string, error) {
	userID := OptionalUserID(ctx)
	if userID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return userID, nil
}

// OptionalUserID returns the authenticated user ID, or "" for anonymous
// requests.
func OptionalUserID(ctx context.Context) string {
	userID, _ := ctx.Value(userIDKey).(string)
	return userID
}

// GetSessionID returns the session of the access token used for the request.
func GetSessionID(ctx context.Context) (string, error) {
	sessionID, ok := ctx.Value(sessionIDKey).(string)
	if !ok || sessionID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return sessionID, nil
}

func setAuth(ctx context.Context, userID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores user ID in context.
// If no token is present or invalid, continues without user in context.
// Handlers use GetUserID to check authentication.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, claims, err := auth.VerifyAccessToken(r.Context(), token)
			if err != nil {
				// Invalid token - continue without user (handler will reject if auth required)
				next.ServeHTTP(w, r)
				return
			}

			ctx := setAuth(r.Context(), user.ID, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
