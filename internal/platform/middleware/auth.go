package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"hearth/pkg/domain"
)

// JWTValidator defines the interface for validating JWT tokens. Credential
// issuance lives outside this service; only validation happens here.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID domain.UserID
}

type contextKeyUserID struct{}

// ContextKeyUserID is exported for use in handlers and tests.
var ContextKeyUserID = contextKeyUserID{}

// GetUserID retrieves the authenticated user ID from the context.
func GetUserID(ctx context.Context) domain.UserID {
	userID, ok := ctx.Value(ContextKeyUserID).(domain.UserID)
	if !ok {
		return domain.UserID{}
	}
	return userID
}

// WithUserID injects a user ID into the context. Exposed for the websocket
// handler and tests, which bypass the HTTP middleware chain.
func WithUserID(ctx context.Context, userID domain.UserID) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

func unauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}

// RequireAuth validates the bearer token and stores the caller identity in
// context. Every workflow receives the caller explicitly from there; no
// ambient thread-local state.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				unauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				unauthorized(w, "Invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(ctx, claims.UserID)))
		})
	}
}
