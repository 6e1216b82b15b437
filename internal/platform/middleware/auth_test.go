package middleware_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hearth/internal/platform/middleware"
	"hearth/pkg/domain"
)

const signingKey = "test-signing-key"

func signedToken(t *testing.T, subject string, key string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(key))
	require.NoError(t, err)
	return signed
}

func protectedHandler(captured *domain.UserID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = middleware.GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireAuth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	validator := middleware.NewHS256Validator(signingKey)

	t.Run("valid token passes the user id through", func(t *testing.T) {
		userID := domain.NewUserID()
		var captured domain.UserID
		handler := middleware.RequireAuth(validator, logger)(protectedHandler(&captured))

		req := httptest.NewRequest(http.MethodGet, "/households", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, userID.String(), signingKey))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, userID, captured)
	})

	t.Run("missing header", func(t *testing.T) {
		var captured domain.UserID
		handler := middleware.RequireAuth(validator, logger)(protectedHandler(&captured))

		req := httptest.NewRequest(http.MethodGet, "/households", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.True(t, captured.IsZero())
	})

	t.Run("token signed with the wrong key", func(t *testing.T) {
		var captured domain.UserID
		handler := middleware.RequireAuth(validator, logger)(protectedHandler(&captured))

		req := httptest.NewRequest(http.MethodGet, "/households", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, domain.NewUserID().String(), "other-key"))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("subject that is not a user id", func(t *testing.T) {
		var captured domain.UserID
		handler := middleware.RequireAuth(validator, logger)(protectedHandler(&captured))

		req := httptest.NewRequest(http.MethodGet, "/households", nil)
		req.Header.Set("Authorization", "Bearer "+signedToken(t, "not-a-uuid", signingKey))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("expired token", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": domain.NewUserID().String(),
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		signed, err := token.SignedString([]byte(signingKey))
		require.NoError(t, err)

		var captured domain.UserID
		handler := middleware.RequireAuth(validator, logger)(protectedHandler(&captured))
		req := httptest.NewRequest(http.MethodGet, "/households", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
