package testutil

import (
	"net/http"

	"hearth/internal/platform/middleware"
	"hearth/pkg/domain"
)

// WithUserID adds a user ID to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithUserID(req *http.Request, userID domain.UserID) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}
