package middleware

import (
	"net/http"
	"strings"

	dErrors "hearth/pkg/domain-errors"
	"hearth/pkg/platform/httputil"
)

// ContentTypeJSON rejects request bodies that are not JSON. Bodyless posts
// (the notification list endpoint keeps its legacy POST-with-no-body shape)
// pass through untouched.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if !strings.HasPrefix(ct, "application/json") {
				httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Content-Type must be application/json"))
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
