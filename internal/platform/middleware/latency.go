package middleware

import (
	"net/http"
	"strconv"
	"time"

	"hearth/internal/platform/metrics"
)

// Latency records request duration into the Prometheus histogram.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			m.ObserveRequest(r.Method, strconv.Itoa(rec.status), time.Since(start))
		})
	}
}
