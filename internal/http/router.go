// Package http assembles the service's HTTP surface: middleware chain,
// domain handlers, websocket upgrade, health, and metrics.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	householdhandler "hearth/internal/household/handler"
	membershiphandler "hearth/internal/membership/handler"
	notificationhandler "hearth/internal/notification/handler"
	"hearth/internal/platform/metrics"
	"hearth/internal/platform/middleware"
	"hearth/internal/realtime"
)

const requestTimeout = 15 * time.Second

// Deps collects everything the router mounts.
type Deps struct {
	Households    *householdhandler.Handler
	Memberships   *membershiphandler.Handler
	Notifications *notificationhandler.Handler
	Websocket     *realtime.Handler
	Validator     middleware.JWTValidator
	Metrics       *metrics.Metrics
	Logger        *slog.Logger
}

// NewRouter wires the middleware chain and mounts all routes. Everything
// except /healthz and /metrics requires a valid bearer token.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		r.Method(http.MethodGet, "/ws", deps.Websocket)

		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			deps.Households.Register(r)
			deps.Memberships.Register(r)
			deps.Notifications.Register(r)
		})
	})

	return r
}
