package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	HTTPRequestDuration *prometheus.HistogramVec

	HouseholdsCreated      prometheus.Counter
	MembershipJoins        prometheus.Counter
	NotificationsPersisted prometheus.Counter
	DispatchesSent         *prometheus.CounterVec
	DispatchFailures       *prometheus.CounterVec
	IncidentAlertsSent     prometheus.Counter
}

// New creates and registers all metrics against reg. main passes
// prometheus.DefaultRegisterer; tests pass a fresh registry so repeated
// construction doesn't panic on duplicate registration.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hearth_http_request_duration_seconds",
			Help:    "HTTP request latency by method and status class",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
		HouseholdsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearth_households_created_total",
			Help: "Total number of households created",
		}),
		MembershipJoins: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearth_membership_joins_total",
			Help: "Total number of users joining a household",
		}),
		NotificationsPersisted: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearth_notifications_persisted_total",
			Help: "Total number of notification records written",
		}),
		DispatchesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_dispatches_sent_total",
			Help: "Real-time dispatches by channel",
		}, []string{"channel"}),
		DispatchFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "hearth_dispatch_failures_total",
			Help: "Real-time dispatch failures by channel",
		}, []string{"channel"}),
		IncidentAlertsSent: factory.NewCounter(prometheus.CounterOpts{
			Name: "hearth_incident_alerts_sent_total",
			Help: "Total number of geo-targeted incident notifications sent",
		}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(method, status string, d time.Duration) {
	m.HTTPRequestDuration.WithLabelValues(method, status).Observe(d.Seconds())
}
