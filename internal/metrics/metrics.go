package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rejection reasons for registration attempts.
const (
	ReasonConflict = "conflict"
	ReasonFull     = "full"
	ReasonDeadline = "deadline"
	ReasonInvalid  = "invalid"
)

// Metrics provides observability for the signup workflow. A nil *Metrics is a no-op.
type Metrics struct {
	RegistrationsCreated  prometheus.Counter
	RegistrationsRejected *prometheus.CounterVec

	// Notification outbox: queued at commit, then sent or failed by the worker
	Notifications *prometheus.CounterVec

	HTTPDuration *prometheus.HistogramVec
}

// New registers all metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RegistrationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "eventdesk_registrations_created_total",
			Help: "Total registrations accepted",
		}),
		RegistrationsRejected: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdesk_registrations_rejected_total",
			Help: "Total registrations rejected by reason",
		}, []string{"reason"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "eventdesk_notifications_total",
			Help: "Notifications by kind and outcome",
		}, []string{"kind", "outcome"}), // outcome: queued, sent, failed
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "eventdesk_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
	}
}

// RegistrationCreated counts an accepted registration.
func (m *Metrics) RegistrationCreated() {
	if m != nil {
		m.RegistrationsCreated.Inc()
	}
}

// RegistrationRejected counts a rejected registration.
func (m *Metrics) RegistrationRejected(reason string) {
	if m != nil {
		m.RegistrationsRejected.WithLabelValues(reason).Inc()
	}
}

// Notification counts a notification outcome.
func (m *Metrics) Notification(kind, outcome string) {
	if m != nil {
		m.Notifications.WithLabelValues(kind, outcome).Inc()
	}
}

// ObserveHTTP records one request.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m != nil {
		m.HTTPDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}
