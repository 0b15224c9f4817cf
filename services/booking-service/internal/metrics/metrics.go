package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors, curried with the service name.
type Metrics struct {
	HTTPRequestsTotal          *prometheus.CounterVec
	HTTPRequestDurationSeconds prometheus.ObserverVec
	AuthRegistrationsTotal     *prometheus.CounterVec
	AuthLoginsTotal            *prometheus.CounterVec
	VerificationCodesTotal     *prometheus.CounterVec
	BookingsTotal              *prometheus.CounterVec
	CancellationsTotal         *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer, serviceName string) *Metrics {
	factory := promauto.With(reg)
	labels := prometheus.Labels{"service": serviceName}

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"service", "method", "path", "status"},
		).MustCurryWith(labels),

		HTTPRequestDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "method", "path"},
		).MustCurryWith(labels),

		AuthRegistrationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_registrations_total",
				Help: "Total number of registration attempts.",
			},
			[]string{"service", "result"},
		).MustCurryWith(labels),

		AuthLoginsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_logins_total",
				Help: "Total number of login attempts.",
			},
			[]string{"service", "method", "result"},
		).MustCurryWith(labels),

		VerificationCodesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_verification_codes_total",
				Help: "Total number of verification codes issued or checked.",
			},
			[]string{"service", "flow", "result"},
		).MustCurryWith(labels),

		BookingsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointments_booked_total",
				Help: "Total number of booking attempts.",
			},
			[]string{"service", "result"},
		).MustCurryWith(labels),

		CancellationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "appointments_cancelled_total",
				Help: "Total number of cancellation attempts.",
			},
			[]string{"service", "result"},
		).MustCurryWith(labels),
	}
}
