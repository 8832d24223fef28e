package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Registrations      *prometheus.CounterVec
	Confirmations      *prometheus.CounterVec
	EmailsSent         *prometheus.CounterVec
	DecryptionFailures prometheus.Counter
	SetupDuration      prometheus.Histogram
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trysite_registrations_total",
			Help: "Registration form submissions by outcome",
		}, []string{"outcome"}),
		Confirmations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trysite_confirmations_total",
			Help: "Confirmation link visits by outcome",
		}, []string{"outcome"}),
		EmailsSent: f.NewCounterVec(prometheus.CounterOpts{
			Name: "trysite_emails_sent_total",
			Help: "Confirmation emails by send result",
		}, []string{"result"}),
		DecryptionFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "trysite_decryption_failures_total",
			Help: "Confirmation passwords that failed to decrypt",
		}),
		SetupDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "trysite_setup_duration_seconds",
			Help:    "Duration of setup engine runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}
}

func (m *Metrics) IncrementRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementConfirmation(outcome string) {
	m.Confirmations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncrementEmail(result string) {
	m.EmailsSent.WithLabelValues(result).Inc()
}

func (m *Metrics) IncrementDecryptionFailure() {
	m.DecryptionFailures.Inc()
}

func (m *Metrics) ObserveSetup(start time.Time) {
	m.SetupDuration.Observe(time.Since(start).Seconds())
}
