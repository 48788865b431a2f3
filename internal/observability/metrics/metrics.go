package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking wizard.
type BookingMetrics struct {
	sessionsCreated  prometheus.Counter
	submissionsTotal *prometheus.CounterVec
	submitLatency    prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		sessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cleanbook",
			Subsystem: "wizard",
			Name:      "sessions_created_total",
			Help:      "Total wizard sessions created",
		}),
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cleanbook",
			Subsystem: "wizard",
			Name:      "submissions_total",
			Help:      "Total booking submission attempts",
		}, []string{"status"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cleanbook",
			Subsystem: "wizard",
			Name:      "submit_latency_seconds",
			Help:      "Latency of the booking submission pipeline",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sessionsCreated, m.submissionsTotal, m.submitLatency)
	return m
}

func (m *BookingMetrics) ObserveSessionCreated() {
	if m == nil {
		return
	}
	m.sessionsCreated.Inc()
}

// ObserveSubmission records one pipeline run. status is "succeeded",
// "failed", or "rejected" (guard refused entry).
func (m *BookingMetrics) ObserveSubmission(status string, seconds float64) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(status).Inc()
	if seconds >= 0 {
		m.submitLatency.Observe(seconds)
	}
}
