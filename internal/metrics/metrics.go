package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// LeadMetrics exposes counters/histograms for the lead intake flow.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	sinkFailures     prometheus.Counter
	requestDuration  *prometheus.HistogramVec
}

// NewLeadMetrics registers the collectors on reg, or on the default registerer when reg is nil.
func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "leads",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Lead submissions by outcome",
		}, []string{"outcome"}),
		sinkFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "leads",
			Subsystem: "intake",
			Name:      "sink_failures_total",
			Help:      "Lead records the recording sink failed to write",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "leads",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route and status",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.sinkFailures, m.requestDuration)
	return m
}

// ObserveSubmission counts one submission by outcome.
func (m *LeadMetrics) ObserveSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveSinkFailure counts a lead record that could not be written.
func (m *LeadMetrics) ObserveSinkFailure() {
	if m == nil {
		return
	}
	m.sinkFailures.Inc()
}

// ObserveRequest records the latency of one HTTP request.
func (m *LeadMetrics) ObserveRequest(method, route string, status int, seconds float64) {
	if m == nil {
		return
	}
	m.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(seconds)
}
