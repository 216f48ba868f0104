// Package metrics provides Prometheus metrics for moderation triage,
// eligibility matching and the HTTP surface.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
)

// Metrics holds every collector the service exports. It implements
// application.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	reviewsEvaluated  prometheus.Counter
	reviewFlags       *prometheus.CounterVec
	eligibilityChecks *prometheus.CounterVec
	collegesMatched   *prometheus.CounterVec
	collegesEvaluated *prometheus.CounterVec

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them on registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) initMetrics() {
	m.reviewsEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collegedesk_reviews_evaluated_total",
			Help: "Total number of reviews run through spam flag evaluation",
		},
	)

	m.reviewFlags = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegedesk_review_flags_total",
			Help: "Total number of spam flags raised, by flag label",
		},
		[]string{"flag"},
	)

	m.eligibilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegedesk_eligibility_checks_total",
			Help: "Total number of eligibility searches, by exam slug",
		},
		[]string{"exam"},
	)

	m.collegesEvaluated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegedesk_eligibility_colleges_evaluated_total",
			Help: "Total number of colleges checked against a score, by exam slug",
		},
		[]string{"exam"},
	)

	m.collegesMatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collegedesk_eligibility_colleges_matched_total",
			Help: "Total number of colleges a score qualified for, by exam slug",
		},
		[]string{"exam"},
	)

	m.httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	m.httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Time taken for HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.reviewsEvaluated,
		m.reviewFlags,
		m.eligibilityChecks,
		m.collegesEvaluated,
		m.collegesMatched,
		m.httpRequestsTotal,
		m.httpRequestDuration,
	}
}

// Describe implements the Collector interface
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements the Collector interface
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// Registry returns the registry the metrics were registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFlags counts one evaluated review and each flag raised for it.
func (m *Metrics) RecordFlags(flags []model.Flag) {
	m.reviewsEvaluated.Inc()
	for _, f := range flags {
		m.reviewFlags.WithLabelValues(string(f)).Inc()
	}
}

// otherExam labels searches for exams outside the catalog.
const otherExam = "other"

// RecordEligibility counts one eligibility search over total colleges. Exams
// outside the catalog share the "other" label.
func (m *Metrics) RecordEligibility(exam string, eligible, total int) {
	if e, ok := model.LookupExam(exam); ok {
		exam = e.Slug
	} else {
		exam = otherExam
	}
	m.eligibilityChecks.WithLabelValues(exam).Inc()
	m.collegesEvaluated.WithLabelValues(exam).Add(float64(total))
	m.collegesMatched.WithLabelValues(exam).Add(float64(eligible))
}

// RecordHTTPRequest records a served request. route is the matched mux
// pattern, never the raw path.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	m.httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
