// Package metrics exposes Prometheus counters for the agent: service
// round-trips, job lifecycle outcomes, exports and local API traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "clipcraft"

	// Labels
	endpointLabel  = "endpoint"
	codeLabel      = "code"
	stateLabel     = "state"
	outcomeLabel   = "outcome"
	operationLabel = "operation"
)

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDropped = "dropped"
)

// Metrics owns a private registry so tests and multiple agents in one
// process never collide on the default registerer. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	serviceRequests *prometheus.CounterVec
	serviceLatency  *prometheus.HistogramVec
	jobsSubmitted   *prometheus.CounterVec
	polls           *prometheus.CounterVec
	jobsTerminal    *prometheus.CounterVec
	exports         *prometheus.CounterVec
	linksOpened     prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		serviceRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "service_requests_total",
				Help:      "number of requests to the processing service partitioned by endpoint and status code",
			},
			[]string{endpointLabel, codeLabel},
		),
		serviceLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "service_request_duration_seconds",
				Help:      "latency of requests to the processing service",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{endpointLabel},
		),
		jobsSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_submitted_total",
				Help:      "number of job submissions partitioned by outcome",
			},
			[]string{outcomeLabel},
		),
		polls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "job_polls_total",
				Help:      "number of status polls partitioned by outcome",
			},
			[]string{outcomeLabel},
		),
		jobsTerminal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "jobs_terminal_total",
				Help:      "number of jobs reaching a terminal state",
			},
			[]string{stateLabel},
		),
		exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_total",
				Help:      "number of export operations partitioned by operation and outcome",
			},
			[]string{operationLabel, outcomeLabel},
		),
		linksOpened: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "links_opened_total",
				Help:      "number of external links opened",
			},
		),
	}

	m.registry.MustRegister(
		m.serviceRequests,
		m.serviceLatency,
		m.jobsSubmitted,
		m.polls,
		m.jobsTerminal,
		m.exports,
		m.linksOpened,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry backing m, for additional collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRequest records one service round-trip. code 0 means the request
// never got a response.
func (m *Metrics) ObserveRequest(endpoint string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.serviceRequests.With(prometheus.Labels{endpointLabel: endpoint, codeLabel: strconv.Itoa(code)}).Inc()
	m.serviceLatency.With(prometheus.Labels{endpointLabel: endpoint}).Observe(elapsed.Seconds())
}

func (m *Metrics) JobSubmitted(outcome string) {
	if m == nil {
		return
	}
	m.jobsSubmitted.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func (m *Metrics) Poll(outcome string) {
	if m == nil {
		return
	}
	m.polls.With(prometheus.Labels{outcomeLabel: outcome}).Inc()
}

func (m *Metrics) JobTerminal(state string) {
	if m == nil {
		return
	}
	m.jobsTerminal.With(prometheus.Labels{stateLabel: state}).Inc()
}

func (m *Metrics) Export(operation, outcome string) {
	if m == nil {
		return
	}
	m.exports.With(prometheus.Labels{operationLabel: operation, outcomeLabel: outcome}).Inc()
}

func (m *Metrics) LinkOpened() {
	if m == nil {
		return
	}
	m.linksOpened.Inc()
}
