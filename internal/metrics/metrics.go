package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Report completeness labels for chartwise_reports_computed_total.
const (
	ReportComplete = "complete"
	ReportPartial  = "partial"
	ReportAbsent   = "absent"
)

// Registry holds all Prometheus metrics. Business recorders are no-ops on a
// nil *Registry so callers can run without metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Business metrics
	reportsComputed  *prometheus.CounterVec
	indicatorAbsent  *prometheus.CounterVec
	reportDuration   prometheus.Histogram
	analysisDuration prometheus.Histogram
	signalsGenerated *prometheus.CounterVec
	decisionsMade    *prometheus.CounterVec
	fetchErrors      *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Business metrics
	r.reportsComputed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartwise_reports_computed_total",
			Help: "Indicator reports computed, by completeness",
		},
		[]string{"status"},
	)
	r.indicatorAbsent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartwise_indicator_absent_total",
			Help: "Sub-reports left absent for lack of history",
		},
		[]string{"indicator"},
	)
	r.reportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chartwise_report_duration_seconds",
			Help:    "Indicator report computation time in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1},
		},
	)
	r.analysisDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chartwise_analysis_duration_seconds",
			Help:    "End-to-end per-ticker analysis time in seconds",
			Buckets: []float64{.1, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)
	r.signalsGenerated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartwise_signals_generated_total",
			Help: "Total number of signals generated",
		},
		[]string{"agent", "signal"},
	)
	r.decisionsMade = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartwise_decisions_total",
			Help: "Trade decisions made, by action and source",
		},
		[]string{"action", "source"},
	)
	r.fetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chartwise_fetch_errors_total",
			Help: "Price history fetch failures",
		},
		[]string{"collector"},
	)

	reg.MustRegister(r.reportsComputed)
	reg.MustRegister(r.indicatorAbsent)
	reg.MustRegister(r.reportDuration)
	reg.MustRegister(r.analysisDuration)
	reg.MustRegister(r.signalsGenerated)
	reg.MustRegister(r.decisionsMade)
	reg.MustRegister(r.fetchErrors)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordReport records one report computation. absent lists the sub-reports
// that lacked history; total is the number of sub-reports in a report.
func (r *Registry) RecordReport(absent []string, total int, duration float64) {
	if r == nil {
		return
	}

	status := ReportPartial
	switch len(absent) {
	case 0:
		status = ReportComplete
	case total:
		status = ReportAbsent
	}
	r.reportsComputed.WithLabelValues(status).Inc()
	r.reportDuration.Observe(duration)

	for _, name := range absent {
		r.indicatorAbsent.WithLabelValues(name).Inc()
	}
}

// RecordAnalysis records a completed per-ticker analysis.
func (r *Registry) RecordAnalysis(duration float64) {
	if r == nil {
		return
	}
	r.analysisDuration.Observe(duration)
}

// RecordSignal records a generated signal.
func (r *Registry) RecordSignal(agent, signal string) {
	if r == nil {
		return
	}
	r.signalsGenerated.WithLabelValues(agent, signal).Inc()
}

// RecordDecision records a trade decision.
func (r *Registry) RecordDecision(action, source string) {
	if r == nil {
		return
	}
	r.decisionsMade.WithLabelValues(action, source).Inc()
}

// RecordFetchError records a failed history fetch.
func (r *Registry) RecordFetchError(collector string) {
	if r == nil {
		return
	}
	r.fetchErrors.WithLabelValues(collector).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
