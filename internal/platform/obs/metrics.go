package obs

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the service's Prometheus collectors. A nil *Metrics
// records nothing.
type Metrics struct {
	Solves           *prometheus.CounterVec
	SolveDuration    *prometheus.HistogramVec
	TimeLimitReached *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	CacheLookups     *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// NewRegistry returns a dedicated registry with Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Solves: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "routing_solves_total", Help: "Routing solves by cost model and engine status."},
			[]string{"cost_model", "status"},
		),
		SolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "routing_solve_duration_seconds", Help: "Wall-clock solve time in seconds.", Buckets: []float64{0.1, 0.5, 1, 2, 3.5, 5, 10, 20, 30, 60}},
			[]string{"cost_model"},
		),
		TimeLimitReached: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "routing_time_limit_reached_total", Help: "Solves that used at least 95% of their time budget."},
			[]string{"cost_model"},
		),
		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "traveltime_provider_requests_total", Help: "Travel-time provider calls by outcome."},
			[]string{"provider", "outcome"},
		),
		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "traveltime_provider_latency_seconds", Help: "Travel-time provider latency in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"provider"},
		),
		CacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "traveltime_cache_lookups_total", Help: "Travel-time cache lookups by result."},
			[]string{"result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
			[]string{"method", "path", "status"},
		),
	}

	reg.MustRegister(
		m.Solves, m.SolveDuration, m.TimeLimitReached,
		m.ProviderRequests, m.ProviderLatency, m.CacheLookups,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

func (m *Metrics) ObserveSolve(costModel, status string, d time.Duration, limitReached bool) {
	if m == nil {
		return
	}
	m.Solves.WithLabelValues(costModel, status).Inc()
	m.SolveDuration.WithLabelValues(costModel).Observe(d.Seconds())
	if limitReached {
		m.TimeLimitReached.WithLabelValues(costModel).Inc()
	}
}

func (m *Metrics) ProviderRequest(provider, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	m.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
}

func (m *Metrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.HTTPRequests.WithLabelValues(method, path, code).Inc()
	m.HTTPDuration.WithLabelValues(method, path, code).Observe(d.Seconds())
}
