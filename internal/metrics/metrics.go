// Package metrics exposes the service's Prometheus instruments.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketadvisor"

// Registry holds all Prometheus metrics for the advisor
type Registry struct {
	reg *prometheus.Registry

	ProviderRequests *prometheus.CounterVec
	ProviderLatency  *prometheus.HistogramVec
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	Recommendations  *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	HTTPDuration     *prometheus.HistogramVec
	BreakerState     *prometheus.GaugeVec
}

// New creates a registry with every advisor metric plus Go runtime and process collectors.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "External provider calls by provider and result",
			},
			[]string{"provider", "result"},
		),

		ProviderLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "External provider call duration in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"provider"},
		),

		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Fresh cache hits by table",
			},
			[]string{"table"},
		),

		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Cache misses (absent or expired) by table",
			},
			[]string{"table"},
		),

		Recommendations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_total",
				Help:      "Generated recommendations by result status",
			},
			[]string{"status"},
		),

		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_duration_seconds",
				Help:      "Duration of analysis steps in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"step"},
		),

		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration by route pattern and status",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),

		BreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "provider_breaker_state",
				Help:      "Circuit breaker state per provider (0=closed, 1=half-open, 2=open)",
			},
			[]string{"provider"},
		),
	}

	r.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.ProviderRequests,
		r.ProviderLatency,
		r.CacheHits,
		r.CacheMisses,
		r.Recommendations,
		r.AnalysisDuration,
		r.HTTPDuration,
		r.BreakerState,
	)

	return r
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry, mainly for tests
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.reg
}

// ObserveCacheLookup implements clientdata.Observer
func (r *Registry) ObserveCacheLookup(table string, hit bool) {
	if hit {
		r.CacheHits.WithLabelValues(table).Inc()
		return
	}
	r.CacheMisses.WithLabelValues(table).Inc()
}

// ObserveProviderCall records one external call
func (r *Registry) ObserveProviderCall(provider string, err error, d time.Duration) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.ProviderRequests.WithLabelValues(provider, result).Inc()
	r.ProviderLatency.WithLabelValues(provider).Observe(d.Seconds())
}

// ObserveRecommendation counts an engine result by status
func (r *Registry) ObserveRecommendation(status string) {
	r.Recommendations.WithLabelValues(status).Inc()
}

// ObserveBreakerState records a breaker transition (0 closed, 1 half-open, 2 open)
func (r *Registry) ObserveBreakerState(provider string, state int) {
	r.BreakerState.WithLabelValues(provider).Set(float64(state))
}

// StepTimer tracks execution time for an analysis step
type StepTimer struct {
	hist  *prometheus.HistogramVec
	step  string
	start time.Time
}

// StartStep begins timing an analysis step
func (r *Registry) StartStep(step string) *StepTimer {
	return &StepTimer{hist: r.AnalysisDuration, step: step, start: time.Now()}
}

// Stop records the elapsed time
func (st *StepTimer) Stop() time.Duration {
	d := time.Since(st.start)
	st.hist.WithLabelValues(st.step).Observe(d.Seconds())
	return d
}

// ObserveStep records an already-measured analysis step
func (r *Registry) ObserveStep(step string, d time.Duration) {
	r.AnalysisDuration.WithLabelValues(step).Observe(d.Seconds())
}

// ObserveHTTP records one served request
func (r *Registry) ObserveHTTP(method, route string, status int, d time.Duration) {
	r.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
