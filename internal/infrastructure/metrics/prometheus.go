package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shoplens/backend/internal/domain"
)

// Recorder collects search, provider and HTTP metrics with Prometheus.
// It implements usecase.SearchObserver and usecase.ProviderObserver.
type Recorder struct {
	registry *prometheus.Registry

	retailerSearches *prometheus.CounterVec
	retailerLatency  *prometheus.HistogramVec
	retailerListings *prometheus.CounterVec
	dedupDropped     prometheus.Counter
	providerCalls    *prometheus.CounterVec
	providerLatency  *prometheus.HistogramVec
	breakerState     *prometheus.GaugeVec
	httpRequests     *prometheus.CounterVec
	httpLatency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder with its own registry
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		retailerSearches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shoplens_retailer_searches_total",
				Help: "Retailer search calls by outcome status",
			},
			[]string{"retailer", "status"},
		),
		retailerLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shoplens_retailer_search_duration_seconds",
				Help:    "Duration of retailer search calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"retailer"},
		),
		retailerListings: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shoplens_retailer_listings_total",
				Help: "Listings returned by retailers before deduplication",
			},
			[]string{"retailer"},
		),
		dedupDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "shoplens_dedup_dropped_total",
				Help: "Listings dropped as near-duplicates",
			},
		),
		providerCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shoplens_provider_calls_total",
				Help: "Capability provider calls by result",
			},
			[]string{"provider", "result"},
		),
		providerLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shoplens_provider_duration_seconds",
				Help:    "Duration of capability provider calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "shoplens_retailer_circuit_open",
				Help: "1 when a retailer circuit breaker is open or half-open",
			},
			[]string{"retailer"},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shoplens_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"method", "route", "code"},
		),
		httpLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shoplens_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// ObserveOutcome records one retailer call
func (r *Recorder) ObserveOutcome(outcome domain.SearchOutcome) {
	r.retailerSearches.WithLabelValues(outcome.Retailer, string(outcome.Status)).Inc()
	r.retailerLatency.WithLabelValues(outcome.Retailer).Observe(outcome.Elapsed.Seconds())
	r.retailerListings.WithLabelValues(outcome.Retailer).Add(float64(len(outcome.Listings)))
}

// ObserveDedup records how many listings deduplication removed
func (r *Recorder) ObserveDedup(before, after int) {
	if before > after {
		r.dedupDropped.Add(float64(before - after))
	}
}

// ObserveProvider records one capability provider call
func (r *Recorder) ObserveProvider(source domain.SignalSource, err error, elapsed time.Duration) {
	result := "ok"
	if err != nil {
		result = "degraded"
	}
	r.providerCalls.WithLabelValues(string(source), result).Inc()
	r.providerLatency.WithLabelValues(string(source)).Observe(elapsed.Seconds())
}

// ObserveBreaker records a circuit breaker state change
func (r *Recorder) ObserveBreaker(retailer, state string) {
	value := 0.0
	if state != "closed" {
		value = 1
	}
	r.breakerState.WithLabelValues(retailer).Set(value)
}

// ObserveHTTP records one served HTTP request
func (r *Recorder) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	r.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, e.g. for tests
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
