package observability

import (
	"time"

	"github.com/boddenberg/fundraise-dashboard-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Build outcomes recorded by IncrBuild.
const (
	BuildFull                 = "full"
	BuildDegradedProfile      = "degraded_profile"
	BuildDegradedNotification = "degraded_notifications"
)

// Metrics holds all Prometheus metrics for the BFA.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	builds          *prometheus.CounterVec
	emitted         *prometheus.CounterVec
	historyEvents   *prometheus.CounterVec
	breakerState    *prometheus.GaugeVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bfa_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_external_errors_total",
				Help: "Total errors from upstream services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		builds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_ledger_builds_total",
				Help: "Ledger builds by outcome.",
			},
			[]string{"outcome"},
		),
		emitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_ledger_transactions_total",
				Help: "Transactions emitted into built ledgers by source type.",
			},
			[]string{"source"},
		),
		historyEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bfa_fund_history_events_total",
				Help: "Fund history reconciliation events.",
			},
			[]string{"event"},
		),
		breakerState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bfa_circuit_breaker_state",
				Help: "Circuit breaker state per upstream (0 closed, 1 half-open, 2 open).",
			},
			[]string{"service"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the upstream error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrBuild counts one ledger build with the given outcome.
func (m *Metrics) IncrBuild(outcome string) {
	m.builds.WithLabelValues(outcome).Inc()
}

// AddEmitted counts n transactions of source emitted into a ledger.
func (m *Metrics) AddEmitted(source domain.SourceType, n int) {
	if n <= 0 {
		return
	}
	m.emitted.WithLabelValues(string(source)).Add(float64(n))
}

// IncrHistoryEvent counts one reconciliation event.
func (m *Metrics) IncrHistoryEvent(event string) {
	m.historyEvents.WithLabelValues(event).Inc()
}

// SetBreakerState records the breaker state for service.
func (m *Metrics) SetBreakerState(service string, state float64) {
	m.breakerState.WithLabelValues(service).Set(state)
}

// GetLedgerSnapshot returns the counters behind GET /v1/metrics/ledger.
func (m *Metrics) GetLedgerSnapshot() *domain.LedgerMetrics {
	full := getCounterValue(m.builds, BuildFull)
	degraded := getCounterValue(m.builds, BuildDegradedProfile) +
		getCounterValue(m.builds, BuildDegradedNotification)
	total := full + degraded

	hits := getCounterValue(m.cacheHits, "campaign")
	misses := getCounterValue(m.cacheMisses, "campaign")

	degradedRate := float64(0)
	cacheHitRate := float64(0)
	if total > 0 {
		degradedRate = degraded / total
	}
	if hits+misses > 0 {
		cacheHitRate = hits / (hits + misses)
	}

	return &domain.LedgerMetrics{
		TotalBuilds:           int64(total),
		DegradedBuilds:        int64(degraded),
		DegradedRate:          degradedRate,
		ContributionsEmitted:  int64(getCounterValue(m.emitted, string(domain.SourceContribution))),
		DisbursementsEmitted:  int64(getCounterValue(m.emitted, string(domain.SourceAdmin))),
		DisbursementsDetected: int64(getCounterValue(m.historyEvents, "seeded") + getCounterValue(m.historyEvents, "increased")),
		BaselineResets:        int64(getCounterValue(m.historyEvents, "reset")),
		CacheHitRate:          cacheHitRate,
		Period:                "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
