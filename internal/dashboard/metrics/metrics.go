package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics provides observability for the dashboard module.
// Tracks write outcomes, optimistic concurrency conflicts, read latency,
// store retries, cache effectiveness and company-wide fan-out.
type Metrics struct {
	ConfigWrites       *prometheus.CounterVec
	VersionConflicts   *prometheus.CounterVec
	SaveDuration       prometheus.Histogram
	EffectiveDuration  prometheus.Histogram
	EffectiveSources   *prometheus.CounterVec
	StoreRetries       *prometheus.CounterVec
	CacheLookups       *prometheus.CounterVec
	Notifications      *prometheus.CounterVec
	FanoutJobsDropped  prometheus.Counter
	FanoutQueueDepth   prometheus.Gauge
	FanoutJobDurations prometheus.Histogram
}

// New registers the dashboard metrics with reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ConfigWrites: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_config_writes_total",
			Help: "Dashboard configuration writes by scope and outcome",
		}, []string{"scope", "outcome"}),
		VersionConflicts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_version_conflicts_total",
			Help: "Writes rejected or retried because the stored version moved",
		}, []string{"scope"}),
		SaveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_save_duration_seconds",
			Help:    "Duration of Save operations including retries",
			Buckets: durationBuckets,
		}),
		EffectiveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_effective_duration_seconds",
			Help:    "Duration of effective configuration resolution (dashboard load path)",
			Buckets: durationBuckets,
		}),
		EffectiveSources: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_effective_resolutions_total",
			Help: "Effective configurations served by contributing layers",
		}, []string{"source"}),
		StoreRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_store_retries_total",
			Help: "Store calls retried after a transient failure",
		}, []string{"op"}),
		CacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_company_cache_lookups_total",
			Help: "Company baseline cache lookups by result",
		}, []string{"result"}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_fanout_notifications_total",
			Help: "Per-user company change notifications by outcome",
		}, []string{"outcome"}),
		FanoutJobsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "dashboard_fanout_jobs_dropped_total",
			Help: "Company change jobs dropped because the queue was full",
		}),
		FanoutQueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_fanout_queue_depth",
			Help: "Company change jobs waiting for a worker",
		}),
		FanoutJobDurations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "dashboard_fanout_job_duration_seconds",
			Help:    "Time to walk and notify one company's user overrides",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		}),
	}
}

func (m *Metrics) IncrementWrite(scope, outcome string) {
	m.ConfigWrites.WithLabelValues(scope, outcome).Inc()
}

func (m *Metrics) IncrementVersionConflict(scope string) {
	m.VersionConflicts.WithLabelValues(scope).Inc()
}

// ObserveSave records the duration of a Save operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSave(start time.Time) {
	m.SaveDuration.Observe(time.Since(start).Seconds())
}

// ObserveEffective records an effective configuration resolution.
func (m *Metrics) ObserveEffective(start time.Time, source string) {
	m.EffectiveDuration.Observe(time.Since(start).Seconds())
	m.EffectiveSources.WithLabelValues(source).Inc()
}

func (m *Metrics) IncrementStoreRetry(op string) {
	m.StoreRetries.WithLabelValues(op).Inc()
}

func (m *Metrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) AddNotifications(outcome string, n int) {
	m.Notifications.WithLabelValues(outcome).Add(float64(n))
}

func (m *Metrics) IncrementFanoutDropped() {
	m.FanoutJobsDropped.Inc()
}

func (m *Metrics) SetFanoutQueueDepth(n int) {
	m.FanoutQueueDepth.Set(float64(n))
}

func (m *Metrics) ObserveFanoutJob(start time.Time) {
	m.FanoutJobDurations.Observe(time.Since(start).Seconds())
}
