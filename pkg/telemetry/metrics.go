package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus observability primitives for flaghub.
type Metrics struct {
	apiRequests        *prometheus.CounterVec
	apiDuration        *prometheus.HistogramVec
	evaluations        *prometheus.CounterVec
	evaluationDuration *prometheus.HistogramVec
	snapshotLookups    *prometheus.CounterVec
	versionFallbacks   *prometheus.CounterVec
	versionsPublished  *prometheus.CounterVec
}

// NewMetrics registers and returns Prometheus metrics for telemetry.
func NewMetrics() *Metrics {
	apiRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flaghub_api_requests_total",
		Help: "Counts API requests by method, status, and tenant.",
	}, []string{"method", "status", "tenant"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flaghub_api_duration_seconds",
		Help:    "API request latency per method/tenant.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "tenant"})

	evaluations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flaghub_evaluations_total",
		Help: "Flag evaluations by reason, decision, and tenant.",
	}, []string{"reason", "decision", "tenant"})

	evaluationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "flaghub_evaluation_duration_seconds",
		Help:    "Flag evaluation latency per tenant.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
	}, []string{"tenant"})

	snapshotLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flaghub_snapshot_lookups_total",
		Help: "Snapshot cache lookups by result (hit or miss).",
	}, []string{"result"})

	versionFallbacks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flaghub_version_fallbacks_total",
		Help: "Evaluations that fell back because current_version_id was dangling.",
	}, []string{"tenant", "flag_key"})

	versionsPublished := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flaghub_versions_published_total",
		Help: "Flag versions published per tenant.",
	}, []string{"tenant"})

	prometheus.MustRegister(
		apiRequests,
		apiDuration,
		evaluations,
		evaluationDuration,
		snapshotLookups,
		versionFallbacks,
		versionsPublished,
	)

	return &Metrics{
		apiRequests:        apiRequests,
		apiDuration:        apiDuration,
		evaluations:        evaluations,
		evaluationDuration: evaluationDuration,
		snapshotLookups:    snapshotLookups,
		versionFallbacks:   versionFallbacks,
		versionsPublished:  versionsPublished,
	}
}

// ObserveAPIRequest records an API request and latency.
func (m *Metrics) ObserveAPIRequest(method, status, tenant string, duration time.Duration) {
	if m == nil {
		return
	}
	tenantLabel := sanitizeLabel(tenant)
	methodLabel := sanitizeLabel(method)
	m.apiRequests.WithLabelValues(methodLabel, status, tenantLabel).Inc()
	m.apiDuration.WithLabelValues(methodLabel, tenantLabel).Observe(duration.Seconds())
}

// ObserveEvaluation records one evaluation outcome and its latency.
func (m *Metrics) ObserveEvaluation(reason, decision, tenant string, duration time.Duration) {
	if m == nil {
		return
	}
	tenantLabel := sanitizeLabel(tenant)
	m.evaluations.WithLabelValues(sanitizeLabel(reason), decision, tenantLabel).Inc()
	m.evaluationDuration.WithLabelValues(tenantLabel).Observe(duration.Seconds())
}

// ObserveSnapshotLookup counts a cache hit or miss.
func (m *Metrics) ObserveSnapshotLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.snapshotLookups.WithLabelValues(result).Inc()
}

// ObserveVersionFallback counts a dangling current_version_id being
// resolved to the highest version. A non-zero rate is a data problem
// worth alerting on.
func (m *Metrics) ObserveVersionFallback(tenant, flagKey string) {
	if m == nil {
		return
	}
	m.versionFallbacks.WithLabelValues(sanitizeLabel(tenant), sanitizeLabel(flagKey)).Inc()
}

// ObserveVersionPublished counts a published flag version.
func (m *Metrics) ObserveVersionPublished(tenant string) {
	if m == nil {
		return
	}
	m.versionsPublished.WithLabelValues(sanitizeLabel(tenant)).Inc()
}

func sanitizeLabel(val string) string {
	if val == "" {
		return "unknown"
	}
	return val
}
