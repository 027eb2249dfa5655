package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Scheduler run outcomes used as metric labels.
const (
	RunOutcomeScheduled  = "scheduled"
	RunOutcomeInfeasible = "infeasible"
	RunOutcomeInvalid    = "invalid"
	RunOutcomeError      = "error"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP surface,
// the validation cache and the scheduler.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	schedulerRuns     *prometheus.CounterVec
	schedulerDuration prometheus.Observer
	schedulerSteps    prometheus.Observer
	schedulerBlocks   prometheus.Counter
	placementChecks   *prometheus.CounterVec
	auditViolations   *prometheus.GaugeVec
	auditRuns         *prometheus.CounterVec

	cacheHitCount  uint64
	cacheMissCount uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	schedulerRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_scheduler_runs_total",
		Help: "Auto-schedule runs by outcome",
	}, []string{"outcome"})

	schedulerDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_scheduler_run_seconds",
		Help:    "Wall time of the backtracking search",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})

	schedulerSteps := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_scheduler_steps",
		Help:    "Tentative placements made per run",
		Buckets: prometheus.ExponentialBuckets(1, 10, 8),
	})

	schedulerBlocks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_scheduler_blocks_placed_total",
		Help: "Lecture blocks created by the scheduler",
	})

	placementChecks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_placement_checks_total",
		Help: "Placement checks by result",
	}, []string{"result"})

	auditViolations := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "timetable_audit_violations",
		Help: "Violations found by the most recent post-commit audit, by type",
	}, []string{"type"})

	auditRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_audit_runs_total",
		Help: "Post-commit audits by verdict",
	}, []string{"valid"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		schedulerRuns, schedulerDuration, schedulerSteps, schedulerBlocks,
		placementChecks, auditViolations, auditRuns,
		goroutines,
	)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:          registry,
		handler:           handler,
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		schedulerRuns:     schedulerRuns,
		schedulerDuration: schedulerDuration,
		schedulerSteps:    schedulerSteps,
		schedulerBlocks:   schedulerBlocks,
		placementChecks:   placementChecks,
		auditViolations:   auditViolations,
		auditRuns:         auditRuns,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveSchedulerRun records one auto-schedule attempt.
func (m *MetricsService) ObserveSchedulerRun(outcome string, steps, placed int, duration time.Duration) {
	if m == nil {
		return
	}
	m.schedulerRuns.WithLabelValues(outcome).Inc()
	m.schedulerDuration.Observe(duration.Seconds())
	m.schedulerSteps.Observe(float64(steps))
	if placed > 0 {
		m.schedulerBlocks.Add(float64(placed))
	}
}

// RecordPlacementCheck counts one placement check.
func (m *MetricsService) RecordPlacementCheck(accepted bool) {
	if m == nil {
		return
	}
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.placementChecks.WithLabelValues(result).Inc()
}

// RecordAudit publishes the per-type violation counts of the latest audit.
func (m *MetricsService) RecordAudit(valid bool, counts map[string]int) {
	if m == nil {
		return
	}
	m.auditRuns.WithLabelValues(fmt.Sprintf("%t", valid)).Inc()
	m.auditViolations.Reset()
	for kind, count := range counts {
		m.auditViolations.WithLabelValues(kind).Set(float64(count))
	}
}
