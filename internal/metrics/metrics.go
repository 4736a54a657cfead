// Package metrics exposes the Prometheus collectors the handler and the
// CachedStore report through, plus a periodic gopsutil sampler of host
// CPU/memory usage and the process's goroutine count. It keeps the teacher's promauto-package-var convention and its
// singleton NewMetrics() constructor, retargeted from the teacher's
// recursive-resolver concerns (unbound errors, DNSSEC validation, cache
// probation/protected segments) to the authoritative answer path: queries
// by type, responses by rcode, query latency, and CachedStore hit/miss
// counts.
package metrics

import (
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Metrics is the process-wide metrics collector. Like the teacher's
// Metrics type it is a singleton reached through NewMetrics(), since the
// underlying prometheus collectors are themselves package-level globals.
type Metrics struct {
	sync.RWMutex
	totalQueries int64
	startTime    time.Time
}

var (
	instance *Metrics
	once     sync.Once

	promQPS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authdns_qps",
		Help: "Queries per second",
	})
	promQueriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authdns_queries_total",
		Help: "Total number of DNS queries received, by question type",
	}, []string{"qtype"})
	promResponseCodes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "authdns_response_codes_total",
		Help: "Total number of DNS responses sent, by RCODE",
	}, []string{"rcode"})
	promQueryLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "authdns_query_duration_seconds",
		Help:    "Time to resolve a query and assemble a response",
		Buckets: prometheus.DefBuckets,
	})
	promCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authdns_store_cache_hits_total",
		Help: "Total number of store lookups served from the in-process cache",
	})
	promCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authdns_store_cache_misses_total",
		Help: "Total number of store lookups that missed the in-process cache",
	})
	promStoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "authdns_store_errors_total",
		Help: "Total number of backend errors returned by the external store",
	})
	promCPUUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authdns_cpu_usage_percent",
		Help: "Current CPU usage percentage",
	})
	promMemoryUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authdns_memory_usage_percent",
		Help: "Current memory usage percentage",
	})
	promGoroutineCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "authdns_goroutine_count",
		Help: "Current number of goroutines",
	})
)

// NewMetrics returns the singleton Metrics instance, starting its
// background samplers on first call.
func NewMetrics() *Metrics {
	once.Do(func() {
		instance = &Metrics{startTime: time.Now()}
		go instance.qpsCalculator()
		go instance.systemMetricsCollector()
	})
	return instance
}

// RecordQuery counts an incoming question by its type, e.g. "A" or "MX".
func (m *Metrics) RecordQuery(qtype string) {
	m.Lock()
	m.totalQueries++
	m.Unlock()
	promQueriesTotal.WithLabelValues(qtype).Inc()
}

// RecordResponse counts an outgoing response by its RCODE name, e.g.
// "NOERROR" or "NXDOMAIN".
func (m *Metrics) RecordResponse(rcode string) {
	promResponseCodes.WithLabelValues(rcode).Inc()
}

// ObserveLatency records how long a query took end to end.
func (m *Metrics) ObserveLatency(d time.Duration) {
	promQueryLatency.Observe(d.Seconds())
}

// IncrementCacheHits increments the store cache hit counter.
func (m *Metrics) IncrementCacheHits() { promCacheHits.Inc() }

// IncrementCacheMisses increments the store cache miss counter.
func (m *Metrics) IncrementCacheMisses() { promCacheMisses.Inc() }

// IncrementStoreErrors increments the backend store error counter.
func (m *Metrics) IncrementStoreErrors() { promStoreErrors.Inc() }

// qpsCalculator recomputes the QPS gauge once a second.
func (m *Metrics) qpsCalculator() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	var lastQueryCount int64
	for range ticker.C {
		m.Lock()
		current := m.totalQueries
		qps := float64(current - lastQueryCount)
		lastQueryCount = current
		m.Unlock()
		promQPS.Set(qps)
	}
}

// systemMetricsCollector samples process health every few seconds.
func (m *Metrics) systemMetricsCollector() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		cpuPercentages, err := cpu.Percent(0, false)
		if err == nil && len(cpuPercentages) > 0 {
			promCPUUsage.Set(cpuPercentages[0])
		} else if err != nil {
			log.Printf("metrics: cpu sample failed: %v", err)
		}

		memInfo, err := mem.VirtualMemory()
		if err == nil {
			promMemoryUsage.Set(memInfo.UsedPercent)
		} else {
			log.Printf("metrics: memory sample failed: %v", err)
		}

		promGoroutineCount.Set(float64(runtime.NumGoroutine()))
	}
}
