package goBoard

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram.
type MetricID uint16

const (
	// MetricSessionRestored counts Initialize calls that hydrated a persisted session.
	MetricSessionRestored MetricID = iota
	// MetricSessionRestoreEmpty counts Initialize calls that found nothing to restore.
	MetricSessionRestoreEmpty
	// MetricSessionRestoreMalformed counts discarded unreadable or inconsistent records.
	MetricSessionRestoreMalformed
	// MetricSessionRestoreExpired counts discarded records whose token had expired.
	MetricSessionRestoreExpired
	MetricSessionLogin
	MetricSessionUpdate
	MetricSessionLogout
	// MetricSessionExpired counts programmatic logouts of stale tokens.
	MetricSessionExpired
	// MetricStorageFailure counts durable storage errors; the session keeps working in memory.
	MetricStorageFailure
	MetricGuardGranted
	MetricGuardDeniedAnonymous
	MetricGuardDeniedWrongRole
	MetricGuardChecking
	// MetricLoginThrottled counts sign-in attempts refused by the throttle.
	MetricLoginThrottled
	MetricAPIRequest
	MetricAPIFailure
	// MetricAPIUnauthorized counts backend 401s, each of which logs a session out.
	MetricAPIUnauthorized
	// MetricAPILatency is the backend call latency histogram.
	MetricAPILatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free counters and the API latency histogram.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc adds one to the counter id. No-op when disabled.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records d in the histogram id. Only MetricAPILatency has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricAPILatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when latency is enabled, the non-cumulative
// histogram buckets.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		if id == MetricAPILatency {
			continue
		}
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricAPILatency].buckets[i])
		}
		s.Histograms[MetricAPILatency] = buckets
	}

	return s
}

// Buckets are upper bounds in milliseconds: 5, 10, 25, 50, 100, 250, 500, +Inf. Backend
// calls are slower than in-process checks, so the top buckets carry most samples.
func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
