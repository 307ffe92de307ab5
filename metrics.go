package goJourney

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a specific counter or histogram bucket in the
// in-process metrics system.
//
//	Docs: docs/metrics.md
type MetricID uint16

const (
	// MetricJourneyStarted counts journeys opened via Start.
	MetricJourneyStarted MetricID = iota
	// MetricJourneyStartFailed counts initiating exchanges that failed fatally.
	MetricJourneyStartFailed
	// MetricSessionRecovered counts login starts resolved by an existing token.
	MetricSessionRecovered
	// MetricStepAdvanced counts steps handed to the caller for rendering.
	MetricStepAdvanced
	// MetricStepMerged counts retried steps merged with preserved input.
	MetricStepMerged
	// MetricStepReplaced counts retried steps adopted without a merge.
	MetricStepReplaced
	// MetricSubmitFailure counts transport-level submit failures.
	MetricSubmitFailure
	// MetricRetrySwallowed counts retry-of-retry failures dropped by design.
	MetricRetrySwallowed
	// MetricAuthenticated counts journeys reaching terminal success.
	MetricAuthenticated
	// MetricFatalError counts journeys reaching terminal failure.
	MetricFatalError
	// MetricPostAuthSuccess counts completed post-authentication sequences.
	MetricPostAuthSuccess
	// MetricPostAuthFailure counts post-authentication sequences that failed.
	MetricPostAuthFailure
	// MetricLogoutForced counts logouts forced by a failed user-info fetch.
	MetricLogoutForced
	// MetricNoticeDropped counts notices discarded under backpressure.
	MetricNoticeDropped
	// MetricSubmitLatency is the submit round-trip latency histogram.
	MetricSubmitLatency
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

// Metrics holds atomic counters and an optional submit latency histogram.
// All operations are no-ops when disabled.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time deep copy of all metrics.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is being recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc atomically increments a counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the submit histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricSubmitLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot deep-copies the current metric state.
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
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricSubmitLatency].buckets[i])
		}
		s.Histograms[MetricSubmitLatency] = buckets
	}

	return s
}

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
