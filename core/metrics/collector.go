package metrics

import (
	"strconv"
	"sync"
	"time"
)

const (
	// DefaultMaxSamples bounds each latency series.
	DefaultMaxSamples = 1000

	// DefaultWindowSize is the throughput measurement window.
	DefaultWindowSize = time.Minute

	// totalKey aggregates counters across endpoints.
	totalKey = "total"

	// allKey aggregates latencies across endpoints.
	allKey = "all"
)

// Collector accumulates request, inference and cache metrics. All mutation
// and all snapshot reads share a single mutex; recording is O(1) bookkeeping
// and must never be held across model inference.
type Collector struct {
	mu        sync.Mutex
	startTime time.Time

	requestCount map[string]uint64
	statusCount  map[string]uint64
	errorCount   map[string]uint64

	latencies      map[string][]float64
	inferenceTimes map[string][]float64

	activeRequests int
	peakActive     int

	cacheHits   uint64
	cacheMisses uint64

	requestsInWindow int
	windowStart      time.Time
	windowSize       time.Duration

	maxSamples int
	now        func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithMaxSamples overrides the per-series sample cap.
func WithMaxSamples(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxSamples = n
		}
	}
}

// WithWindowSize overrides the throughput window.
func WithWindowSize(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.windowSize = d
		}
	}
}

// WithClock overrides the time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates a Collector.
func New(opts ...Option) *Collector {
	c := &Collector{
		maxSamples: DefaultMaxSamples,
		windowSize: DefaultWindowSize,
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.startTime = c.now()
	c.resetLocked()
	return c
}

// RecordRequestStart increments the active-request gauge and tracks the peak.
func (c *Collector) RecordRequestStart() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.activeRequests++
	if c.activeRequests > c.peakActive {
		c.peakActive = c.activeRequests
	}
}

// RecordRequestEnd records the completion of a request. An end without a
// matching start never drives the active gauge negative. Status codes
// outside 100-599 are coerced to 200 rather than rejected.
func (c *Collector) RecordRequestEnd(endpoint string, status int, latency time.Duration) {
	if status < 100 || status > 599 {
		status = 200
	}
	latencyMS := float64(latency) / float64(time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.activeRequests > 0 {
		c.activeRequests--
	}

	c.requestCount[endpoint]++
	c.requestCount[totalKey]++
	c.statusCount[strconv.Itoa(status)]++

	if status >= 400 {
		c.errorCount[endpoint]++
		c.errorCount[totalKey]++
	}

	c.latencies[endpoint] = c.appendSample(c.latencies[endpoint], latencyMS)
	c.latencies[allKey] = c.appendSample(c.latencies[allKey], latencyMS)

	c.requestsInWindow++
}

// RecordInferenceTime records one model inference duration.
func (c *Collector) RecordInferenceTime(model string, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.inferenceTimes[model] = c.appendSample(c.inferenceTimes[model], float64(d)/float64(time.Millisecond))
}

// RecordCacheHit increments the process-wide cache hit counter.
func (c *Collector) RecordCacheHit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheHits++
}

// RecordCacheMiss increments the process-wide cache miss counter.
func (c *Collector) RecordCacheMiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cacheMisses++
}

// Reset atomically clears all counters and series.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked()
}

func (c *Collector) resetLocked() {
	c.requestCount = make(map[string]uint64)
	c.statusCount = make(map[string]uint64)
	c.errorCount = make(map[string]uint64)
	c.latencies = make(map[string][]float64)
	c.inferenceTimes = make(map[string][]float64)
	c.activeRequests = 0
	c.peakActive = 0
	c.cacheHits = 0
	c.cacheMisses = 0
	c.requestsInWindow = 0
	c.windowStart = c.now()
}

// appendSample must be called with the lock held. Keeps the most recent
// maxSamples values (FIFO trim, not reservoir sampling).
func (c *Collector) appendSample(series []float64, v float64) []float64 {
	series = append(series, v)
	if len(series) > c.maxSamples {
		trimmed := make([]float64, c.maxSamples)
		copy(trimmed, series[len(series)-c.maxSamples:])
		return trimmed
	}
	return series
}
