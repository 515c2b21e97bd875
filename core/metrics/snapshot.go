package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

// Percentiles summarizes a sample series in milliseconds.
type Percentiles struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	P50 float64 `json:"p50"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
}

// ServiceInfo describes process uptime.
type ServiceInfo struct {
	UptimeSeconds   float64 `json:"uptime_seconds"`
	UptimeFormatted string  `json:"uptime_formatted"`
	StartTime       string  `json:"start_time"`
}

// RequestStats aggregates request counters and gauges.
type RequestStats struct {
	Total             uint64            `json:"total"`
	ByEndpoint        map[string]uint64 `json:"by_endpoint"`
	ByStatus          map[string]uint64 `json:"by_status"`
	Errors            map[string]uint64 `json:"errors"`
	Active            int               `json:"active"`
	PeakActive        int               `json:"peak_active"`
	RequestsPerSecond float64           `json:"requests_per_second"`
}

// LatencyStats reports request latency percentiles.
type LatencyStats struct {
	OverallMS  Percentiles            `json:"overall_ms"`
	ByEndpoint map[string]Percentiles `json:"by_endpoint"`
}

// CacheStats reports process-wide cache effectiveness.
type CacheStats struct {
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	HitRatePercent float64 `json:"hit_rate_percent"`
}

// Snapshot is a consistent point-in-time view of all collected metrics.
type Snapshot struct {
	Service          ServiceInfo            `json:"service"`
	Requests         RequestStats           `json:"requests"`
	Latency          LatencyStats           `json:"latency"`
	ModelInferenceMS map[string]Percentiles `json:"model_inference_ms"`
	Cache            CacheStats             `json:"cache"`
}

// Snapshot computes a consistent snapshot of all metrics. The lock is held
// for the full read and compute so no partial update is ever visible.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	uptime := now.Sub(c.startTime).Seconds()

	// The throughput window resets once it has fully elapsed; within the
	// window the rate divides by elapsed time floored at one second.
	windowElapsed := now.Sub(c.windowStart).Seconds()
	var rps float64
	if windowElapsed >= c.windowSize.Seconds() {
		rps = float64(c.requestsInWindow) / windowElapsed
		c.requestsInWindow = 0
		c.windowStart = now
	} else {
		rps = float64(c.requestsInWindow) / math.Max(1, windowElapsed)
	}

	var cacheHitRate float64
	if total := c.cacheHits + c.cacheMisses; total > 0 {
		cacheHitRate = math.Round(float64(c.cacheHits)/float64(total)*100*100) / 100
	}

	byEndpoint := make(map[string]Percentiles, len(c.latencies))
	for endpoint, series := range c.latencies {
		if endpoint == allKey {
			continue
		}
		byEndpoint[endpoint] = calculatePercentiles(series)
	}

	inference := make(map[string]Percentiles, len(c.inferenceTimes))
	for model, series := range c.inferenceTimes {
		inference[model] = calculatePercentiles(series)
	}

	return Snapshot{
		Service: ServiceInfo{
			UptimeSeconds:   math.Round(uptime*100) / 100,
			UptimeFormatted: formatUptime(uptime),
			StartTime:       c.startTime.Format(time.RFC3339),
		},
		Requests: RequestStats{
			Total:             c.requestCount[totalKey],
			ByEndpoint:        copyCounters(c.requestCount),
			ByStatus:          copyCounters(c.statusCount),
			Errors:            copyCounters(c.errorCount),
			Active:            c.activeRequests,
			PeakActive:        c.peakActive,
			RequestsPerSecond: math.Round(rps*100) / 100,
		},
		Latency: LatencyStats{
			OverallMS:  calculatePercentiles(c.latencies[allKey]),
			ByEndpoint: byEndpoint,
		},
		ModelInferenceMS: inference,
		Cache: CacheStats{
			Hits:           c.cacheHits,
			Misses:         c.cacheMisses,
			HitRatePercent: cacheHitRate,
		},
	}
}

// calculatePercentiles summarizes a series. Index is floor(n*p) into the
// sorted samples; p95 and p99 fall back to the max when the series is too
// short (fewer than 20 and 100 samples respectively) for the tail index to
// be meaningful.
func calculatePercentiles(series []float64) Percentiles {
	n := len(series)
	if n == 0 {
		return Percentiles{}
	}

	sorted := make([]float64, n)
	copy(sorted, series)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range series {
		sum += v
	}

	p := Percentiles{
		Avg: sum / float64(n),
		Min: sorted[0],
		Max: sorted[n-1],
		P50: sorted[n/2],
		P95: sorted[n-1],
		P99: sorted[n-1],
	}

	if n >= 20 {
		p.P95 = sorted[int(float64(n)*0.95)]
	}
	if n >= 100 {
		p.P99 = sorted[int(float64(n)*0.99)]
	}

	return p
}

func copyCounters(src map[string]uint64) map[string]uint64 {
	dst := make(map[string]uint64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// formatUptime renders seconds as "1d 2h 3m 4s", omitting leading zero units.
func formatUptime(seconds float64) string {
	total := int(seconds)
	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	secs := total % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", secs))

	return strings.Join(parts, " ")
}
