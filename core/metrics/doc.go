// Package metrics provides in-process collection of request, inference and
// cache metrics for the encoder service.
//
// A single Collector guards all counters and sample series with one mutex;
// Snapshot reads under the same lock so consumers always observe a
// consistent view. Latency and inference series keep the most recent 1000
// samples per key (FIFO sliding window), which bounds memory at the cost of
// percentiles reflecting only recent history.
//
// # Usage
//
//	collector := metrics.New()
//
//	collector.RecordRequestStart()
//	// ... handle request ...
//	collector.RecordRequestEnd("/encode/motion", 200, time.Since(start))
//
//	collector.RecordInferenceTime("motion", inferenceTime)
//	collector.RecordCacheHit()
//
//	snapshot := collector.Snapshot()
//
// Snapshot values carry JSON tags and marshal directly into the /metrics
// response. Recording never fails and never panics on malformed input;
// out-of-range status codes are coerced to 200 so that metrics problems can
// never turn a successful request into a failed one.
package metrics
