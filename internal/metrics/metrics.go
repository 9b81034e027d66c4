// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus or keep them in memory.
type Recorder interface {
	// Redirect metrics
	IncRedirectCacheHit()
	IncRedirectCacheMiss()
	IncRedirectFallback(reason string) // reason: "invalid_slug", "not_found", "error"
	ObserveRedirectDuration(duration time.Duration)

	// Link issuance metrics
	IncLinkCreated()

	// Click pipeline metrics
	IncClickPublished(status string) // status: "success" or "dropped"
	IncClickProcessed(status string) // status: "stored", "duplicate", "rejected", "failed"
	ObserveClickBatchSize(size int)
	ObserveClickBatchDuration(duration time.Duration)
	SetClickQueueDepth(depth int64)
	ObserveClickIngestLag(lag time.Duration)

	// Scoring metrics
	ObserveScoreBuild(period string, duration time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
