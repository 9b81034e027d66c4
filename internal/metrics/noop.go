package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) IncRedirectCacheHit()                                    {}
func (n *NoopRecorder) IncRedirectCacheMiss()                                   {}
func (n *NoopRecorder) IncRedirectFallback(reason string)                       {}
func (n *NoopRecorder) ObserveRedirectDuration(duration time.Duration)          {}
func (n *NoopRecorder) IncLinkCreated()                                         {}
func (n *NoopRecorder) IncClickPublished(status string)                         {}
func (n *NoopRecorder) IncClickProcessed(status string)                         {}
func (n *NoopRecorder) ObserveClickBatchSize(size int)                          {}
func (n *NoopRecorder) ObserveClickBatchDuration(duration time.Duration)        {}
func (n *NoopRecorder) SetClickQueueDepth(depth int64)                          {}
func (n *NoopRecorder) ObserveClickIngestLag(lag time.Duration)                 {}
func (n *NoopRecorder) ObserveScoreBuild(period string, duration time.Duration) {}
