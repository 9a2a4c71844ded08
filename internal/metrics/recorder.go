package metrics

import "time"

// ResultLabel enumerates operation result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultConflict ResultLabel = "conflict"
	ResultDenied   ResultLabel = "denied"
	ResultExpired  ResultLabel = "expired"
)

// Recorder defines observability hooks for the admin backend. Implementations
// may forward to Prometheus, OpenTelemetry, etc. All methods must be safe for
// nil receivers when using the NoopRecorder (allowing optional injection).
type Recorder interface {
	ObserveRequestDuration(method, route string, status int, d time.Duration)
	ObserveStoreOpDuration(store, op string, d time.Duration, success bool)
	IncStoreOpResult(store, op string, result ResultLabel)
	IncMagicLink(result ResultLabel)
	IncSession(result ResultLabel)
	ObservePublishRunDuration(d time.Duration, success bool)
	IncPublishOutcome(result ResultLabel)
	SetScheduledPosts(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequestDuration(string, string, int, time.Duration)   {}
func (NoopRecorder) ObserveStoreOpDuration(string, string, time.Duration, bool)  {}
func (NoopRecorder) IncStoreOpResult(string, string, ResultLabel)                {}
func (NoopRecorder) IncMagicLink(ResultLabel)                                    {}
func (NoopRecorder) IncSession(ResultLabel)                                      {}
func (NoopRecorder) ObservePublishRunDuration(time.Duration, bool)               {}
func (NoopRecorder) IncPublishOutcome(ResultLabel)                               {}
func (NoopRecorder) SetScheduledPosts(int)                                       {}
