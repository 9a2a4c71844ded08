package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	requestDuration *prom.HistogramVec
	storeDuration   *prom.HistogramVec
	storeResults    *prom.CounterVec
	magicLinks      *prom.CounterVec
	sessions        *prom.CounterVec
	publishDuration *prom.HistogramVec
	publishOutcome  *prom.CounterVec
	scheduledPosts  prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.requestDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "repstack",
			Name:      "request_duration_seconds",
			Help:      "Duration of admin API requests",
			Buckets:   prom.DefBuckets,
		}, []string{"method", "route", "status"})
		pr.storeDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "repstack",
			Name:      "store_op_duration_seconds",
			Help:      "Duration of content store operations",
			Buckets:   prom.DefBuckets,
		}, []string{"store", "op", "result"})
		pr.storeResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repstack",
			Name:      "store_op_results_total",
			Help:      "Content store operation counts by outcome",
		}, []string{"store", "op", "result"})
		pr.magicLinks = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repstack",
			Name:      "magic_links_total",
			Help:      "Magic link issue attempts by outcome",
		}, []string{"result"})
		pr.sessions = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repstack",
			Name:      "sessions_total",
			Help:      "Session token grants and rejections",
		}, []string{"result"})
		pr.publishDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "repstack",
			Name:      "publish_run_duration_seconds",
			Help:      "Duration of scheduled publish sweeps",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.publishOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "repstack",
			Name:      "publish_outcomes_total",
			Help:      "Scheduled publish outcomes",
		}, []string{"result"})
		pr.scheduledPosts = prom.NewGauge(prom.GaugeOpts{
			Namespace: "repstack",
			Name:      "scheduled_posts",
			Help:      "Posts currently waiting for their publish date",
		})
		reg.MustRegister(pr.requestDuration, pr.storeDuration, pr.storeResults, pr.magicLinks, pr.sessions, pr.publishDuration, pr.publishOutcome, pr.scheduledPosts)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveRequestDuration(method, route string, status int, d time.Duration) {
	if p == nil || p.requestDuration == nil {
		return
	}
	p.requestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveStoreOpDuration(store, op string, d time.Duration, success bool) {
	if p == nil || p.storeDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.storeDuration.WithLabelValues(store, op, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStoreOpResult(store, op string, result ResultLabel) {
	if p == nil || p.storeResults == nil {
		return
	}
	p.storeResults.WithLabelValues(store, op, string(result)).Inc()
}

func (p *PrometheusRecorder) IncMagicLink(result ResultLabel) {
	if p == nil || p.magicLinks == nil {
		return
	}
	p.magicLinks.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncSession(result ResultLabel) {
	if p == nil || p.sessions == nil {
		return
	}
	p.sessions.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObservePublishRunDuration(d time.Duration, success bool) {
	if p == nil || p.publishDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.publishDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPublishOutcome(result ResultLabel) {
	if p == nil || p.publishOutcome == nil {
		return
	}
	p.publishOutcome.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) SetScheduledPosts(n int) {
	if p == nil || p.scheduledPosts == nil {
		return
	}
	p.scheduledPosts.Set(float64(n))
}
