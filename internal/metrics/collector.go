package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/BaSui01/textscore/types"
)

var (
	// 远端模型类指标单次调用可达数十秒
	scoreDurationBuckets = []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60}
	batchSizeBuckets     = prometheus.ExponentialBuckets(1, 4, 8)
	payloadBuckets       = prometheus.ExponentialBuckets(128, 8, 7)
)

type httpMetrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	requestSize  *prometheus.HistogramVec
	responseSize *prometheus.HistogramVec
}

type scoreMetrics struct {
	calls     *prometheus.CounterVec
	pairs     *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	batchSize *prometheus.HistogramVec
	segmented *prometheus.CounterVec
}

type cacheMetrics struct {
	hits   *prometheus.CounterVec
	misses *prometheus.CounterVec
}

// Collector 评测服务的 Prometheus 指标，实现 metric.Observer 与 metric.HitObserver
type Collector struct {
	http  httpMetrics
	score scoreMetrics
	cache cacheMetrics
}

// NewCollector 在 reg 上注册全部指标，reg 为 nil 时使用 prometheus.DefaultRegisterer。
// 同一个 reg 上重复创建会 panic。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	c := &Collector{
		http:  newHTTPMetrics(f, namespace),
		score: newScoreMetrics(f, namespace),
		cache: newCacheMetrics(f, namespace),
	}
	if logger != nil {
		logger.Debug("prometheus collector registered", zap.String("namespace", namespace))
	}
	return c
}

func newHTTPMetrics(f promauto.Factory, ns string) httpMetrics {
	route := []string{"method", "path"}
	return httpMetrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "http_request_duration_seconds",
			Help: "HTTP request latency in seconds", Buckets: scoreDurationBuckets,
		}, route),
		requestSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "http_request_size_bytes",
			Help: "HTTP request body size in bytes", Buckets: payloadBuckets,
		}, route),
		responseSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "http_response_size_bytes",
			Help: "HTTP response body size in bytes", Buckets: payloadBuckets,
		}, route),
	}
}

func newScoreMetrics(f promauto.Factory, ns string) scoreMetrics {
	kind := []string{"metric"}
	return scoreMetrics{
		calls: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "score_requests_total",
			Help: "Scorer invocations by metric and outcome (success or error code)",
		}, []string{"metric", "status"}),
		pairs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "score_pairs_total",
			Help: "Reference/candidate pairs submitted to scorers",
		}, kind),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "score_duration_seconds",
			Help: "Scorer invocation latency in seconds", Buckets: scoreDurationBuckets,
		}, kind),
		batchSize: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Name: "score_batch_size",
			Help: "Pairs per scorer invocation", Buckets: batchSizeBuckets,
		}, kind),
		segmented: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "segment_total",
			Help: "Pairs segmented, by detected or forced language",
		}, []string{"language"}),
	}
}

func newCacheMetrics(f promauto.Factory, ns string) cacheMetrics {
	return cacheMetrics{
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "cache_hits_total",
			Help: "Score cache hits",
		}, []string{"metric"}),
		misses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Name: "cache_misses_total",
			Help: "Score cache misses",
		}, []string{"metric"}),
	}
}

// RecordHTTPRequest 由 HTTP 中间件调用，path 需已归一化
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.http.requests.WithLabelValues(method, path, statusClass(status)).Inc()
	c.http.duration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.http.requestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.http.responseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// ObserveScore implements metric.Observer.
func (c *Collector) ObserveScore(metric string, pairs int, duration time.Duration, err error) {
	c.score.calls.WithLabelValues(metric, outcome(err)).Inc()
	c.score.pairs.WithLabelValues(metric).Add(float64(pairs))
	c.score.duration.WithLabelValues(metric).Observe(duration.Seconds())
	c.score.batchSize.WithLabelValues(metric).Observe(float64(pairs))
}

// ObserveSegment implements metric.Observer.
func (c *Collector) ObserveSegment(language string, pairs int) {
	c.score.segmented.WithLabelValues(language).Add(float64(pairs))
}

// ObserveCache implements metric.HitObserver.
func (c *Collector) ObserveCache(metric string, hit bool) {
	if hit {
		c.cache.hits.WithLabelValues(metric).Inc()
	} else {
		c.cache.misses.WithLabelValues(metric).Inc()
	}
}

// statusClass 把状态码折叠为 2xx..5xx，控制标签基数
func statusClass(code int) string {
	if code < 200 || code > 599 {
		return "unknown"
	}
	return strconv.Itoa(code/100) + "xx"
}

// outcome 成功为 success，结构化错误取错误码，其余为 error
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case types.GetErrorCode(err) != "":
		return string(types.GetErrorCode(err))
	default:
		return "error"
	}
}
