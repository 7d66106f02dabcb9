package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "region_access",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests processed",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "region_access",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "path"})

	// Boundary dataset metrics
	DatasetLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "region_access",
		Subsystem: "boundary",
		Name:      "dataset_loads_total",
		Help:      "Boundary dataset loads by outcome",
	}, []string{"dataset", "outcome"})

	DatasetLoadDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "region_access",
		Subsystem: "boundary",
		Name:      "dataset_load_duration_seconds",
		Help:      "Time spent fetching and indexing a boundary dataset",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"dataset"})

	SkippedFeatures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "region_access",
		Subsystem: "boundary",
		Name:      "skipped_features_total",
		Help:      "GeoJSON features skipped because of malformed geometry",
	}, []string{"dataset"})

	// Authorization metrics
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "region_access",
		Subsystem: "authz",
		Name:      "decisions_total",
		Help:      "Region access decisions by reason",
	}, []string{"reason"})

	AccessListCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "region_access",
		Subsystem: "authz",
		Name:      "access_list_cache_total",
		Help:      "Access list cache lookups by result",
	}, []string{"result"})
)

// Load outcomes
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeDiscarded = "discarded"
)

// RecordDatasetLoad データセット読み込みの結果を記録
func RecordDatasetLoad(dataset, outcome string, elapsed time.Duration) {
	DatasetLoads.WithLabelValues(dataset, outcome).Inc()
	DatasetLoadDuration.WithLabelValues(dataset).Observe(elapsed.Seconds())
}

// RecordDecision 認可判定の理由を記録
func RecordDecision(reason string) {
	AccessDecisions.WithLabelValues(reason).Inc()
}

// Middleware records HTTP request metrics for every route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes the Prometheus metrics endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
