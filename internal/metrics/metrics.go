package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuthEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_auth_events_total",
		Help: "Authentication events by kind and outcome",
	}, []string{"event", "result"})
	TogglesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_toggles_total",
		Help: "Like and subscription toggles by kind and resulting state",
	}, []string{"kind", "state"})
	MediaOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "videotube_media_operations_total",
		Help: "Media storage operations by kind and outcome",
	}, []string{"op", "result"})
	MediaUploadSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "videotube_media_upload_seconds",
		Help:    "Time spent uploading media to object storage",
		Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
	})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
	HttpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(
		AuthEventsTotal, TogglesTotal, MediaOperationsTotal, MediaUploadSeconds,
		HttpRequestsTotal, HttpRequestDuration,
	)
}

// Result labels an outcome as "ok" or "error".
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// State labels a toggle outcome.
func State(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// GinMiddleware records request counts and latencies per route.
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		labels := prometheus.Labels{"method": c.Request.Method, "path": path, "status": status}
		HttpRequestsTotal.With(labels).Inc()
		HttpRequestDuration.With(labels).Observe(time.Since(start).Seconds())
	}
}
