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
	// HTTPRequestsTotal counts handled requests by route template, method and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of http requests handled by the service.",
		},
		[]string{"path", "method", "code"},
	)

	// RepositoryOperationsTotal counts storage operations by entity, operation and outcome.
	RepositoryOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "repository_operations_total",
			Help: "Total number of repository operations.",
		},
		[]string{"entity", "op", "outcome"},
	)

	repositoryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_operation_duration_seconds",
			Help:    "Repository operation latency in seconds.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"entity", "op"},
	)

	// WebhookTriggersTotal counts outbound workflow invocations by workflow and outcome.
	WebhookTriggersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_triggers_total",
			Help: "Total number of workflow webhook invocations.",
		},
		[]string{"workflow", "outcome"},
	)
)

// ObserveRepository records one repository call. Outcome is "ok" or the error kind.
func ObserveRepository(entity, op, outcome string, started time.Time) {
	RepositoryOperationsTotal.WithLabelValues(entity, op, outcome).Inc()
	repositoryDuration.WithLabelValues(entity, op).Observe(time.Since(started).Seconds())
}

// ObserveWebhook records one webhook invocation.
func ObserveWebhook(workflow, outcome string) {
	WebhookTriggersTotal.WithLabelValues(workflow, outcome).Inc()
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

// Middleware counts every request once it completes.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		HTTPRequestsTotal.WithLabelValues(path, c.Request.Method, statusText(c.Writer.Status())).Inc()
	}
}

func statusText(code int) string {
	if code < 100 || code > 999 {
		return "unknown"
	}
	return strconv.Itoa(code)
}
