package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 分析引擎业务指标
	MasteryUpdateCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mastery_updates_total",
			Help: "Total number of knowledge point mastery updates",
		},
		[]string{"status"},
	)

	PlanGeneratedCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tutoring_plans_generated_total",
			Help: "Total number of tutoring plans generated",
		},
	)

	TextFallbackCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "plan_text_fallbacks_total",
			Help: "Total number of plan descriptions that fell back to templates",
		},
	)

	StatsCacheCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "exam_statistics_cache_total",
			Help: "Exam statistics cache hits and misses",
		},
		[]string{"result"},
	)
)

func Init() {
	prometheus.MustRegister(RequestCounter)
	prometheus.MustRegister(RequestDuration)
	prometheus.MustRegister(MasteryUpdateCounter)
	prometheus.MustRegister(PlanGeneratedCounter)
	prometheus.MustRegister(TextFallbackCounter)
	prometheus.MustRegister(StatsCacheCounter)
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
