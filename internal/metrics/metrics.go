package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hostel",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"method", "route", "code"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "hostel",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// AttendanceMarks counts marks by status and whether a record was
	// created or overwritten.
	AttendanceMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hostel",
		Name:      "attendance_marks_total",
		Help:      "Attendance marks by status and outcome.",
	}, []string{"status", "outcome"})

	ComplaintsFiled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hostel",
		Name:      "complaints_filed_total",
		Help:      "Complaints filed by category.",
	}, []string{"category"})

	ComplaintTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hostel",
		Name:      "complaint_status_changes_total",
		Help:      "Complaint status changes by new status.",
	}, []string{"status"})

	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "hostel",
		Name:      "notifications_total",
		Help:      "Notifications handled by the consumer by kind and result.",
	}, []string{"kind", "result"})

	storeMode = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hostel",
		Name:      "store_info",
		Help:      "Active store backend; mode is connected or degraded.",
	}, []string{"backend", "mode"})
)

// SetStore records which backend serves requests.
func SetStore(backend, mode string) {
	storeMode.Reset()
	storeMode.WithLabelValues(backend, mode).Set(1)
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
