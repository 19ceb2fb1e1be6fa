package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the dashboard's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dashboard",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dashboard",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	activityEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "activity",
			Name:      "events_total",
			Help:      "Activity log entries written, by action type.",
		},
		[]string{"action"},
	)

	heroStock = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dashboard",
			Subsystem: "hero",
			Name:      "stock_quantity",
			Help:      "Hero inventory quantity after the last write.",
		},
	)

	versionConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "db",
			Name:      "version_conflicts_total",
			Help:      "Optimistic concurrency conflicts, by aggregate.",
		},
		[]string{"aggregate"},
	)

	checkoutLines = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dashboard",
			Subsystem: "fence",
			Name:      "checkout_lines",
			Help:      "Number of cart lines per fence checkout.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"kind"},
	)

	rateLimited = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dashboard",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by a rate limiter.",
		},
		[]string{"limiter"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		activityEvents,
		heroStock,
		versionConflicts,
		checkoutLines,
		rateLimited,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func RequestStarted() {
	httpInFlight.Inc()
}

// RequestFinished records one handled request. route is the matched route
// pattern so ids do not explode the label space.
func RequestFinished(method string, route string, status int, duration time.Duration) {
	httpInFlight.Dec()
	if route == "" {
		route = "unmatched"
	}
	method = strings.ToUpper(method)
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordActivity(action string) {
	activityEvents.WithLabelValues(action).Inc()
}

func SetHeroStock(quantity int) {
	heroStock.Set(float64(quantity))
}

func RecordVersionConflict(aggregate string) {
	versionConflicts.WithLabelValues(aggregate).Inc()
}

func RecordCheckout(kind string, lines int) {
	checkoutLines.WithLabelValues(kind).Observe(float64(lines))
}

func RecordRateLimited(limiter string) {
	rateLimited.WithLabelValues(limiter).Inc()
}
