package utils

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cashx",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "cashx",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		},
		[]string{"method", "route"},
	)

	rewardCredits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cashx",
			Subsystem: "ledger",
			Name:      "credits_total",
			Help:      "Number of committed reward credits.",
		},
		[]string{"kind"},
	)

	rewardAmount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "cashx",
			Subsystem: "ledger",
			Name:      "credited_amount_total",
			Help:      "Sum of committed reward credits in minor units.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(httpRequests, httpDuration, rewardCredits, rewardAmount)
}

// ObserveHTTP records one finished request.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveReward records a committed ledger credit.
func ObserveReward(kind string, amount int64) {
	rewardCredits.WithLabelValues(kind).Inc()
	rewardAmount.WithLabelValues(kind).Add(float64(amount))
}

// MetricsHandler exposes Registry for scraping.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
