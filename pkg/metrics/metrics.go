package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ProxiesLive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "monitor_proxies_live",
			Help: "Current number of proxies in the live set.",
		},
	)

	ProxyEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_proxy_evictions_total",
			Help: "Total number of proxies removed from the live set.",
		},
		[]string{"reason"}, // canary, fetch
	)

	ProxyRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_proxy_refresh_total",
			Help: "Total number of proxy list refreshes.",
		},
		[]string{"status"}, // success, failure
	)

	CheckCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_check_cycles_total",
			Help: "Total number of finished search check cycles.",
		},
		[]string{"outcome"}, // done, abandoned, deferred
	)

	CheckAttemptErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_check_attempt_errors_total",
			Help: "Total number of failed attempts inside check cycles.",
		},
		[]string{"error_type"},
	)

	ItemsNewTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "monitor_items_new_total",
			Help: "Total number of new items persisted.",
		},
	)

	NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_notifications_total",
			Help: "Total number of notification attempts.",
		},
		[]string{"status"}, // success, failure
	)

	FetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "monitor_fetch_duration_seconds",
			Help:    "Duration of page fetches through proxies.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 15, 30, 60},
		},
		[]string{"page"}, // search, item
	)
)

var registerOnce sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			ProxiesLive,
			ProxyEvictionsTotal,
			ProxyRefreshTotal,
			CheckCyclesTotal,
			CheckAttemptErrorsTotal,
			ItemsNewTotal,
			NotificationsTotal,
			FetchDuration,
		)
	})
}
