package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartAddsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_adds_total",
		Help: "Total number of add-to-cart operations",
	})

	CartRemovalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_removals_total",
		Help: "Total number of cart line removals",
	})

	CartClearsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cart_clears_total",
		Help: "Total number of times the cart was emptied",
	})

	ComparisonAddsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "comparison_adds_total",
		Help: "Total number of products added to the comparison set",
	})

	ComparisonLimitReachedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "comparison_limit_reached_total",
		Help: "Total number of comparison adds rejected at capacity",
	})

	RecentlyViewedTrackedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "recently_viewed_tracked_total",
		Help: "Total number of product views tracked",
	})

	RecommendationRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommendation_requests_total",
		Help: "Total number of recommendation list computations",
	}, []string{"strategy"})

	RecommendationLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommendation_latency_seconds",
		Help:    "Latency of combined recommendation computation",
		Buckets: prometheus.DefBuckets,
	})

	StorageCorruptionTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "storage_corruption_total",
		Help: "Total number of persisted payloads discarded as unparseable",
	}, []string{"key"})

	AnalyticsEventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_events_published_total",
		Help: "Total number of analytics events published",
	}, []string{"event"})

	AnalyticsEventsProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_events_processed_total",
		Help: "Total number of analytics events processed by the worker",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
