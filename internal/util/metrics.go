package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookings_created_total",
		Help: "Total number of bookings created",
	})

	BookingsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_failed_total",
		Help: "Total number of failed booking attempts",
	}, []string{"reason"})

	SeatsReservedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "seats_reserved_total",
		Help: "Total number of seats reserved across all bookings",
	})

	EventLockConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "event_lock_conflicts_total",
		Help: "Total number of booking attempts rejected because the event lock was held",
	})

	PopularCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "popular_cache_hits_total",
		Help: "Total number of popular-listing cache hits",
	})

	PopularCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "popular_cache_misses_total",
		Help: "Total number of popular-listing cache misses",
	})

	PaymentAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_attempts_total",
		Help: "Total number of payment attempts",
	})

	PaymentSuccessTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_success_total",
		Help: "Total number of successful payment settlements",
	})

	PaymentFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_failed_total",
		Help: "Total number of failed payment settlements",
	}, []string{"reason"})

	PaymentInconsistenciesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payment_inconsistencies_total",
		Help: "Settled payments whose booking could not be marked paid",
	})

	SettlementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_latency_seconds",
		Help:    "Time from payment acceptance to settlement resolution",
		Buckets: prometheus.DefBuckets,
	})

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
