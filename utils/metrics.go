package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RidesCreatedTotal    = promauto.NewCounter(prometheus.CounterOpts{Namespace: "fareshare", Name: "rides_created_total", Help: "Total rides created"})
	BookingsCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{Namespace: "fareshare", Name: "bookings_created_total", Help: "Total bookings created"})
	NearbySearchesTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "fareshare", Name: "nearby_searches_total", Help: "Total nearby ride searches"})
	GeocodeLimitedTotal  = promauto.NewCounter(prometheus.CounterOpts{Namespace: "fareshare", Name: "geocode_rate_limited_total", Help: "Geocode requests rejected by the rate limiter"})

	BookingStatusTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "fareshare", Name: "booking_status_changes_total", Help: "Booking status transitions applied"},
		[]string{"status"},
	)
)
