package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collectors register with the default registry on package init.
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mr_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "code", "method"},
	)

	BookingOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mr_booking_operations_total",
			Help: "Booking operations by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	SeatsCommitted = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mr_seats_committed",
			Help: "Seats currently committed per show",
		},
		[]string{"show_id"},
	)

	BookingsAbandoned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mr_bookings_abandoned_total",
			Help: "Unconfirmed bookings abandoned after their hold expired",
		},
	)

	OutboxDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mr_outbox_dropped_total",
			Help: "Booking events dropped because the outbox was full",
		},
	)

	PublishRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mr_event_publish_retries_total",
			Help: "Total booking event publish retries",
		},
	)

	RateLimitExceeded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mr_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)
)
