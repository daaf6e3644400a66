package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trekbook_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trekbook_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trekbook_bookings_total",
			Help: "Total number of booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	BookingFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trekbook_booking_failures_total",
			Help: "Total number of rejected or failed booking operations by reason",
		},
		[]string{"operation", "reason"},
	)

	BookedSlotsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trekbook_booked_slots_total",
			Help: "Total number of slots reserved by successful bookings",
		},
	)

	BookingCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trekbook_booking_cancellations_total",
			Help: "Total number of booking cancellations",
		},
	)

	RefundedAmountTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trekbook_refunded_amount_total",
			Help: "Sum of refund amounts granted on cancellation",
		},
	)

	ReferenceCollisionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "trekbook_booking_reference_collisions_total",
			Help: "Total number of booking reference collisions that forced a retry",
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trekbook_notifications_total",
			Help: "Total number of notifications and events by type and status",
		},
		[]string{"type", "status"},
	)

	NotificationQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "trekbook_notification_queue_length",
			Help: "Current length of the notification queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(outcome string, slots int) {
	BookingsTotal.WithLabelValues(outcome).Inc()
	if outcome == "created" {
		BookedSlotsTotal.Add(float64(slots))
	}
}

func RecordBookingFailure(operation, reason string) {
	BookingFailuresTotal.WithLabelValues(operation, reason).Inc()
}

func RecordBookingCancellation(refunded float64) {
	BookingCancellationsTotal.Inc()
	if refunded > 0 {
		RefundedAmountTotal.Add(refunded)
	}
}

func RecordReferenceCollision() {
	ReferenceCollisionsTotal.Inc()
}

func RecordNotification(notificationType, status string) {
	NotificationsTotal.WithLabelValues(notificationType, status).Inc()
}
