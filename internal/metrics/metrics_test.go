package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()
	HTTPRequestDuration.Reset()

	RecordHTTPRequest("POST", "/batches/:batchID/bookings", "201", 0.25)
	RecordHTTPRequest("POST", "/batches/:batchID/bookings", "201", 0.1)
	RecordHTTPRequest("POST", "/batches/:batchID/bookings", "409", 0.05)

	created := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/batches/:batchID/bookings", "201"))
	conflict := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("POST", "/batches/:batchID/bookings", "409"))

	assert.Equal(t, float64(2), created)
	assert.Equal(t, float64(1), conflict)
	assert.Equal(t, 1, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestRecordBooking(t *testing.T) {
	BookingsTotal.Reset()

	testCounter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trekbook_booked_slots_total_test",
		Help: "Total number of slots reserved by successful bookings",
	})
	oldCounter := BookedSlotsTotal
	BookedSlotsTotal = testCounter
	defer func() { BookedSlotsTotal = oldCounter }()

	RecordBooking("created", 3)
	RecordBooking("created", 2)
	RecordBooking("rejected", 4)

	assert.Equal(t, float64(2), testutil.ToFloat64(BookingsTotal.WithLabelValues("created")))
	assert.Equal(t, float64(1), testutil.ToFloat64(BookingsTotal.WithLabelValues("rejected")))
	assert.Equal(t, float64(5), testutil.ToFloat64(testCounter))
}

func TestRecordBookingFailure(t *testing.T) {
	BookingFailuresTotal.Reset()

	RecordBookingFailure("create", "insufficient_capacity")
	RecordBookingFailure("create", "insufficient_capacity")
	RecordBookingFailure("cancel", "window_closed")

	assert.Equal(t, float64(2), testutil.ToFloat64(BookingFailuresTotal.WithLabelValues("create", "insufficient_capacity")))
	assert.Equal(t, float64(1), testutil.ToFloat64(BookingFailuresTotal.WithLabelValues("cancel", "window_closed")))
}

func TestRecordBookingCancellation(t *testing.T) {
	cancellations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trekbook_booking_cancellations_total_test",
		Help: "Total number of booking cancellations",
	})
	refunded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "trekbook_refunded_amount_total_test",
		Help: "Sum of refund amounts granted on cancellation",
	})

	oldCancellations, oldRefunded := BookingCancellationsTotal, RefundedAmountTotal
	BookingCancellationsTotal, RefundedAmountTotal = cancellations, refunded
	defer func() { BookingCancellationsTotal, RefundedAmountTotal = oldCancellations, oldRefunded }()

	RecordBookingCancellation(750)
	RecordBookingCancellation(0)

	assert.Equal(t, float64(2), testutil.ToFloat64(cancellations))
	assert.Equal(t, float64(750), testutil.ToFloat64(refunded))
}

func TestRecordNotification(t *testing.T) {
	NotificationsTotal.Reset()

	RecordNotification("booking_confirmation", "queued")
	RecordNotification("booking_confirmation", "failed")
	RecordNotification("booking.created", "published")

	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsTotal.WithLabelValues("booking_confirmation", "queued")))
	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsTotal.WithLabelValues("booking_confirmation", "failed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(NotificationsTotal.WithLabelValues("booking.created", "published")))
}

func TestNotificationQueueLength(t *testing.T) {
	NotificationQueueLength.Set(10)
	assert.Equal(t, float64(10), testutil.ToFloat64(NotificationQueueLength))

	NotificationQueueLength.Set(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(NotificationQueueLength))
}
