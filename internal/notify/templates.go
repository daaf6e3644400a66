package notify

import (
	"fmt"

	"trekbook/internal/booking"
	"trekbook/internal/refund"
)

const dateLayout = "Jan 2, 2006"

func confirmationMessage(b *booking.Booking) (subject, body string) {
	subject = fmt.Sprintf("Booking Received - %s (%s)", b.TrekName, b.BookingReference)

	deadline := "-"
	if b.PaymentDeadline != nil {
		deadline = b.PaymentDeadline.Format(dateLayout)
	}

	body = fmt.Sprintf(`Hi %s,

Thank you for booking with us. Your seats are reserved.

Reference: %s
Trek: %s
Dates: %s - %s
Participants: %d

Base price: %s
Add-ons: %s
Tax: %s
Total: %s

Amount paid: %s
Balance due: %s (by %s)

- Trekbook Team`,
		b.CustomerName,
		b.BookingReference,
		b.TrekName,
		b.StartDate.Format(dateLayout), b.EndDate.Format(dateLayout),
		b.Participants,
		b.BasePrice.StringFixed(2),
		b.AddOnsTotal.StringFixed(2),
		b.TaxAmount.StringFixed(2),
		b.TotalAmount.StringFixed(2),
		b.AmountPaid.StringFixed(2),
		b.BalanceDue.StringFixed(2), deadline,
	)
	return subject, body
}

func cancellationMessage(b *booking.Booking, q refund.Quote) (subject, body string) {
	subject = fmt.Sprintf("Booking Cancelled - %s (%s)", b.TrekName, b.BookingReference)

	reason := ""
	if b.CancellationReason != nil {
		reason = *b.CancellationReason
	}

	body = fmt.Sprintf(`Hi %s,

Your booking has been cancelled.

Reference: %s
Trek: %s
Departure: %s
Reason: %s

Days before departure: %d
Refund: %d%% (%s)
Cancellation fee: %s

- Trekbook Team`,
		b.CustomerName,
		b.BookingReference,
		b.TrekName,
		b.StartDate.Format(dateLayout),
		reason,
		q.DaysUntilTrek,
		q.RefundPercentage, q.RefundAmount.StringFixed(2),
		q.CancellationFee.StringFixed(2),
	)
	return subject, body
}
