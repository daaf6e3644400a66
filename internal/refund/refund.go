// Package refund implements the tiered cancellation refund schedule.
package refund

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MinDaysBeforeTrek is the last day on which a booking can still be cancelled.
const MinDaysBeforeTrek = 7

var ErrCancellationWindowClosed = errors.New("cancellation is not allowed within 7 days of the trek start date")

type tier struct {
	minDays int
	percent int64
}

// ordered from the most generous tier down
var tiers = []tier{
	{minDays: 30, percent: 100},
	{minDays: 15, percent: 75},
	{minDays: MinDaysBeforeTrek, percent: 50},
}

type Quote struct {
	DaysUntilTrek    int             `json:"days_until_trek"`
	RefundPercentage int64           `json:"refund_percentage"`
	RefundAmount     decimal.Decimal `json:"refund_amount"`
	CancellationFee  decimal.Decimal `json:"cancellation_fee"`
}

// Calculate quotes the refund for a booking totalling totalAmount that is
// cancelled daysUntilTrek days before departure.
func Calculate(daysUntilTrek int, totalAmount decimal.Decimal) (Quote, error) {
	for _, t := range tiers {
		if daysUntilTrek < t.minDays {
			continue
		}
		refund := totalAmount.Mul(decimal.NewFromInt(t.percent)).Div(decimal.NewFromInt(100)).Round(2)
		return Quote{
			DaysUntilTrek:    daysUntilTrek,
			RefundPercentage: t.percent,
			RefundAmount:     refund,
			CancellationFee:  totalAmount.Sub(refund).Round(2),
		}, nil
	}
	return Quote{}, ErrCancellationWindowClosed
}

// DaysUntil counts whole calendar days (UTC) from now until start. A trek
// starting today is 0 days away; one that already started is negative.
func DaysUntil(start, now time.Time) int {
	s := start.UTC()
	n := now.UTC()
	startDay := time.Date(s.Year(), s.Month(), s.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
	return int(startDay.Sub(today).Hours() / 24)
}
