package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	BatchActive   = "active"
	BatchInactive = "inactive"
)

// Batch is one scheduled departure of a trek. AvailableSlots is the number of
// seats still for sale; AvailableSlots + BookedSlots is the batch capacity.
type Batch struct {
	ID             int             `db:"id" json:"id"`
	TrekID         int             `db:"trek_id" json:"trek_id"`
	TrekName       string          `db:"trek_name" json:"trek_name"`
	StartDate      time.Time       `db:"start_date" json:"start_date"`
	EndDate        time.Time       `db:"end_date" json:"end_date"`
	Price          decimal.Decimal `db:"price" json:"price"`
	AvailableSlots int             `db:"available_slots" json:"available_slots"`
	BookedSlots    int             `db:"booked_slots" json:"booked_slots"`
	Status         string          `db:"status" json:"status"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

func (b Batch) Capacity() int {
	return b.AvailableSlots + b.BookedSlots
}

type BatchWithAvailability struct {
	Batch
	Availability string `json:"availability" example:"selling-fast"`
}

// AvailabilityLabel is the storefront badge shown for a batch.
func AvailabilityLabel(b Batch) string {
	switch {
	case b.Status != BatchActive:
		return "inactive"
	case b.AvailableSlots <= 0:
		return "sold-out"
	case b.AvailableSlots <= 3:
		return "last-seat"
	case b.AvailableSlots <= 10:
		return "selling-fast"
	default:
		return "available"
	}
}

func WithAvailability(b Batch) BatchWithAvailability {
	return BatchWithAvailability{Batch: b, Availability: AvailabilityLabel(b)}
}
