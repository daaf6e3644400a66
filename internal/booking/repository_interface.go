package booking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"trekbook/internal/inventory"
)

// RecordStore is the transactional write side of the booking records.
type RecordStore interface {
	// FindConflicting returns the booking that blocks a new one for the same
	// user, trek and batch, preferring a completed one. Nil means none.
	FindConflicting(ctx context.Context, userID, trekID, batchID int) (*Booking, error)
	// Insert persists b with its participants and add-ons and sets the
	// generated ids on all of them.
	Insert(ctx context.Context, b *Booking, participants []Participant, addOns []AddOn) error
	// GetForUpdate loads and row-locks a booking owned by userID.
	GetForUpdate(ctx context.Context, bookingID, userID int) (*Booking, error)
	// MarkCancelled is the one-way transition to cancelled. It fails with
	// ErrAlreadyCancelled when the booking is no longer open.
	MarkCancelled(ctx context.Context, bookingID int, reason string, refundAmount, fee decimal.Decimal, at time.Time) error
}

type Reader interface {
	GetByID(ctx context.Context, bookingID int) (*Booking, error)
	GetUserBookings(ctx context.Context, userID int) ([]Booking, error)
	GetBookingsByBatch(ctx context.Context, batchID int) ([]Booking, error)
	GetParticipants(ctx context.Context, bookingID int) ([]Participant, error)
	GetAddOns(ctx context.Context, bookingID int) ([]AddOn, error)
	MarkConfirmationSent(ctx context.Context, bookingID int) error
}

type Repository interface {
	RecordStore
	Reader
}

// UnitOfWork exposes the stores bound to one open transaction.
type UnitOfWork interface {
	Inventory() inventory.Ledger
	Records() RecordStore
}

// TxManager runs fn in a single transaction, committing only when fn returns
// nil.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
