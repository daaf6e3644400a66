package inventory

import "context"

// Ledger owns the seat counters of a batch. Both calls must run inside the
// caller's transaction.
type Ledger interface {
	// Reserve moves count seats from available to booked, or fails with
	// ErrInsufficientCapacity without touching the row.
	Reserve(ctx context.Context, batchID, count int) error
	Release(ctx context.Context, batchID, count int) error
}

type Reader interface {
	GetBatch(ctx context.Context, id int) (*Batch, error)
	ListBatchesByTrek(ctx context.Context, trekID int, onlyFuture bool) ([]Batch, error)
}

type Repository interface {
	Ledger
	Reader
}
