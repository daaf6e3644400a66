package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var (
	ErrInsufficientCapacity = errors.New("insufficient available slots or batch not bookable")
	ErrBatchNotFound        = errors.New("batch not found")
)

type repository struct {
	db sqlx.ExtContext
}

// NewRepository binds the ledger to db, which is either the pool (reads) or
// an open *sqlx.Tx (reserve/release).
func NewRepository(db sqlx.ExtContext) Repository {
	return &repository{db: db}
}

func (r *repository) Reserve(ctx context.Context, batchID, count int) error {
	if count <= 0 {
		return fmt.Errorf("reserve %d slots: count must be positive", count)
	}

	query := `
		UPDATE trek_batches
		SET available_slots = available_slots - $1, booked_slots = booked_slots + $1, updated_at = NOW()
		WHERE id = $2 AND status = 'active' AND available_slots >= $1
	`

	result, err := r.db.ExecContext(ctx, query, count, batchID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrInsufficientCapacity
	}

	return nil
}

func (r *repository) Release(ctx context.Context, batchID, count int) error {
	query := `
		UPDATE trek_batches
		SET available_slots = available_slots + $1, booked_slots = booked_slots - $1, updated_at = NOW()
		WHERE id = $2
	`

	result, err := r.db.ExecContext(ctx, query, count, batchID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrBatchNotFound
	}

	return nil
}

const batchColumns = `
	tb.id, tb.trek_id, t.name AS trek_name, tb.start_date, tb.end_date, tb.price,
	tb.available_slots, tb.booked_slots, tb.status, tb.created_at, tb.updated_at
`

func (r *repository) GetBatch(ctx context.Context, id int) (*Batch, error) {
	query := `
		SELECT` + batchColumns + `
		FROM trek_batches tb
		JOIN treks t ON t.id = tb.trek_id
		WHERE tb.id = $1
	`

	var batch Batch
	err := sqlx.GetContext(ctx, r.db, &batch, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBatchNotFound
		}
		return nil, err
	}

	return &batch, nil
}

func (r *repository) ListBatchesByTrek(ctx context.Context, trekID int, onlyFuture bool) ([]Batch, error) {
	query := `
		SELECT` + batchColumns + `
		FROM trek_batches tb
		JOIN treks t ON t.id = tb.trek_id
		WHERE tb.trek_id = $1
	`

	if onlyFuture {
		query += " AND tb.start_date > CURRENT_DATE"
	}

	query += " ORDER BY tb.start_date ASC"

	batches := []Batch{}
	err := sqlx.SelectContext(ctx, r.db, &batches, query, trekID)
	if err != nil {
		return nil, err
	}

	return batches, nil
}
