package booking

import (
	"context"

	"github.com/jmoiron/sqlx"

	"trekbook/internal/db"
	"trekbook/internal/inventory"
)

type sqlTxManager struct {
	db *sqlx.DB
}

// NewTxManager runs units of work as Postgres transactions on pool.
func NewTxManager(pool *sqlx.DB) TxManager {
	return &sqlTxManager{db: pool}
}

func (m *sqlTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	return db.WithTx(ctx, m.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &sqlUnitOfWork{
			inventory: inventory.NewRepository(tx),
			records:   NewRepository(tx),
		})
	})
}

type sqlUnitOfWork struct {
	inventory inventory.Ledger
	records   RecordStore
}

func (u *sqlUnitOfWork) Inventory() inventory.Ledger { return u.inventory }

func (u *sqlUnitOfWork) Records() RecordStore { return u.records }
