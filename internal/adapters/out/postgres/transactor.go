package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"allocation/internal/adapters/out/postgres/pgerr"
	"allocation/internal/core/ports"
	"allocation/internal/pkg/uow"

	"gorm.io/gorm"
)

// GormTransactor drives one GORM transaction for a uow.UnitOfWork. Repositories
// obtain the live transaction through DB.
type GormTransactor struct {
	db   *gorm.DB
	tx   *gorm.DB
	opts []*sql.TxOptions
}

// NewGormTransactor creates a transactor on the shared pool db.
func NewGormTransactor(db *gorm.DB, opts ...*sql.TxOptions) *GormTransactor {
	return &GormTransactor{db: db, opts: opts}
}

// Begin takes a connection from the pool and opens the transaction. The
// transaction is bound to ctx: cancelling ctx aborts it.
func (t *GormTransactor) Begin(ctx context.Context) error {
	if t.tx != nil {
		return nil
	}

	tx := t.db.WithContext(ctx).Begin(t.opts...)
	if tx.Error != nil {
		return tx.Error
	}

	t.tx = tx
	return nil
}

// Commit commits the transaction. Serialization failures and deadlocks reported
// at commit are returned as ports.ErrVersionConflict.
func (t *GormTransactor) Commit(_ context.Context) error {
	if t.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := t.tx.Commit().Error
	if pgerr.IsRetryable(err) {
		return fmt.Errorf("%w: %w", ports.ErrVersionConflict, err)
	}
	return err
}

// Rollback rolls the transaction back. A transaction that the driver already
// ended, for instance because its context was cancelled, counts as rolled back.
func (t *GormTransactor) Rollback(_ context.Context) error {
	if t.tx == nil {
		return gorm.ErrInvalidTransaction
	}

	err := t.tx.Rollback().Error
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// Release hands the connection back to the pool, aborting the transaction if it
// is still open. It is safe to call without a transaction.
func (t *GormTransactor) Release(ctx context.Context) error {
	if t.tx == nil {
		return nil
	}

	err := t.Rollback(ctx)
	t.tx = nil
	return err
}

// DB returns the open transaction, or the pool when no transaction is open.
func (t *GormTransactor) DB() *gorm.DB {
	if t.tx != nil {
		return t.tx
	}
	return t.db
}

// recordError adds err to u unless Init already recorded it as a connection failure.
func recordError(u *uow.UnitOfWork, err error) error {
	if err == nil {
		return nil
	}
	var connErr *uow.ConnectionError
	if !errors.As(err, &connErr) {
		u.AddError(err)
	}
	return err
}
