package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"allocation/internal/adapters/out/postgres/pgerr"
	"allocation/internal/adapters/out/postgres/productrepo"
	"allocation/internal/core/ports"
	"allocation/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PessimisticController serialises allocations for a sku on the product row lock.
// The lock is transaction scoped and goes away at commit or rollback.
type PessimisticController struct {
	lockTimeout time.Duration
}

func NewPessimisticController(lockTimeout time.Duration) *PessimisticController {
	return &PessimisticController{lockTimeout: lockTimeout}
}

func (c *PessimisticController) Strategy() Strategy {
	return Pessimistic
}

// Acquire blocks until the product row for sku is locked by tx. It returns
// ports.ErrProductNotFound when there is no row and ports.ErrLockNotAvailable when
// the lock timeout expires first.
func (c *PessimisticController) Acquire(ctx context.Context, tx *gorm.DB, sku string) (*ProductLock, error) {
	if c.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", lockTimeoutMillis(c.lockTimeout))
		if err := tx.WithContext(ctx).Exec(stmt).Error; err != nil {
			return nil, err
		}
	}

	var row productrepo.ProductDTO
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "sku", "version").
		Where("sku = ?", sku).
		Take(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("%w: %w", ports.ErrProductNotFound, errs.NewObjectNotFoundError("sku", sku))
	case pgerr.IsLockNotAvailable(err):
		return nil, fmt.Errorf("%w: sku %s: %w", ports.ErrLockNotAvailable, sku, err)
	case err != nil:
		return nil, err
	}

	return &ProductLock{ID: row.ID, SKU: row.SKU, Version: row.Version}, nil
}

// Advance bumps the version of the locked row. No other writer can have moved it,
// so readVersion is not compared.
func (c *PessimisticController) Advance(ctx context.Context, tx *gorm.DB, sku string, _ int) error {
	result := tx.WithContext(ctx).Exec("UPDATE product SET version = version + 1 WHERE sku = ?", sku)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %w", ports.ErrProductNotFound, errs.NewObjectNotFoundError("sku", sku))
	}
	return nil
}

// lockTimeoutMillis rounds d up to whole milliseconds. Postgres reads 0 as no
// timeout, so any positive d yields at least 1.
func lockTimeoutMillis(d time.Duration) int64 {
	return int64((d + time.Millisecond - 1) / time.Millisecond)
}
