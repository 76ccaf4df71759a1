package postgres

import (
	"context"
	"fmt"

	"allocation/internal/core/ports"
	"allocation/internal/pkg/errs"

	"gorm.io/gorm"
)

// OptimisticController lets allocations read concurrently and admits only the first
// writer for a given product version.
type OptimisticController struct{}

func NewOptimisticController() *OptimisticController {
	return &OptimisticController{}
}

func (c *OptimisticController) Strategy() Strategy {
	return Optimistic
}

// Acquire takes no lock.
func (c *OptimisticController) Acquire(context.Context, *gorm.DB, string) (*ProductLock, error) {
	return nil, nil //nolint:nilnil // no lock is the optimistic contract
}

// Advance moves the version from readVersion to readVersion+1. When another
// transaction got there first no row matches and ports.ErrVersionConflict is
// returned; the caller must roll back so its order line disappears too.
func (c *OptimisticController) Advance(ctx context.Context, tx *gorm.DB, sku string, readVersion int) error {
	result := tx.WithContext(ctx).Exec(
		"UPDATE product SET version = version + 1 WHERE sku = ? AND version = ?",
		sku, readVersion,
	)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %w", ports.ErrVersionConflict, errs.NewVersionIsInvalidErrorWithCause(
			"version",
			fmt.Errorf("sku %s is no longer at version %d", sku, readVersion),
		))
	}
	return nil
}
