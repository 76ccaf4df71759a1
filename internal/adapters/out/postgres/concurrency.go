package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"allocation/internal/adapters/out/postgres/productrepo"
	"allocation/internal/core/ports"
	"allocation/internal/pkg/errs"

	"gorm.io/gorm"
)

// Strategy selects how concurrent allocations for one sku are kept apart.
type Strategy string

const (
	// Pessimistic locks the product row before reading it.
	Pessimistic Strategy = "PESSIMISTIC"
	// Optimistic reads freely and advances the version with a compare-and-swap.
	Optimistic Strategy = "OPTIMISTIC"
)

// ParseStrategy accepts a strategy name in any letter case.
func ParseStrategy(name string) (Strategy, error) {
	switch s := Strategy(strings.ToUpper(strings.TrimSpace(name))); s {
	case Pessimistic, Optimistic:
		return s, nil
	default:
		return "", fmt.Errorf("unknown concurrency control strategy %q", name)
	}
}

func (s Strategy) String() string {
	return string(s)
}

// ProductLock is the product row read under SELECT ... FOR UPDATE. It is only
// meaningful while the transaction that took it is open.
type ProductLock struct {
	ID      uint
	SKU     string
	Version int
}

// ConcurrencyController guards "read product, allocate, write order line" inside
// one transaction. Controllers hold no state; tx is the caller's open transaction.
type ConcurrencyController interface {
	Strategy() Strategy

	// Acquire runs before the product is read. The pessimistic controller returns
	// the lock it holds; the optimistic one returns nil.
	Acquire(ctx context.Context, tx *gorm.DB, sku string) (*ProductLock, error)

	// Advance runs after the order line is written and bumps the product version.
	// readVersion is the version the product was loaded with.
	Advance(ctx context.Context, tx *gorm.DB, sku string, readVersion int) error
}

// NewConcurrencyController returns the controller for strategy. lockTimeout bounds
// the pessimistic lock wait; zero waits indefinitely.
func NewConcurrencyController(strategy Strategy, lockTimeout time.Duration) (ConcurrencyController, error) {
	switch strategy {
	case Pessimistic:
		return NewPessimisticController(lockTimeout), nil
	case Optimistic:
		return NewOptimisticController(), nil
	default:
		return nil, fmt.Errorf("unknown concurrency control strategy %q", strategy)
	}
}

// readProductVersion reads the current version of the product row without locking it.
func readProductVersion(ctx context.Context, tx *gorm.DB, sku string) (int, error) {
	var row productrepo.ProductDTO
	err := tx.WithContext(ctx).
		Select("version").
		Where("sku = ?", sku).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, fmt.Errorf("%w: %w", ports.ErrProductNotFound, errs.NewObjectNotFoundError("sku", sku))
	}
	if err != nil {
		return 0, err
	}
	return row.Version, nil
}
