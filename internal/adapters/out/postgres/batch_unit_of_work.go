package postgres

import (
	"context"
	"log/slog"

	"allocation/internal/adapters/out/postgres/batchrepo"
	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/ports"
	"allocation/internal/pkg/uow"

	"gorm.io/gorm"
)

// DefaultBatchPageSize bounds how many candidate batches one allocation reads.
const DefaultBatchPageSize = 100

type BatchUnitOfWorkFactory struct {
	db         *gorm.DB
	controller ConcurrencyController
	pageSize   int
	logger     *slog.Logger
}

// NewBatchUnitOfWorkFactory creates units reading at most pageSize candidate
// batches per allocation. A non-positive pageSize falls back to DefaultBatchPageSize.
// controller is shared with the product units so both allocation paths agree on
// the product version.
func NewBatchUnitOfWorkFactory(
	db *gorm.DB,
	controller ConcurrencyController,
	pageSize int,
	logger *slog.Logger,
) *BatchUnitOfWorkFactory {
	if pageSize <= 0 {
		pageSize = DefaultBatchPageSize
	}
	return &BatchUnitOfWorkFactory{
		db:         db,
		controller: controller,
		pageSize:   pageSize,
		logger:     logger,
	}
}

func (f *BatchUnitOfWorkFactory) Create() *BatchUnitOfWork {
	tx := NewGormTransactor(f.db)
	return &BatchUnitOfWork{
		UnitOfWork:   uow.New(tx, uow.WithLogger(f.logger)),
		tx:           tx,
		controller:   f.controller,
		pageSize:     f.pageSize,
		readVersions: make(map[string]int),
	}
}

var _ ports.BatchUnitOfWork = (*BatchUnitOfWork)(nil)

// BatchUnitOfWork allocates against batches without loading the whole product.
// Candidates goes through the ConcurrencyController before it row-locks the
// batches it returns, and Allocate advances the product version, so this path
// and ProductUnitOfWork see each other's allocations.
type BatchUnitOfWork struct {
	*uow.UnitOfWork

	tx           *GormTransactor
	controller   ConcurrencyController
	pageSize     int
	lock         *ProductLock
	readVersions map[string]int
}

func (u *BatchUnitOfWork) BatchRepository() ports.BatchRepository {
	return batchrepo.NewGormBatchRepository(u.tx.DB())
}

func (u *BatchUnitOfWork) PageSize() int {
	return u.pageSize
}

// Lock returns the product row lock held by the open transaction, or nil.
func (u *BatchUnitOfWork) Lock() *ProductLock {
	if u.State() != uow.Connected {
		return nil
	}
	return u.lock
}

func (u *BatchUnitOfWork) Add(ctx context.Context, b *batch.Batch) error {
	if err := u.Init(ctx); err != nil {
		return u.record(err)
	}
	return u.record(u.BatchRepository().Add(ctx, b))
}

// Candidates acquires the product for sku and then locks and returns up to
// PageSize batches of it, earliest ETA first. A sku without a product yields
// ports.ErrProductNotFound.
func (u *BatchUnitOfWork) Candidates(ctx context.Context, sku string) ([]*batch.Batch, error) {
	if err := u.Init(ctx); err != nil {
		return nil, u.record(err)
	}

	if _, err := u.acquire(ctx, sku); err != nil {
		return nil, u.record(err)
	}

	batches, err := u.BatchRepository().FindBySKUForUpdate(ctx, sku, u.pageSize)
	if err != nil {
		return nil, u.record(err)
	}
	return batches, nil
}

// Allocate stores line under b and advances the product version from the version
// read in this unit. The batch may already hold line in memory. Under the
// optimistic strategy a concurrent allocation yields ports.ErrVersionConflict.
func (u *BatchUnitOfWork) Allocate(
	ctx context.Context,
	b *batch.Batch,
	line orderline.OrderLine,
) (orderline.OrderLine, error) {
	if err := u.Init(ctx); err != nil {
		return orderline.OrderLine{}, u.record(err)
	}

	readVersion, err := u.acquire(ctx, b.SKU())
	if err != nil {
		return orderline.OrderLine{}, u.record(err)
	}

	allocated, err := u.BatchRepository().Allocate(ctx, b, line)
	if err != nil {
		return orderline.OrderLine{}, u.record(err)
	}

	if err = u.controller.Advance(ctx, u.tx.DB(), b.SKU(), readVersion); err != nil {
		return orderline.OrderLine{}, u.record(err)
	}
	u.readVersions[b.SKU()] = readVersion + 1

	return allocated, nil
}

// acquire runs the controller for sku once per unit and returns the product
// version this unit works from.
func (u *BatchUnitOfWork) acquire(ctx context.Context, sku string) (int, error) {
	if version, seen := u.readVersions[sku]; seen {
		return version, nil
	}

	lock, err := u.controller.Acquire(ctx, u.tx.DB(), sku)
	if err != nil {
		return 0, err
	}

	var version int
	if lock != nil {
		u.lock = lock
		version = lock.Version
	} else if version, err = readProductVersion(ctx, u.tx.DB(), sku); err != nil {
		return 0, err
	}

	u.readVersions[sku] = version
	return version, nil
}

func (u *BatchUnitOfWork) record(err error) error {
	return recordError(u.UnitOfWork, err)
}
