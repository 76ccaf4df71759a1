package postgres

import (
	"context"
	"log/slog"

	"allocation/internal/adapters/out/postgres/productrepo"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/domain/model/product"
	"allocation/internal/core/ports"
	"allocation/internal/pkg/uow"

	"gorm.io/gorm"
)

// ProductUnitOfWorkFactory creates product units of work on a shared pool with one
// concurrency strategy.
type ProductUnitOfWorkFactory struct {
	db         *gorm.DB
	controller ConcurrencyController
	logger     *slog.Logger
}

func NewProductUnitOfWorkFactory(
	db *gorm.DB,
	controller ConcurrencyController,
	logger *slog.Logger,
) *ProductUnitOfWorkFactory {
	return &ProductUnitOfWorkFactory{
		db:         db,
		controller: controller,
		logger:     logger,
	}
}

// Create returns a fresh unit of work. It takes no connection until Init.
func (f *ProductUnitOfWorkFactory) Create() *ProductUnitOfWork {
	tx := NewGormTransactor(f.db)
	return &ProductUnitOfWork{
		UnitOfWork:   uow.New(tx, uow.WithLogger(f.logger)),
		tx:           tx,
		controller:   f.controller,
		readVersions: make(map[string]int),
	}
}

var _ ports.ProductUnitOfWork = (*ProductUnitOfWork)(nil)

// ProductUnitOfWork allocates order lines against a product while the configured
// ConcurrencyController keeps concurrent allocations for the same sku consistent.
// Errors returned by its operations are recorded, so Dispose rolls back after any
// failure.
type ProductUnitOfWork struct {
	*uow.UnitOfWork

	tx           *GormTransactor
	controller   ConcurrencyController
	lock         *ProductLock
	readVersions map[string]int
}

// ProductRepository returns a repository bound to this unit's transaction.
func (u *ProductUnitOfWork) ProductRepository() ports.ProductRepository {
	return productrepo.NewGormProductRepository(u.tx.DB())
}

// Strategy reports the concurrency strategy in use.
func (u *ProductUnitOfWork) Strategy() Strategy {
	return u.controller.Strategy()
}

// Lock returns the product row lock held by the open transaction, or nil.
func (u *ProductUnitOfWork) Lock() *ProductLock {
	if u.State() != uow.Connected {
		return nil
	}
	return u.lock
}

// Add persists a new product.
func (u *ProductUnitOfWork) Add(ctx context.Context, p *product.Product) error {
	return u.record(u.run(ctx, func(repo ports.ProductRepository) error {
		return repo.Add(ctx, p)
	}))
}

// Get loads the product for sku under the concurrency strategy: the pessimistic
// strategy holds the product row lock from here until the unit ends.
func (u *ProductUnitOfWork) Get(ctx context.Context, sku string) (*product.Product, error) {
	var p *product.Product
	err := u.run(ctx, func(repo ports.ProductRepository) error {
		var getErr error
		p, getErr = u.read(ctx, repo, sku)
		return getErr
	})
	if err != nil {
		return nil, u.record(err)
	}
	return p, nil
}

// Save writes the product's batches and allocations and advances its version from
// the version it was read with in this unit, or p.Version() when it was not read
// here. Under the optimistic strategy a concurrent writer yields
// ports.ErrVersionConflict.
func (u *ProductUnitOfWork) Save(ctx context.Context, p *product.Product) error {
	return u.record(u.run(ctx, func(repo ports.ProductRepository) error {
		readVersion, ok := u.readVersions[p.SKU()]
		if !ok {
			readVersion = p.Version()
		}

		if err := repo.Save(ctx, p); err != nil {
			return err
		}
		if err := u.controller.Advance(ctx, u.tx.DB(), p.SKU(), readVersion); err != nil {
			return err
		}

		u.readVersions[p.SKU()] = readVersion + 1
		return nil
	}))
}

// Allocate allocates line to a batch of its sku and returns the batch reference.
//
// Pessimistic: lock the product row, read, allocate, insert the order line, bump
// the version. Optimistic: read, allocate, insert, then bump the version only if it
// still equals the version read. A lost race yields ports.ErrVersionConflict.
// A line the product already holds returns its batch without any write.
func (u *ProductUnitOfWork) Allocate(ctx context.Context, line orderline.OrderLine) (string, error) {
	var ref string
	err := u.run(ctx, func(repo ports.ProductRepository) error {
		p, err := u.read(ctx, repo, line.SKU())
		if err != nil {
			return err
		}
		readVersion := p.Version()

		result, err := repo.Allocate(ctx, p, line)
		if err != nil {
			return err
		}
		if result.Existing {
			ref = result.BatchReference
			return nil
		}

		if err = u.controller.Advance(ctx, u.tx.DB(), line.SKU(), readVersion); err != nil {
			return err
		}

		u.readVersions[line.SKU()] = readVersion + 1
		ref = result.BatchReference
		return nil
	})
	if err != nil {
		return "", u.record(err)
	}
	return ref, nil
}

// read acquires the concurrency control for sku and loads the product.
func (u *ProductUnitOfWork) read(ctx context.Context, repo ports.ProductRepository, sku string) (*product.Product, error) {
	lock, err := u.controller.Acquire(ctx, u.tx.DB(), sku)
	if err != nil {
		return nil, err
	}
	if lock != nil {
		u.lock = lock
	}

	p, err := repo.Get(ctx, sku)
	if err != nil {
		return nil, err
	}

	if _, seen := u.readVersions[sku]; !seen {
		u.readVersions[sku] = p.Version()
	}
	return p, nil
}

func (u *ProductUnitOfWork) run(ctx context.Context, fn func(repo ports.ProductRepository) error) error {
	if err := u.Init(ctx); err != nil {
		return err
	}
	return fn(u.ProductRepository())
}

func (u *ProductUnitOfWork) record(err error) error {
	return recordError(u.UnitOfWork, err)
}
