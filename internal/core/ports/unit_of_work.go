package ports

import (
	"context"

	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/domain/model/product"
	"allocation/internal/pkg/uow"
)

// UnitOfWork is one transaction boundary. See package uow for the lifecycle rules.
type UnitOfWork interface {
	Init(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	Release(ctx context.Context) error

	// Dispose commits when no error was recorded, rolls back otherwise, then releases.
	Dispose(ctx context.Context) error

	AddError(err error)
	Errors() []error
	State() uow.State
}

// ProductUnitOfWork guards product allocation with the configured concurrency strategy.
// Every error returned by its operations is also recorded, so Dispose rolls back.
type ProductUnitOfWork interface {
	UnitOfWork

	// ProductRepository is bound to this unit's transaction.
	ProductRepository() ProductRepository

	Add(ctx context.Context, p *product.Product) error
	Get(ctx context.Context, sku string) (*product.Product, error)
	Save(ctx context.Context, p *product.Product) error

	// Allocate returns the reference of the batch the line went to.
	Allocate(ctx context.Context, line orderline.OrderLine) (string, error)
}

// BatchUnitOfWork allocates against batches read page by page.
type BatchUnitOfWork interface {
	UnitOfWork

	// BatchRepository is bound to this unit's transaction.
	BatchRepository() BatchRepository

	Add(ctx context.Context, b *batch.Batch) error

	// Candidates locks and returns one page of batches for sku.
	Candidates(ctx context.Context, sku string) ([]*batch.Batch, error)

	Allocate(ctx context.Context, b *batch.Batch, line orderline.OrderLine) (orderline.OrderLine, error)
}
