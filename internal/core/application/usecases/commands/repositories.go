// Package commands contains business operations that modify system state.
// Every handler validates its command, opens one unit of work and disposes it, so
// the unit commits when no error was recorded and rolls back otherwise.
package commands

import (
	"context"

	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/domain/model/product"
)

// Unit of work interfaces needed by the command handlers. They are the parts of
// ports.ProductUnitOfWork and ports.BatchUnitOfWork that handlers actually call.
type (
	// TxManager finishes a unit of work.
	//
	// Example:
	//   uow := factory.Create()
	//   defer func() { err = errors.Join(err, uow.Dispose(ctx)) }()
	//
	//   ref, err := uow.Allocate(ctx, line)
	TxManager interface {
		Dispose(ctx context.Context) error
		AddError(err error)
	}

	// ProductUoW allocates through the Product aggregate.
	ProductUoW interface {
		TxManager
		Add(ctx context.Context, p *product.Product) error
		Get(ctx context.Context, sku string) (*product.Product, error)
		Save(ctx context.Context, p *product.Product) error
		Allocate(ctx context.Context, line orderline.OrderLine) (string, error)
	}

	// ProductUoWFactory creates a fresh ProductUoW per attempt.
	ProductUoWFactory interface {
		Create() ProductUoW
	}

	// BatchUoW allocates against a page of locked batches.
	BatchUoW interface {
		TxManager
		Candidates(ctx context.Context, sku string) ([]*batch.Batch, error)
		Allocate(ctx context.Context, b *batch.Batch, line orderline.OrderLine) (orderline.OrderLine, error)
	}

	BatchUoWFactory interface {
		Create() BatchUoW
	}
)
