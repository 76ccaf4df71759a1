// Package ports defines the contracts between the allocation core and its adapters.
package ports

import (
	"context"

	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/domain/model/product"
)

// AllocationResult is what ProductRepository.Allocate reports back. Existing is
// set when the line was already allocated and nothing was written.
type AllocationResult struct {
	BatchReference string
	Version        int
	Existing       bool
}

// ProductRepository persists Product aggregates together with their batches and
// allocated order lines. It never writes the product version; advancing it is the
// job of the concurrency controller.
type ProductRepository interface {
	// Add persists a new product and any batches it already has.
	Add(ctx context.Context, p *product.Product) error

	// Get loads the product for sku with every batch and its allocated lines.
	// Returns ErrProductNotFound when there is no such product.
	Get(ctx context.Context, sku string) (*product.Product, error)

	// Save writes batches and allocations of an existing product.
	Save(ctx context.Context, p *product.Product) error

	// Allocate runs the product's allocation for line and stores the new order line.
	Allocate(ctx context.Context, p *product.Product, line orderline.OrderLine) (AllocationResult, error)

	// AddOrderLine inserts line under the batch with the given row id and returns the new row id.
	AddOrderLine(ctx context.Context, line orderline.OrderLine, batchID uint) (uint, error)
}
