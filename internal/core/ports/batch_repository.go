package ports

import (
	"context"

	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
)

// BatchRepository persists batches on their own, without loading the product.
type BatchRepository interface {
	// Add inserts a new batch, linking it to the product of the same sku when one exists.
	Add(ctx context.Context, b *batch.Batch) error

	// Save upserts the batch and brings its order lines in line with its allocations.
	Save(ctx context.Context, b *batch.Batch) error

	// Get loads a batch by reference. Returns ErrBatchNotFound when absent.
	Get(ctx context.Context, reference string) (*batch.Batch, error)

	// FindBySKU returns at most limit batches of sku, earliest ETA first.
	FindBySKU(ctx context.Context, sku string, limit int) ([]*batch.Batch, error)

	// FindBySKUForUpdate is FindBySKU holding row locks on the returned batches
	// until the transaction ends.
	FindBySKUForUpdate(ctx context.Context, sku string, limit int) ([]*batch.Batch, error)

	// Allocate allocates line to b and stores the order line.
	Allocate(ctx context.Context, b *batch.Batch, line orderline.OrderLine) (orderline.OrderLine, error)

	// AddOrderLine inserts line under the batch with the given row id and returns the new row id.
	AddOrderLine(ctx context.Context, line orderline.OrderLine, batchID uint) (uint, error)
}
