package services

import (
	"slices"

	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
)

// BatchAllocator is a domain service that chooses a batch for an order line out of
// a candidate list, typically one page of batches read for the line's sku.
//
// Business rules:
//   - The line and every candidate must be valid
//   - Candidates are tried by priority: earliest ETA, then least available stock
//   - Only one batch receives the line; a line already held stays in its batch
//
// Example usage:
//
//	allocator := services.NewBatchAllocator()
//	chosen, err := allocator.Allocate(line, candidates)
//	if errors.Is(err, batch.ErrOutOfStock) {
//	    // nothing can take the line
//	}
type BatchAllocator struct{}

func NewBatchAllocator() BatchAllocator {
	return BatchAllocator{}
}

// Allocate returns the batch the line was allocated to. The candidate slice is not
// reordered. It returns *batch.OutOfStockError when no candidate can take the line.
func (a BatchAllocator) Allocate(line orderline.OrderLine, candidates []*batch.Batch) (*batch.Batch, error) {
	if err := line.Validate(); err != nil {
		return nil, err
	}

	for _, b := range candidates {
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}

	sorted := slices.Clone(candidates)
	batch.SortByPriority(sorted)

	ref := batch.Allocate(line, sorted)
	if ref == "" {
		return nil, batch.NewOutOfStockError(line.SKU())
	}

	for _, b := range sorted {
		if b.Reference() == ref {
			return b, nil
		}
	}

	return nil, batch.NewOutOfStockError(line.SKU())
}
