package batch

import (
	"slices"

	"allocation/internal/core/domain/model/orderline"
)

// Allocate gives line to the first batch, in the order given, that can take it and
// returns that batch's reference. A line some batch already holds stays there and
// nothing is mutated. It returns "" when no batch can take the line; callers turn
// that into an OutOfStockError. Sort with SortByPriority first to respect ETAs.
func Allocate(line orderline.OrderLine, batches []*Batch) string {
	if held := Holder(line, batches); held != nil {
		return held.Reference()
	}
	for _, b := range batches {
		if b.Allocate(line) {
			return b.Reference()
		}
	}
	return ""
}

// Holder returns the batch whose allocation set contains line, or nil.
func Holder(line orderline.OrderLine, batches []*Batch) *Batch {
	for _, b := range batches {
		if b.IsAllocated(line) {
			return b
		}
	}
	return nil
}

// SortByPriority sorts batches in place by Priority. Batches that compare equal
// keep their relative order.
func SortByPriority(batches []*Batch) {
	slices.SortStableFunc(batches, func(a, b *Batch) int {
		return a.Priority(b)
	})
}
