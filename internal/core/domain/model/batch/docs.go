// Package batch models a receivable lot of stock and the allocation algorithm that
// picks a lot for an order line.
//
// A Batch holds a fixed quantity of one sku due at its ETA. Order lines are
// allocated against it until the available quantity runs out. Allocate walks a
// list of batches in the caller's order; SortByPriority arranges them so that the
// earliest arrival, then the smallest remaining stock, is tried first.
package batch
