package batch

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"allocation/internal/core/domain/model/kernel"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/pkg/errs"
)

var (
	// ErrBatchIsNotConstructed is returned when a Batch instance was not created
	// through NewBatch or RestoreBatch.
	ErrBatchIsNotConstructed = errors.New("Batch must be created via NewBatch constructor")

	// ErrOutOfStock is the sentinel behind OutOfStockError.
	ErrOutOfStock = errors.New("out of stock")
)

// OutOfStockError reports that no batch could take an order line.
type OutOfStockError struct {
	SKU string
}

func NewOutOfStockError(sku string) *OutOfStockError {
	return &OutOfStockError{SKU: sku}
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("Out of stock for sku %s", e.SKU)
}

func (e *OutOfStockError) Unwrap() error {
	return ErrOutOfStock
}

// Batch is a lot of a single sku with a fixed total quantity.
//
// Batch follows these invariants:
//   - Reference and sku are non-blank
//   - Quantity is never negative
//   - Every allocated line has the batch's sku
//   - The allocated quantity never exceeds Quantity
//
// A zero ETA means the stock is already on hand, which makes the batch sort
// ahead of every batch still in transit.
type Batch struct {
	reference string
	sku       string
	quantity  int
	eta       time.Time

	// allocations is keyed by order line reference
	allocations map[string]orderline.OrderLine

	isConstructed bool
}

// NewBatch creates an empty batch.
//
// Example:
//
//	eta := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)
//	b, err := batch.NewBatch("batch-001", "SMALL-TABLE", 20, eta)
//	if err != nil {
//	    return err
//	}
func NewBatch(reference, sku string, quantity int, eta time.Time) (*Batch, error) {
	b := &Batch{
		allocations:   make(map[string]orderline.OrderLine),
		isConstructed: true,
	}

	if err := errors.Join(
		b.setReference(reference),
		b.setSKU(sku),
		b.setQuantity(quantity),
	); err != nil {
		return nil, err
	}
	b.eta = eta

	return b, nil
}

// RestoreBatch rebuilds a batch and its allocations from storage. It rejects
// allocations for another sku and allocation sets larger than the batch, so an
// over-allocated row can never be loaded and written back.
func RestoreBatch(
	reference, sku string,
	quantity int,
	eta time.Time,
	allocations []orderline.OrderLine,
) (*Batch, error) {
	b, err := NewBatch(reference, sku, quantity, eta)
	if err != nil {
		return nil, err
	}

	for _, line := range allocations {
		if err = line.Validate(); err != nil {
			return nil, err
		}
		if line.SKU() != b.sku {
			return nil, errs.NewValueIsInvalidErrorWithCause(
				"allocation",
				fmt.Errorf("line %s has sku %s, batch %s has sku %s", line.Reference(), line.SKU(), b.reference, b.sku),
			)
		}
		b.allocations[line.Reference()] = line
	}

	if allocated := b.AllocatedQuantity(); allocated > b.quantity {
		return nil, errs.NewValueIsOutOfRangeError("allocated quantity", allocated, 0, b.quantity)
	}

	return b, nil
}

// Validate ensures the Batch was built by NewBatch or RestoreBatch.
func (b *Batch) Validate() error {
	if b == nil || !b.isConstructed {
		return ErrBatchIsNotConstructed
	}
	return nil
}

func (b *Batch) Reference() string {
	return b.reference
}

func (b *Batch) SKU() string {
	return b.sku
}

// Quantity returns the total quantity received, allocated or not.
func (b *Batch) Quantity() int {
	return b.quantity
}

func (b *Batch) ETA() time.Time {
	return b.eta
}

// Allocations returns the allocated lines ordered by reference.
func (b *Batch) Allocations() []orderline.OrderLine {
	lines := make([]orderline.OrderLine, 0, len(b.allocations))
	for _, line := range b.allocations {
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool {
		return lines[i].Reference() < lines[j].Reference()
	})
	return lines
}

// AllocatedQuantity sums the quantities of all allocated lines.
func (b *Batch) AllocatedQuantity() int {
	total := 0
	for _, line := range b.allocations {
		total += line.Quantity()
	}
	return total
}

// AvailableQuantity is what is left to allocate.
func (b *Batch) AvailableQuantity() int {
	return b.quantity - b.AllocatedQuantity()
}

// IsAllocated reports whether line is already part of this batch.
func (b *Batch) IsAllocated(line orderline.OrderLine) bool {
	_, ok := b.allocations[line.Reference()]
	return ok
}

// CanAllocate reports whether line has the batch's sku, fits in the available
// quantity and is not allocated here yet.
func (b *Batch) CanAllocate(line orderline.OrderLine) bool {
	return b.sku == line.SKU() &&
		b.AvailableQuantity() >= line.Quantity() &&
		!b.IsAllocated(line)
}

// Allocate adds line to the batch when CanAllocate holds and reports whether it did.
// Allocating a line twice leaves the batch unchanged.
func (b *Batch) Allocate(line orderline.OrderLine) bool {
	if !b.CanAllocate(line) {
		return false
	}
	b.allocations[line.Reference()] = line
	return true
}

// Deallocate removes line if it is allocated here and reports whether it was.
func (b *Batch) Deallocate(line orderline.OrderLine) bool {
	if !b.IsAllocated(line) {
		return false
	}
	delete(b.allocations, line.Reference())
	return true
}

// Priority orders b against other: -1 when b should be tried first, 1 when other
// should, 0 when neither is preferred. Earlier ETA wins; on equal ETA the batch
// with less available stock wins so that small remainders are used up first.
func (b *Batch) Priority(other *Batch) int {
	switch {
	case b.eta.Before(other.eta):
		return -1
	case b.eta.After(other.eta):
		return 1
	}

	available, otherAvailable := b.AvailableQuantity(), other.AvailableQuantity()
	switch {
	case available < otherAvailable:
		return -1
	case available > otherAvailable:
		return 1
	default:
		return 0
	}
}

// Equals reports whether both batches have the same reference, sku and set of
// allocated line references.
func (b *Batch) Equals(other *Batch) bool {
	if other == nil {
		return false
	}
	if b.reference != other.reference || b.sku != other.sku || len(b.allocations) != len(other.allocations) {
		return false
	}
	for ref := range b.allocations {
		if _, ok := other.allocations[ref]; !ok {
			return false
		}
	}
	return true
}

func (b *Batch) setReference(reference string) error {
	if err := kernel.ValidateReference(reference); err != nil {
		return err
	}
	b.reference = reference
	return nil
}

func (b *Batch) setSKU(sku string) error {
	if err := kernel.ValidateSKU(sku); err != nil {
		return err
	}
	b.sku = sku
	return nil
}

func (b *Batch) setQuantity(quantity int) error {
	if quantity < 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity", fmt.Errorf("%d is negative", quantity))
	}
	b.quantity = quantity
	return nil
}
