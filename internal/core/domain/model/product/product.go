// Package product defines the Product aggregate: every batch of one sku plus the
// version counter that concurrent allocations compete on.
package product

import (
	"errors"
	"fmt"
	"slices"

	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/kernel"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/pkg/errs"
)

var (
	ErrProductIsNotConstructed = errors.New("Product must be created via NewProduct constructor")
	ErrBatchAlreadyExists      = errors.New("batch already exists")
)

// Allocation is the outcome of a successful Product.Allocate: the batch that took
// the line, already mutated, and the line itself. Existing is set when the batch
// held the line before the call; nothing was changed then.
type Allocation struct {
	Batch    *batch.Batch
	Line     orderline.OrderLine
	Existing bool
}

// Product is the aggregate root for a sku. Its version grows by one with every
// allocation that changes a batch, which is what optimistic writers compare on.
type Product struct {
	sku     string
	version int
	batches []*batch.Batch

	isConstructed bool
}

// NewProduct creates a product without batches at version 0.
func NewProduct(sku string) (*Product, error) {
	if err := kernel.ValidateSKU(sku); err != nil {
		return nil, err
	}

	return &Product{
		sku:           sku,
		batches:       make([]*batch.Batch, 0),
		isConstructed: true,
	}, nil
}

// RestoreProduct rebuilds a product loaded from storage.
func RestoreProduct(sku string, version int, batches []*batch.Batch) (*Product, error) {
	p, err := NewProduct(sku)
	if err != nil {
		return nil, err
	}

	if version < 0 {
		return nil, errs.NewVersionIsInvalidErrorWithCause("version", fmt.Errorf("%d is negative", version))
	}
	p.version = version

	for _, b := range batches {
		if err = p.AddBatch(b); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (p *Product) Validate() error {
	if p == nil || !p.isConstructed {
		return ErrProductIsNotConstructed
	}
	return nil
}

func (p *Product) SKU() string {
	return p.sku
}

func (p *Product) Version() int {
	return p.version
}

// Batches returns the batches in the order they were added.
func (p *Product) Batches() []*batch.Batch {
	return slices.Clone(p.batches)
}

// Batch finds a batch by reference.
func (p *Product) Batch(reference string) (*batch.Batch, bool) {
	for _, b := range p.batches {
		if b.Reference() == reference {
			return b, true
		}
	}
	return nil, false
}

// AddBatch attaches a batch of the product's sku.
func (p *Product) AddBatch(b *batch.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.SKU() != p.sku {
		return errs.NewValueIsInvalidErrorWithCause(
			"batch",
			fmt.Errorf("batch %s has sku %s, product has sku %s", b.Reference(), b.SKU(), p.sku),
		)
	}
	if _, exists := p.Batch(b.Reference()); exists {
		return fmt.Errorf("%w: %s", ErrBatchAlreadyExists, b.Reference())
	}

	p.batches = append(p.batches, b)
	return nil
}

// Allocate tries the product's batches in priority order and gives line to the
// first that can take it. It returns an *batch.OutOfStockError when none can.
// A line already held by one of the batches is reported with Existing set and
// leaves the version alone.
func (p *Product) Allocate(line orderline.OrderLine) (Allocation, error) {
	if err := line.Validate(); err != nil {
		return Allocation{}, err
	}
	if line.SKU() != p.sku {
		return Allocation{}, errs.NewValueIsInvalidErrorWithCause(
			"order line",
			fmt.Errorf("line %s has sku %s, product has sku %s", line.Reference(), line.SKU(), p.sku),
		)
	}

	if held := batch.Holder(line, p.batches); held != nil {
		return Allocation{Batch: held, Line: line, Existing: true}, nil
	}

	candidates := p.Batches()
	batch.SortByPriority(candidates)

	ref := batch.Allocate(line, candidates)
	if ref == "" {
		return Allocation{}, batch.NewOutOfStockError(p.sku)
	}

	allocated, _ := p.Batch(ref)
	p.version++

	return Allocation{Batch: allocated, Line: line}, nil
}

// Deallocate removes line from whichever batch holds it.
func (p *Product) Deallocate(line orderline.OrderLine) bool {
	for _, b := range p.batches {
		if b.Deallocate(line) {
			p.version++
			return true
		}
	}
	return false
}

// AvailableQuantity sums the available quantity over all batches.
func (p *Product) AvailableQuantity() int {
	total := 0
	for _, b := range p.batches {
		total += b.AvailableQuantity()
	}
	return total
}
