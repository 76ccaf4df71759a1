// Package orderline defines the order line value object: a request for a quantity
// of one sku, identified by its reference.
package orderline

import (
	"errors"

	"allocation/internal/core/domain/model/kernel"
	"allocation/internal/pkg/guard"
)

var ErrOrderLineIsNotConstructed = errors.New("OrderLine must be created via NewOrderLine constructor")

// OrderLine is immutable. Two lines are the same line when their references match.
type OrderLine struct {
	reference string
	sku       string
	quantity  int

	guard guard.ConstructorGuard
}

// NewOrderLine validates sku and quantity. An empty reference is replaced by a
// generated one.
func NewOrderLine(sku string, quantity int, reference string) (OrderLine, error) {
	if reference == "" {
		reference = kernel.NewReference()
	}

	line := OrderLine{guard: guard.NewConstructorGuard()}
	if err := errors.Join(
		line.setSKU(sku),
		line.setQuantity(quantity),
		line.setReference(reference),
	); err != nil {
		return OrderLine{}, err
	}

	return line, nil
}

func (l OrderLine) Validate() error {
	return l.guard.Validate(ErrOrderLineIsNotConstructed)
}

func (l OrderLine) Reference() string {
	return l.reference
}

func (l OrderLine) SKU() string {
	return l.sku
}

func (l OrderLine) Quantity() int {
	return l.quantity
}

// IsEqual compares lines by reference.
func (l OrderLine) IsEqual(other OrderLine) bool {
	return l.reference == other.reference
}

func (l *OrderLine) setSKU(sku string) error {
	if err := kernel.ValidateSKU(sku); err != nil {
		return err
	}
	l.sku = sku
	return nil
}

func (l *OrderLine) setQuantity(quantity int) error {
	if err := kernel.ValidateQuantity(quantity); err != nil {
		return err
	}
	l.quantity = quantity
	return nil
}

func (l *OrderLine) setReference(reference string) error {
	if err := kernel.ValidateReference(reference); err != nil {
		return err
	}
	l.reference = reference
	return nil
}
