package commands

import (
	"errors"

	"allocation/internal/core/domain/model/kernel"
	"allocation/internal/pkg/guard"
)

var ErrAllocateOrderLineCommandIsNotConstructed = errors.New(
	"AllocateOrderLineCommand must be created via NewAllocateOrderLineCommand constructor",
)

// AllocateOrderLineCommand asks for quantity units of sku for one order line. An
// empty reference gets a generated one when the line is built, so retries of the
// same command reuse it.
//
// Example:
//
//	cmd, err := NewAllocateOrderLineCommand("order-001", "SMALL-TABLE", 10)
//	if err != nil {
//	    return fmt.Errorf("invalid order line: %w", err)
//	}
//	batchRef, err := handler.Handle(ctx, cmd)
//	switch {
//	case errors.Is(err, batch.ErrOutOfStock):
//	    // nothing left for this sku
//	case errors.Is(err, ports.ErrVersionConflict):
//	    // lost every attempt to a concurrent allocation
//	}
type AllocateOrderLineCommand struct { //nolint:recvcheck //using for validation
	reference string
	sku       string
	quantity  int

	guard guard.ConstructorGuard
}

func NewAllocateOrderLineCommand(reference, sku string, quantity int) (AllocateOrderLineCommand, error) {
	cmd := AllocateOrderLineCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setReference(reference),
		cmd.setSKU(sku),
		cmd.setQuantity(quantity),
	); err != nil {
		return AllocateOrderLineCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AllocateOrderLineCommand) Validate() error {
	return c.guard.Validate(ErrAllocateOrderLineCommandIsNotConstructed)
}

// Reference is the order line reference, possibly empty.
func (c AllocateOrderLineCommand) Reference() string {
	return c.reference
}

func (c AllocateOrderLineCommand) SKU() string {
	return c.sku
}

func (c AllocateOrderLineCommand) Quantity() int {
	return c.quantity
}

func (c *AllocateOrderLineCommand) setReference(reference string) error {
	if reference == "" {
		return nil
	}
	if err := kernel.ValidateReference(reference); err != nil {
		return err
	}

	c.reference = reference
	return nil
}

func (c *AllocateOrderLineCommand) setSKU(sku string) error {
	if err := kernel.ValidateSKU(sku); err != nil {
		return err
	}

	c.sku = sku
	return nil
}

func (c *AllocateOrderLineCommand) setQuantity(quantity int) error {
	if err := kernel.ValidateQuantity(quantity); err != nil {
		return err
	}

	c.quantity = quantity
	return nil
}
