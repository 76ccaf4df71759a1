package commands

import (
	"errors"
	"time"

	"allocation/internal/core/domain/model/kernel"
	"allocation/internal/pkg/guard"
)

var ErrAddBatchCommandIsNotConstructed = errors.New(
	"AddBatchCommand must be created via NewAddBatchCommand constructor",
)

// AddBatchCommand adds a batch of stock to an existing product. A zero eta means
// the batch is already in the warehouse.
//
// Example:
//
//	cmd, err := NewAddBatchCommand("batch-001", "SMALL-TABLE", 100, time.Time{})
//	if err != nil {
//	    return fmt.Errorf("invalid batch: %w", err)
//	}
//	err = handler.Handle(ctx, cmd)
type AddBatchCommand struct { //nolint:recvcheck //using for validation
	reference string
	sku       string
	quantity  int
	eta       time.Time

	guard guard.ConstructorGuard
}

func NewAddBatchCommand(reference, sku string, quantity int, eta time.Time) (AddBatchCommand, error) {
	cmd := AddBatchCommand{
		eta:   eta,
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setReference(reference),
		cmd.setSKU(sku),
		cmd.setQuantity(quantity),
	); err != nil {
		return AddBatchCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c AddBatchCommand) Validate() error {
	return c.guard.Validate(ErrAddBatchCommandIsNotConstructed)
}

func (c AddBatchCommand) Reference() string {
	return c.reference
}

func (c AddBatchCommand) SKU() string {
	return c.sku
}

func (c AddBatchCommand) Quantity() int {
	return c.quantity
}

func (c AddBatchCommand) ETA() time.Time {
	return c.eta
}

func (c *AddBatchCommand) setReference(reference string) error {
	if err := kernel.ValidateReference(reference); err != nil {
		return err
	}

	c.reference = reference
	return nil
}

func (c *AddBatchCommand) setSKU(sku string) error {
	if err := kernel.ValidateSKU(sku); err != nil {
		return err
	}

	c.sku = sku
	return nil
}

func (c *AddBatchCommand) setQuantity(quantity int) error {
	if err := kernel.ValidateQuantity(quantity); err != nil {
		return err
	}

	c.quantity = quantity
	return nil
}
