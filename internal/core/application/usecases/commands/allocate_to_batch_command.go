package commands

import (
	"errors"

	"allocation/internal/core/domain/model/kernel"
	"allocation/internal/pkg/guard"
)

var ErrAllocateToBatchCommandIsNotConstructed = errors.New(
	"AllocateToBatchCommand must be created via NewAllocateToBatchCommand constructor",
)

// AllocateToBatchCommand allocates an order line by reading candidate batches of
// its sku directly instead of loading the whole product.
type AllocateToBatchCommand struct { //nolint:recvcheck //using for validation
	reference string
	sku       string
	quantity  int

	guard guard.ConstructorGuard
}

func NewAllocateToBatchCommand(reference, sku string, quantity int) (AllocateToBatchCommand, error) {
	cmd := AllocateToBatchCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		cmd.setReference(reference),
		cmd.setSKU(sku),
		cmd.setQuantity(quantity),
	); err != nil {
		return AllocateToBatchCommand{}, err
	}

	return cmd, nil
}

func (c AllocateToBatchCommand) Validate() error {
	return c.guard.Validate(ErrAllocateToBatchCommandIsNotConstructed)
}

func (c AllocateToBatchCommand) Reference() string {
	return c.reference
}

func (c AllocateToBatchCommand) SKU() string {
	return c.sku
}

func (c AllocateToBatchCommand) Quantity() int {
	return c.quantity
}

func (c *AllocateToBatchCommand) setReference(reference string) error {
	if reference == "" {
		return nil
	}
	if err := kernel.ValidateReference(reference); err != nil {
		return err
	}

	c.reference = reference
	return nil
}

func (c *AllocateToBatchCommand) setSKU(sku string) error {
	if err := kernel.ValidateSKU(sku); err != nil {
		return err
	}

	c.sku = sku
	return nil
}

func (c *AllocateToBatchCommand) setQuantity(quantity int) error {
	if err := kernel.ValidateQuantity(quantity); err != nil {
		return err
	}

	c.quantity = quantity
	return nil
}
