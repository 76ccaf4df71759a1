package commands

import (
	"errors"

	"allocation/internal/core/domain/model/kernel"
	"allocation/internal/pkg/guard"
)

var ErrCreateProductCommandIsNotConstructed = errors.New(
	"CreateProductCommand must be created via NewCreateProductCommand constructor",
)

// CreateProductCommand registers a product so that batches and allocations can be
// recorded against its sku.
//
// Example:
//
//	cmd, err := NewCreateProductCommand("SMALL-TABLE")
//	if err != nil {
//	    return fmt.Errorf("invalid product: %w", err)
//	}
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("create product: %w", err)
//	}
type CreateProductCommand struct { //nolint:recvcheck //using for validation
	sku string

	guard guard.ConstructorGuard
}

func NewCreateProductCommand(sku string) (CreateProductCommand, error) {
	cmd := CreateProductCommand{
		guard: guard.NewConstructorGuard(),
	}

	if err := cmd.setSKU(sku); err != nil {
		return CreateProductCommand{}, err
	}

	return cmd, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateProductCommand) Validate() error {
	return c.guard.Validate(ErrCreateProductCommandIsNotConstructed)
}

func (c CreateProductCommand) SKU() string {
	return c.sku
}

func (c *CreateProductCommand) setSKU(sku string) error {
	if err := kernel.ValidateSKU(sku); err != nil {
		return err
	}

	c.sku = sku
	return nil
}
