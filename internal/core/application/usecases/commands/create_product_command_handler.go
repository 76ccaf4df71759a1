package commands

import (
	"context"
	"log/slog"

	"allocation/internal/core/domain/model/product"
)

// CreateProductCommandHandler stores a new product at version 0. Batches already
// stored for the sku are attached to it.
type CreateProductCommandHandler struct {
	uowFactory ProductUoWFactory
	logger     *slog.Logger
}

func NewCreateProductCommandHandler(uowFactory ProductUoWFactory, logger *slog.Logger) CreateProductCommandHandler {
	return CreateProductCommandHandler{
		uowFactory: uowFactory,
		logger:     componentLogger(logger, "create_product_handler"),
	}
}

// Handle returns ports.ErrProductAlreadyExists when the sku is taken.
func (h CreateProductCommandHandler) Handle(ctx context.Context, cmd CreateProductCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	p, err := product.NewProduct(cmd.SKU())
	if err != nil {
		return err
	}

	if err = h.add(ctx, p); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "product created", "sku", p.SKU())
	return nil
}

func (h CreateProductCommandHandler) add(ctx context.Context, p *product.Product) (err error) {
	uow := h.uowFactory.Create()
	defer finish(ctx, uow, &err)

	return uow.Add(ctx, p)
}

func componentLogger(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return logger.With("component", component)
}
