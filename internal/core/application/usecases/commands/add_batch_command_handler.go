package commands

import (
	"context"
	"log/slog"

	"allocation/internal/core/domain/model/batch"
)

// AddBatchCommandHandler loads the product, adds the batch to it and saves it in
// one unit of work.
type AddBatchCommandHandler struct {
	uowFactory ProductUoWFactory
	logger     *slog.Logger
}

func NewAddBatchCommandHandler(uowFactory ProductUoWFactory, logger *slog.Logger) AddBatchCommandHandler {
	return AddBatchCommandHandler{
		uowFactory: uowFactory,
		logger:     componentLogger(logger, "add_batch_handler"),
	}
}

// Handle returns ports.ErrProductNotFound for an unknown sku and
// product.ErrBatchAlreadyExists for a reference the product already has.
func (h AddBatchCommandHandler) Handle(ctx context.Context, cmd AddBatchCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	b, err := batch.NewBatch(cmd.Reference(), cmd.SKU(), cmd.Quantity(), cmd.ETA())
	if err != nil {
		return err
	}

	if err = h.add(ctx, b); err != nil {
		return err
	}

	h.logger.InfoContext(ctx, "batch added",
		"sku", b.SKU(),
		"batch", b.Reference(),
		"quantity", b.Quantity(),
	)
	return nil
}

func (h AddBatchCommandHandler) add(ctx context.Context, b *batch.Batch) (err error) {
	uow := h.uowFactory.Create()
	defer finish(ctx, uow, &err)

	p, err := uow.Get(ctx, b.SKU())
	if err != nil {
		return err
	}

	if err = p.AddBatch(b); err != nil {
		uow.AddError(err)
		return err
	}

	return uow.Save(ctx, p)
}
