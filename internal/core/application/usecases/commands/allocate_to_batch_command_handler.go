package commands

import (
	"context"
	"errors"
	"log/slog"

	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/domain/services"
	"allocation/internal/core/ports"
)

// AllocateToBatchCommandHandler allocates against one page of candidate batches.
// The page is row-locked for the whole unit of work, so allocations for the same
// sku run one after another. Under the optimistic strategy a concurrent product
// allocation surfaces as ports.ErrVersionConflict.
//
// Example:
//
//	handler := NewAllocateToBatchCommandHandler(uowFactory, services.NewBatchAllocator(), logger)
//	cmd, _ := NewAllocateToBatchCommand("", "SMALL-TABLE", 2)
//	line, batchRef, err := handler.Handle(ctx, cmd)
type AllocateToBatchCommandHandler struct {
	uowFactory BatchUoWFactory
	allocator  services.BatchAllocator
	logger     *slog.Logger
}

func NewAllocateToBatchCommandHandler(
	uowFactory BatchUoWFactory,
	allocator services.BatchAllocator,
	logger *slog.Logger,
) AllocateToBatchCommandHandler {
	return AllocateToBatchCommandHandler{
		uowFactory: uowFactory,
		allocator:  allocator,
		logger:     componentLogger(logger, "allocate_to_batch_handler"),
	}
}

// Handle returns the stored line and the reference of the batch it went to.
// batch.ErrOutOfStock means no batch in the page could take the line. A line that
// a candidate already holds is returned with that batch and nothing is written.
func (h AllocateToBatchCommandHandler) Handle(
	ctx context.Context,
	cmd AllocateToBatchCommand,
) (orderline.OrderLine, string, error) {
	if err := cmd.Validate(); err != nil {
		return orderline.OrderLine{}, "", err
	}

	line, err := orderline.NewOrderLine(cmd.SKU(), cmd.Quantity(), cmd.Reference())
	if err != nil {
		return orderline.OrderLine{}, "", err
	}

	logger := h.logger.With("sku", line.SKU(), "order_line", line.Reference())

	allocated, ref, err := h.allocate(ctx, line)
	switch {
	case err == nil:
		logger.InfoContext(ctx, "order line allocated", "batch", ref)
		return allocated, ref, nil
	case errors.Is(err, batch.ErrOutOfStock), errors.Is(err, ports.ErrVersionConflict):
		logger.WarnContext(ctx, "order line not allocated", "error", err)
	default:
		logger.ErrorContext(ctx, "order line allocation failed", "error", err)
	}
	return orderline.OrderLine{}, "", err
}

func (h AllocateToBatchCommandHandler) allocate(
	ctx context.Context,
	line orderline.OrderLine,
) (allocated orderline.OrderLine, ref string, err error) {
	uow := h.uowFactory.Create()
	defer finish(ctx, uow, &err)

	candidates, err := uow.Candidates(ctx, line.SKU())
	if err != nil {
		return orderline.OrderLine{}, "", err
	}

	if held := batch.Holder(line, candidates); held != nil {
		return line, held.Reference(), nil
	}

	chosen, err := h.allocator.Allocate(line, candidates)
	if err != nil {
		uow.AddError(err)
		return orderline.OrderLine{}, "", err
	}

	allocated, err = uow.Allocate(ctx, chosen, line)
	if err != nil {
		return orderline.OrderLine{}, "", err
	}

	return allocated, chosen.Reference(), nil
}
