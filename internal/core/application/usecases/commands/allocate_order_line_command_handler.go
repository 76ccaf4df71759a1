package commands

import (
	"context"
	"errors"
	"log/slog"

	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/ports"
)

// AllocateOrderLineOption configures an AllocateOrderLineCommandHandler.
type AllocateOrderLineOption func(*AllocateOrderLineCommandHandler)

// RetryOnConflict retries an allocation that lost to a concurrent one, each time
// in a fresh unit of work, until maxAttempts attempts were made. Values below 1
// mean a single attempt.
func RetryOnConflict(maxAttempts int) AllocateOrderLineOption {
	return func(h *AllocateOrderLineCommandHandler) {
		h.maxAttempts = max(maxAttempts, 1)
	}
}

// AllocateOrderLineCommandHandler allocates an order line through the Product
// aggregate. Whether concurrent allocations block or conflict depends on the
// concurrency strategy behind the unit of work.
type AllocateOrderLineCommandHandler struct {
	uowFactory  ProductUoWFactory
	logger      *slog.Logger
	maxAttempts int
}

func NewAllocateOrderLineCommandHandler(
	uowFactory ProductUoWFactory,
	logger *slog.Logger,
	opts ...AllocateOrderLineOption,
) AllocateOrderLineCommandHandler {
	h := AllocateOrderLineCommandHandler{
		uowFactory:  uowFactory,
		logger:      componentLogger(logger, "allocate_order_line_handler"),
		maxAttempts: 1,
	}
	for _, opt := range opts {
		opt(&h)
	}
	return h
}

// Handle returns the reference of the batch the line was allocated to.
//
// batch.ErrOutOfStock, ports.ErrProductNotFound and ports.ErrOrderLineAlreadyExists
// are returned at once. ports.ErrVersionConflict is returned after the last attempt.
func (h AllocateOrderLineCommandHandler) Handle(ctx context.Context, cmd AllocateOrderLineCommand) (string, error) {
	if err := cmd.Validate(); err != nil {
		return "", err
	}

	line, err := orderline.NewOrderLine(cmd.SKU(), cmd.Quantity(), cmd.Reference())
	if err != nil {
		return "", err
	}

	logger := h.logger.With("sku", line.SKU(), "order_line", line.Reference())

	for attempt := 1; ; attempt++ {
		ref, allocErr := h.allocate(ctx, line)
		switch {
		case allocErr == nil:
			logger.InfoContext(ctx, "order line allocated", "batch", ref, "attempt", attempt)
			return ref, nil
		case errors.Is(allocErr, ports.ErrVersionConflict) && attempt < h.maxAttempts:
			logger.InfoContext(ctx, "allocation lost to a concurrent update, retrying", "attempt", attempt)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
		case isExpectedAllocationError(allocErr):
			logger.WarnContext(ctx, "order line not allocated", "attempt", attempt, "error", allocErr)
			return "", allocErr
		default:
			logger.ErrorContext(ctx, "order line allocation failed", "attempt", attempt, "error", allocErr)
			return "", allocErr
		}
	}
}

func (h AllocateOrderLineCommandHandler) allocate(ctx context.Context, line orderline.OrderLine) (ref string, err error) {
	uow := h.uowFactory.Create()
	defer finish(ctx, uow, &err)

	return uow.Allocate(ctx, line)
}

func isExpectedAllocationError(err error) bool {
	return errors.Is(err, batch.ErrOutOfStock) ||
		errors.Is(err, ports.ErrVersionConflict) ||
		errors.Is(err, ports.ErrProductNotFound) ||
		errors.Is(err, ports.ErrOrderLineAlreadyExists)
}
