package commands

import (
	"context"
	"errors"
	"fmt"
)

// finish disposes uow and joins the dispose error into *errp. It must be deferred
// directly. A panic is recorded first so the transaction rolls back, then re-raised.
func finish(ctx context.Context, uow TxManager, errp *error) {
	if r := recover(); r != nil {
		uow.AddError(fmt.Errorf("panic: %v", r))
		_ = uow.Dispose(ctx)
		panic(r)
	}

	if err := uow.Dispose(ctx); err != nil {
		*errp = errors.Join(*errp, err)
	}
}
