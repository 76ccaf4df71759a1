// Package uow implements the lifecycle shared by every write path: one transaction,
// opened once, finished by exactly one commit or rollback and then released.
//
// UnitOfWork drives a Transactor through the State machine and collects the errors
// observed while the transaction is open. Dispose uses those errors to decide the
// outcome, so callers record failures instead of rolling back by hand:
//
//	u := uow.New(tx)
//	defer func() {
//	    if err := u.Dispose(ctx); err != nil {
//	        logger.ErrorContext(ctx, "dispose failed", "error", err)
//	    }
//	}()
//	if err := u.Init(ctx); err != nil {
//	    return err
//	}
//	if err := repo.Save(ctx, p); err != nil {
//	    u.AddError(err)
//	    return err
//	}
//
// A UnitOfWork is single use and is not safe for concurrent use.
package uow
