// Package errs holds the error kinds shared by the allocation domain and its adapters.
//
// Each kind pairs a sentinel (ErrObjectNotFound, ErrValueIsInvalid, ...) with a struct
// carrying the offending parameter and an optional cause. The struct unwraps to its
// sentinel, so callers classify failures with errors.Is and read details with errors.As:
//
//	_, err := repo.Get(ctx, "SMALL-TABLE")
//	if errors.Is(err, errs.ErrObjectNotFound) {
//	    // unknown sku
//	}
package errs
