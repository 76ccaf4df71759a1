// Package services provides domain services that work across several batches
// without a Product aggregate loaded.
//
// The package includes:
//   - BatchAllocator: picks the batch an order line should be allocated to
package services
