// Package kernel provides the primitives shared by the allocation aggregates:
// sku and reference validation, generated references and quantity checks.
//
// Skus and references are plain strings in the domain model. The helpers here keep
// their validation rules in one place so orderline, batch and product agree on them.
package kernel
