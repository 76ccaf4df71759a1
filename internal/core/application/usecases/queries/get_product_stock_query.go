// Package queries contains read operations. Handlers read with plain SQL and
// return read models, never aggregates.
package queries

import (
	"errors"
	"time"

	"allocation/internal/core/domain/model/kernel"
	"allocation/internal/pkg/guard"
)

var ErrGetProductStockQueryIsNotConstructed = errors.New(
	"GetProductStockQuery must be created via NewGetProductStockQuery constructor",
)

// GetProductStockQuery reads the stock position of one sku.
//
// Example:
//
//	query, err := NewGetProductStockQuery("SMALL-TABLE")
//	if err != nil {
//	    return err
//	}
//	stock, err := handler.Handle(ctx, query)
//	if err != nil {
//	    return fmt.Errorf("read stock: %w", err)
//	}
//	fmt.Printf("%s v%d: %d available\n", stock.SKU, stock.Version, stock.Available)
type GetProductStockQuery struct {
	sku string

	guard guard.ConstructorGuard
}

func NewGetProductStockQuery(sku string) (GetProductStockQuery, error) {
	if err := kernel.ValidateSKU(sku); err != nil {
		return GetProductStockQuery{}, err
	}

	return GetProductStockQuery{
		sku:   sku,
		guard: guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the query was created through the constructor.
func (q GetProductStockQuery) Validate() error {
	return q.guard.Validate(ErrGetProductStockQueryIsNotConstructed)
}

func (q GetProductStockQuery) SKU() string {
	return q.sku
}

// GetProductStockQueryResponse is the stock read model of a product.
type GetProductStockQueryResponse struct {
	SKU       string
	Version   int
	Quantity  int
	Allocated int
	Available int
	Batches   []BatchStock
}

// BatchStock is one batch of the product. A nil ETA means the batch is in stock.
type BatchStock struct {
	Reference string
	ETA       *time.Time
	Quantity  int
	Allocated int
	Available int
}
