package queries

import (
	"context"
	"fmt"

	"allocation/internal/core/ports"
	"allocation/internal/pkg/errs"

	"gorm.io/gorm"
)

// GetProductStockQueryHandler reads the product version and per-batch stock
// outside any unit of work. The figures are a committed snapshot per statement.
type GetProductStockQueryHandler struct {
	db *gorm.DB
}

func NewGetProductStockQueryHandler(db *gorm.DB) GetProductStockQueryHandler {
	return GetProductStockQueryHandler{db: db}
}

// Handle returns ports.ErrProductNotFound when the sku has no product.
func (h GetProductStockQueryHandler) Handle(
	ctx context.Context,
	query GetProductStockQuery,
) (GetProductStockQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetProductStockQueryResponse{}, err
	}

	db := h.db.WithContext(ctx)
	response := GetProductStockQueryResponse{
		SKU:     query.SKU(),
		Batches: make([]BatchStock, 0),
	}

	var versions []int
	if err := db.Raw(`SELECT version FROM product WHERE sku = ?`, query.SKU()).Scan(&versions).Error; err != nil {
		return GetProductStockQueryResponse{}, err
	}
	if len(versions) == 0 {
		return GetProductStockQueryResponse{}, fmt.Errorf(
			"%w: %w", ports.ErrProductNotFound, errs.NewObjectNotFoundError("sku", query.SKU()),
		)
	}
	response.Version = versions[0]

	rows, err := db.Raw(`
		SELECT
			b.reference,
			b.eta,
			b.quantity,
			COALESCE(SUM(ol.quantity), 0) AS allocated
		FROM batch b
		LEFT JOIN order_line ol ON ol.batch_id = b.id
		WHERE b.sku = ?
		GROUP BY b.id, b.reference, b.eta, b.quantity
		ORDER BY b.eta ASC NULLS FIRST, b.id ASC
	`, query.SKU()).Rows()
	if err != nil {
		return GetProductStockQueryResponse{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var stock BatchStock
		if err = rows.Scan(&stock.Reference, &stock.ETA, &stock.Quantity, &stock.Allocated); err != nil {
			return GetProductStockQueryResponse{}, err
		}
		if stock.ETA != nil {
			utc := stock.ETA.UTC()
			stock.ETA = &utc
		}
		stock.Available = stock.Quantity - stock.Allocated

		response.Quantity += stock.Quantity
		response.Allocated += stock.Allocated
		response.Available += stock.Available
		response.Batches = append(response.Batches, stock)
	}

	if err = rows.Err(); err != nil {
		return GetProductStockQueryResponse{}, err
	}

	return response, nil
}
