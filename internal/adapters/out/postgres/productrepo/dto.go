// Package productrepo maps Product aggregates to the product table and, through
// batchrepo, to their batches and order lines.
package productrepo

import (
	"time"

	"allocation/internal/adapters/out/postgres/batchrepo"
	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/product"
)

// ProductDTO is a row of the product table. Version is only ever written by the
// concurrency controller.
type ProductDTO struct {
	ID       uint                 `gorm:"primaryKey"`
	SKU      string               `gorm:"column:sku;type:varchar(255);not null;uniqueIndex"`
	Version  int                  `gorm:"not null;default:0"`
	Created  time.Time            `gorm:"autoCreateTime"`
	Modified time.Time            `gorm:"autoUpdateTime"`
	Batches  []batchrepo.BatchDTO `gorm:"foreignKey:ProductID"`
}

func (ProductDTO) TableName() string {
	return "product"
}

func toDomain(dto ProductDTO) (*product.Product, error) {
	batches := make([]*batch.Batch, 0, len(dto.Batches))
	for _, batchDTO := range dto.Batches {
		b, err := batchrepo.ToDomain(batchDTO)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}

	return product.RestoreProduct(dto.SKU, dto.Version, batches)
}
