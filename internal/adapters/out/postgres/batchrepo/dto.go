// Package batchrepo maps batches and their order lines to the batch and order_line tables.
package batchrepo

import (
	"time"

	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
)

// BatchDTO is a row of the batch table. ProductID stays NULL until a product with
// the same sku exists.
type BatchDTO struct {
	ID         uint           `gorm:"primaryKey"`
	SKU        string         `gorm:"column:sku;type:varchar(255);not null;index"`
	Quantity   int            `gorm:"not null"`
	Reference  string         `gorm:"type:varchar(255);not null;uniqueIndex"`
	ETA        *time.Time     `gorm:"column:eta;type:timestamptz;index"`
	Created    time.Time      `gorm:"autoCreateTime"`
	Modified   time.Time      `gorm:"autoUpdateTime"`
	ProductID  *uint          `gorm:"index"`
	OrderLines []OrderLineDTO `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE"`
}

func (BatchDTO) TableName() string {
	return "batch"
}

// OrderLineDTO is a row of the order_line table, one per allocation.
type OrderLineDTO struct {
	ID        uint      `gorm:"primaryKey"`
	SKU       string    `gorm:"column:sku;type:varchar(255);not null"`
	Quantity  int       `gorm:"not null"`
	Reference string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	BatchID   uint      `gorm:"not null;index"`
	Created   time.Time `gorm:"autoCreateTime"`
	Modified  time.Time `gorm:"autoUpdateTime"`
}

func (OrderLineDTO) TableName() string {
	return "order_line"
}

// FromDomain maps a batch without its order lines; lines are written separately
// because they need the batch row id.
func FromDomain(b *batch.Batch) BatchDTO {
	var eta *time.Time
	if !b.ETA().IsZero() {
		t := b.ETA().UTC()
		eta = &t
	}

	return BatchDTO{
		SKU:       b.SKU(),
		Quantity:  b.Quantity(),
		Reference: b.Reference(),
		ETA:       eta,
	}
}

// OrderLineFromDomain maps line to a row under batchID.
func OrderLineFromDomain(line orderline.OrderLine, batchID uint) OrderLineDTO {
	return OrderLineDTO{
		SKU:       line.SKU(),
		Quantity:  line.Quantity(),
		Reference: line.Reference(),
		BatchID:   batchID,
	}
}

// ToDomain restores a batch with the order lines loaded into dto.OrderLines.
func ToDomain(dto BatchDTO) (*batch.Batch, error) {
	lines := make([]orderline.OrderLine, 0, len(dto.OrderLines))
	for _, lineDTO := range dto.OrderLines {
		line, err := orderline.NewOrderLine(lineDTO.SKU, lineDTO.Quantity, lineDTO.Reference)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}

	var eta time.Time
	if dto.ETA != nil {
		eta = dto.ETA.UTC()
	}

	return batch.RestoreBatch(dto.Reference, dto.SKU, dto.Quantity, eta, lines)
}
