package productrepo

import (
	"context"
	"errors"
	"fmt"

	"allocation/internal/adapters/out/postgres/batchrepo"
	"allocation/internal/adapters/out/postgres/pgerr"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/domain/model/product"
	"allocation/internal/core/ports"
	"allocation/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements ports.ProductRepository using GORM.
type GormProductRepository struct {
	db      *gorm.DB
	batches *batchrepo.GormBatchRepository
}

// NewGormProductRepository creates a repository bound to db, which is normally a
// transaction owned by a unit of work.
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{
		db:      db,
		batches: batchrepo.NewGormBatchRepository(db),
	}
}

// Add inserts the product row and its batches. Batches stored earlier for the same
// sku are linked to the new product.
func (r *GormProductRepository) Add(ctx context.Context, p *product.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	dto := ProductDTO{SKU: p.SKU(), Version: p.Version()}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ports.ErrProductAlreadyExists, p.SKU())
		}
		return err
	}

	err := r.db.WithContext(ctx).
		Model(&batchrepo.BatchDTO{}).
		Where("sku = ? AND product_id IS NULL", p.SKU()).
		Update("product_id", dto.ID).Error
	if err != nil {
		return err
	}

	for _, b := range p.Batches() {
		if err = r.batches.Add(ctx, b); err != nil {
			return err
		}
	}

	return nil
}

// Get loads the product with batches ordered by ETA and their order lines.
func (r *GormProductRepository) Get(ctx context.Context, sku string) (*product.Product, error) {
	var dto ProductDTO
	err := r.db.WithContext(ctx).
		Preload("Batches", func(db *gorm.DB) *gorm.DB {
			return db.Order("eta ASC NULLS FIRST, id ASC")
		}).
		Preload("Batches.OrderLines").
		Where("sku = ?", sku).
		Take(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %w", ports.ErrProductNotFound, errs.NewObjectNotFoundError("sku", sku))
		}
		return nil, err
	}

	return toDomain(dto)
}

// Save writes every batch of p and its allocations. The product row must exist.
func (r *GormProductRepository) Save(ctx context.Context, p *product.Product) error {
	if err := p.Validate(); err != nil {
		return err
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&ProductDTO{}).Where("sku = ?", p.SKU()).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("%w: %w", ports.ErrProductNotFound, errs.NewObjectNotFoundError("sku", p.SKU()))
	}

	for _, b := range p.Batches() {
		if err := r.batches.Save(ctx, b); err != nil {
			return err
		}
	}

	return nil
}

// Allocate runs p.Allocate and inserts the resulting order line. The returned
// version is the in-memory version after allocation. A line the product already
// holds is reported as Existing and not written again.
func (r *GormProductRepository) Allocate(
	ctx context.Context,
	p *product.Product,
	line orderline.OrderLine,
) (ports.AllocationResult, error) {
	if err := p.Validate(); err != nil {
		return ports.AllocationResult{}, err
	}

	allocation, err := p.Allocate(line)
	if err != nil {
		return ports.AllocationResult{}, err
	}
	if allocation.Existing {
		return ports.AllocationResult{
			BatchReference: allocation.Batch.Reference(),
			Version:        p.Version(),
			Existing:       true,
		}, nil
	}

	batchID, err := r.batches.BatchID(ctx, allocation.Batch.Reference())
	if err != nil {
		return ports.AllocationResult{}, err
	}

	if _, err = r.AddOrderLine(ctx, allocation.Line, batchID); err != nil {
		return ports.AllocationResult{}, err
	}

	return ports.AllocationResult{
		BatchReference: allocation.Batch.Reference(),
		Version:        p.Version(),
	}, nil
}

// AddOrderLine inserts line under the batch row batchID.
func (r *GormProductRepository) AddOrderLine(ctx context.Context, line orderline.OrderLine, batchID uint) (uint, error) {
	return r.batches.AddOrderLine(ctx, line, batchID)
}
