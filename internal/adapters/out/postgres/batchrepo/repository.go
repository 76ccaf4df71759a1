package batchrepo

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"allocation/internal/adapters/out/postgres/pgerr"
	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/domain/model/product"
	"allocation/internal/core/ports"
	"allocation/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const etaOrder = "eta ASC NULLS FIRST, id ASC"

// GormBatchRepository implements ports.BatchRepository using GORM.
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a repository bound to db, which is normally a
// transaction owned by a unit of work.
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Add inserts a new batch. A duplicate reference yields product.ErrBatchAlreadyExists.
func (r *GormBatchRepository) Add(ctx context.Context, b *batch.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}

	productID, err := r.productID(ctx, b.SKU())
	if err != nil {
		return err
	}

	dto := FromDomain(b)
	dto.ProductID = productID
	if err = r.db.WithContext(ctx).Omit(clause.Associations).Create(&dto).Error; err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("%w: %s", product.ErrBatchAlreadyExists, b.Reference())
		}
		return err
	}

	return r.syncOrderLines(ctx, dto.ID, b)
}

// Save upserts the batch by reference and mirrors its allocations into order_line.
func (r *GormBatchRepository) Save(ctx context.Context, b *batch.Batch) error {
	if err := b.Validate(); err != nil {
		return err
	}

	productID, err := r.productID(ctx, b.SKU())
	if err != nil {
		return err
	}

	dto := FromDomain(b)
	dto.ProductID = productID
	err = r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "reference"}},
			DoUpdates: clause.AssignmentColumns([]string{"sku", "quantity", "eta", "product_id", "modified"}),
		}).
		Create(&dto).Error
	if err != nil {
		return err
	}

	return r.syncOrderLines(ctx, dto.ID, b)
}

// Get loads a batch with its order lines.
func (r *GormBatchRepository) Get(ctx context.Context, reference string) (*batch.Batch, error) {
	var dto BatchDTO
	err := r.db.WithContext(ctx).
		Preload("OrderLines").
		Where("reference = ?", reference).
		Take(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %w", ports.ErrBatchNotFound, errs.NewObjectNotFoundError("reference", reference))
		}
		return nil, err
	}

	return ToDomain(dto)
}

// FindBySKU returns up to limit batches of sku, batches already in stock first.
func (r *GormBatchRepository) FindBySKU(ctx context.Context, sku string, limit int) ([]*batch.Batch, error) {
	return r.find(r.db.WithContext(ctx), sku, limit)
}

// FindBySKUForUpdate locks the returned batch rows until the transaction ends.
func (r *GormBatchRepository) FindBySKUForUpdate(ctx context.Context, sku string, limit int) ([]*batch.Batch, error) {
	db := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	batches, err := r.find(db, sku, limit)
	if pgerr.IsLockNotAvailable(err) {
		return nil, fmt.Errorf("%w: %w", ports.ErrLockNotAvailable, err)
	}
	return batches, err
}

// Allocate allocates line to b in memory and inserts the order line under b's row.
// A line that b cannot take yields *batch.OutOfStockError and nothing is written.
func (r *GormBatchRepository) Allocate(
	ctx context.Context,
	b *batch.Batch,
	line orderline.OrderLine,
) (orderline.OrderLine, error) {
	if err := errors.Join(b.Validate(), line.Validate()); err != nil {
		return orderline.OrderLine{}, err
	}

	if !b.Allocate(line) && !b.IsAllocated(line) {
		return orderline.OrderLine{}, batch.NewOutOfStockError(line.SKU())
	}

	batchID, err := r.BatchID(ctx, b.Reference())
	if err != nil {
		return orderline.OrderLine{}, err
	}

	if _, err = r.AddOrderLine(ctx, line, batchID); err != nil {
		return orderline.OrderLine{}, err
	}

	return line, nil
}

// AddOrderLine inserts a single order line and returns its row id.
func (r *GormBatchRepository) AddOrderLine(ctx context.Context, line orderline.OrderLine, batchID uint) (uint, error) {
	if err := line.Validate(); err != nil {
		return 0, err
	}

	dto := OrderLineFromDomain(line, batchID)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		switch {
		case pgerr.IsUniqueViolation(err):
			return 0, fmt.Errorf("%w: %s", ports.ErrOrderLineAlreadyExists, line.Reference())
		case pgerr.IsForeignKeyViolation(err):
			return 0, fmt.Errorf("%w: %w", ports.ErrBatchNotFound, errs.NewObjectNotFoundErrorWithCause("batchId", batchID, err))
		default:
			return 0, err
		}
	}

	return dto.ID, nil
}

// BatchID resolves a batch reference to its row id.
func (r *GormBatchRepository) BatchID(ctx context.Context, reference string) (uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&BatchDTO{}).
		Where("reference = ?", reference).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: %w", ports.ErrBatchNotFound, errs.NewObjectNotFoundError("reference", reference))
	}
	return ids[0], nil
}

func (r *GormBatchRepository) find(db *gorm.DB, sku string, limit int) ([]*batch.Batch, error) {
	if limit <= 0 {
		return nil, errs.NewValueIsInvalidErrorWithCause("limit", fmt.Errorf("%d is not greater than 0", limit))
	}

	var dtos []BatchDTO
	err := db.Preload("OrderLines").
		Where("sku = ?", sku).
		Order(etaOrder).
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	batches := make([]*batch.Batch, 0, len(dtos))
	for _, dto := range dtos {
		b, mapErr := ToDomain(dto)
		if mapErr != nil {
			return nil, mapErr
		}
		batches = append(batches, b)
	}

	return batches, nil
}

func (r *GormBatchRepository) productID(ctx context.Context, sku string) (*uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Table("product").
		Where("sku = ?", sku).
		Limit(1).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}

// syncOrderLines inserts missing allocations of b and deletes rows that b no
// longer holds. A line stored under another batch yields
// ports.ErrOrderLineAlreadyExists.
func (r *GormBatchRepository) syncOrderLines(ctx context.Context, batchID uint, b *batch.Batch) error {
	lines := b.Allocations()
	refs := make([]string, 0, len(lines))
	for _, line := range lines {
		refs = append(refs, line.Reference())
	}

	remove := r.db.WithContext(ctx).Where("batch_id = ?", batchID)
	if len(refs) > 0 {
		remove = remove.Where("reference NOT IN ?", refs)
	}
	if err := remove.Delete(&OrderLineDTO{}).Error; err != nil {
		return err
	}

	if len(lines) == 0 {
		return nil
	}

	var stored []string
	err := r.db.WithContext(ctx).
		Model(&OrderLineDTO{}).
		Where("batch_id = ?", batchID).
		Pluck("reference", &stored).Error
	if err != nil {
		return err
	}

	missing := make([]OrderLineDTO, 0, len(lines))
	for _, line := range lines {
		if !slices.Contains(stored, line.Reference()) {
			missing = append(missing, OrderLineFromDomain(line, batchID))
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err = r.db.WithContext(ctx).Create(&missing).Error; err != nil {
		if pgerr.IsUniqueViolation(err) {
			return fmt.Errorf("%w: batch %s: %w", ports.ErrOrderLineAlreadyExists, b.Reference(), err)
		}
		return err
	}
	return nil
}
