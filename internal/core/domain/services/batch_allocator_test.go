package services_test

import (
	"testing"
	"time"

	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/domain/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchAllocator_Allocate(t *testing.T) {
	eta1990 := time.Date(1990, 2, 1, 0, 0, 0, 0, time.UTC)
	eta2000 := time.Date(2000, 2, 1, 0, 0, 0, 0, time.UTC)

	t.Run("should allocate to earlier batch", func(t *testing.T) {
		later, _ := batch.NewBatch("batch-2000", "MINIMALIST-SPOON", 20, eta2000)
		earlier, _ := batch.NewBatch("batch-1990", "MINIMALIST-SPOON", 20, eta1990)
		line, _ := orderline.NewOrderLine("MINIMALIST-SPOON", 5, "")
		candidates := []*batch.Batch{later, earlier}

		chosen, err := services.NewBatchAllocator().Allocate(line, candidates)

		require.NoError(t, err)
		assert.Same(t, earlier, chosen)
		assert.Equal(t, 15, earlier.AvailableQuantity())
		assert.Same(t, later, candidates[0], "candidates must keep their order")
	})

	t.Run("should prefer smaller remainder on same eta", func(t *testing.T) {
		big, _ := batch.NewBatch("big", "LAMP", 50, eta1990)
		small, _ := batch.NewBatch("small", "LAMP", 6, eta1990)
		line, _ := orderline.NewOrderLine("LAMP", 5, "")

		chosen, err := services.NewBatchAllocator().Allocate(line, []*batch.Batch{big, small})

		require.NoError(t, err)
		assert.Equal(t, "small", chosen.Reference())
	})

	t.Run("should keep a line where it is already held", func(t *testing.T) {
		earlier, _ := batch.NewBatch("batch-1990", "LAMP", 20, eta1990)
		later, _ := batch.NewBatch("batch-2000", "LAMP", 20, eta2000)
		line, _ := orderline.NewOrderLine("LAMP", 5, "order-001")
		require.True(t, later.Allocate(line))

		chosen, err := services.NewBatchAllocator().Allocate(line, []*batch.Batch{earlier, later})

		require.NoError(t, err)
		assert.Same(t, later, chosen)
		assert.Equal(t, 20, earlier.AvailableQuantity())
		assert.Equal(t, 15, later.AvailableQuantity())
	})

	t.Run("should return out of stock", func(t *testing.T) {
		only, _ := batch.NewBatch("batch-001", "SMALL-TABLE", 20, eta1990)
		line, _ := orderline.NewOrderLine("SMALL-TABLE", 21, "")

		chosen, err := services.NewBatchAllocator().Allocate(line, []*batch.Batch{only})

		require.ErrorIs(t, err, batch.ErrOutOfStock)
		assert.Nil(t, chosen)
		assert.Equal(t, 20, only.AvailableQuantity())
	})

	t.Run("should return out of stock without candidates", func(t *testing.T) {
		line, _ := orderline.NewOrderLine("SMALL-TABLE", 1, "")

		_, err := services.NewBatchAllocator().Allocate(line, nil)

		require.ErrorIs(t, err, batch.ErrOutOfStock)
	})

	t.Run("should reject unconstructed input", func(t *testing.T) {
		line, _ := orderline.NewOrderLine("SMALL-TABLE", 1, "")

		_, err := services.NewBatchAllocator().Allocate(orderline.OrderLine{}, nil)
		require.ErrorIs(t, err, orderline.ErrOrderLineIsNotConstructed)

		_, err = services.NewBatchAllocator().Allocate(line, []*batch.Batch{{}})
		require.ErrorIs(t, err, batch.ErrBatchIsNotConstructed)
	})
}
