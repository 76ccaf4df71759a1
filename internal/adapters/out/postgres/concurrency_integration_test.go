package postgres_test

import (
	"context"
	"fmt"
	"time"

	postgres_adapter "allocation/internal/adapters/out/postgres"
	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/ports"
	"allocation/internal/pkg/uow"
)

type allocateResult struct {
	ref string
	err error
}

// TestOptimistic_SecondWriterGetsVersionConflict lets two units read the same
// version. The second blocks on the version update until the first commits and
// then finds the version moved on.
func (suite *UnitOfWorkIntegrationTestSuite) TestOptimistic_SecondWriterGetsVersionConflict() {
	ctx := context.Background()
	suite.seedProduct(testSKU, "batch-001", 10)
	factory := suite.productFactory(postgres_adapter.Optimistic, 0)

	first := factory.Create()
	ref, err := first.Allocate(ctx, suite.newLine(10, "order-001"))
	suite.Require().NoError(err)
	suite.Equal("batch-001", ref)

	second := factory.Create()
	line := suite.newLine(10, "order-002")
	done := make(chan allocateResult, 1)
	go func() {
		ref, err := second.Allocate(ctx, line)
		done <- allocateResult{ref: ref, err: err}
	}()

	suite.waitForLockWaiter()
	suite.Require().NoError(first.Dispose(ctx))

	result := <-done
	suite.Require().ErrorIs(result.err, ports.ErrVersionConflict)
	suite.Require().NoError(second.Dispose(ctx))

	suite.Equal(int64(1), suite.countOrderLines())
	suite.Equal(1, suite.productVersion(testSKU))
}

// TestPessimistic_SecondWriterWaitsForLock blocks the second unit on the product
// row lock. Once the first commits, the second reads the committed stock and finds
// nothing left.
func (suite *UnitOfWorkIntegrationTestSuite) TestPessimistic_SecondWriterWaitsForLock() {
	ctx := context.Background()
	suite.seedProduct(testSKU, "batch-001", 10)
	factory := suite.productFactory(postgres_adapter.Pessimistic, 0)

	first := factory.Create()
	_, err := first.Allocate(ctx, suite.newLine(10, "order-001"))
	suite.Require().NoError(err)

	second := factory.Create()
	line := suite.newLine(10, "order-002")
	done := make(chan allocateResult, 1)
	go func() {
		ref, err := second.Allocate(ctx, line)
		done <- allocateResult{ref: ref, err: err}
	}()

	suite.waitForLockWaiter()
	select {
	case <-done:
		suite.FailNow("second allocation finished while the lock was held")
	default:
	}
	suite.Require().NoError(first.Dispose(ctx))

	result := <-done
	suite.Require().ErrorIs(result.err, batch.ErrOutOfStock)
	suite.Require().NoError(second.Dispose(ctx))

	suite.Equal(int64(1), suite.countOrderLines())
	suite.Equal(1, suite.productVersion(testSKU))
}

// TestPessimistic_BothSucceedWhenStockSuffices checks that waiting on the lock does
// not lose the first allocation.
func (suite *UnitOfWorkIntegrationTestSuite) TestPessimistic_BothSucceedWhenStockSuffices() {
	ctx := context.Background()
	suite.seedProduct(testSKU, "batch-001", 20)
	factory := suite.productFactory(postgres_adapter.Pessimistic, 0)

	first := factory.Create()
	_, err := first.Allocate(ctx, suite.newLine(10, "order-001"))
	suite.Require().NoError(err)

	second := factory.Create()
	line := suite.newLine(10, "order-002")
	done := make(chan allocateResult, 1)
	go func() {
		ref, err := second.Allocate(ctx, line)
		done <- allocateResult{ref: ref, err: err}
	}()

	suite.waitForLockWaiter()
	suite.Require().NoError(first.Dispose(ctx))

	result := <-done
	suite.Require().NoError(result.err)
	suite.Equal("batch-001", result.ref)
	suite.Require().NoError(second.Dispose(ctx))

	suite.Equal(int64(2), suite.countOrderLines())
	suite.Equal(2, suite.productVersion(testSKU))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestPessimistic_LockTimeout() {
	// A sub-millisecond timeout must still time out rather than wait forever.
	for _, timeout := range []time.Duration{200 * time.Millisecond, 500 * time.Microsecond} {
		suite.Run(timeout.String(), func() {
			suite.SetupTest()
			ctx := context.Background()
			suite.seedProduct(testSKU, "batch-001", 20)
			factory := suite.productFactory(postgres_adapter.Pessimistic, timeout)

			holder := factory.Create()
			_, err := holder.Allocate(ctx, suite.newLine(1, "order-001"))
			suite.Require().NoError(err)

			waiter := factory.Create()
			waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			_, err = waiter.Allocate(waitCtx, suite.newLine(1, "order-002"))
			suite.Require().ErrorIs(err, ports.ErrLockNotAvailable)
			suite.Require().NoError(waiter.Dispose(ctx))

			suite.Require().NoError(holder.Dispose(ctx))
			suite.Equal(int64(1), suite.countOrderLines())
		})
	}
}

func (suite *UnitOfWorkIntegrationTestSuite) TestBatchUnitOfWork_CandidatesArePaged() {
	ctx := context.Background()
	suite.seedEmptyProduct(testSKU)
	factory := suite.batchFactory(postgres_adapter.Optimistic, 2)

	seed := factory.Create()
	now := time.Now().UTC()
	for i, ref := range []string{"batch-003", "batch-001", "batch-002"} {
		b, err := batch.NewBatch(ref, testSKU, 10, now.Add(time.Duration(i)*time.Hour))
		suite.Require().NoError(err)
		suite.Require().NoError(seed.Add(ctx, b))
	}
	suite.Require().NoError(seed.Dispose(ctx))

	u := factory.Create()
	defer func() { suite.NoError(u.Dispose(ctx)) }()

	candidates, err := u.Candidates(ctx, testSKU)
	suite.Require().NoError(err)
	suite.Require().Len(candidates, 2)
	suite.Equal("batch-003", candidates[0].Reference())
	suite.Equal("batch-001", candidates[1].Reference())
}

func (suite *UnitOfWorkIntegrationTestSuite) TestBatchUnitOfWork_CandidatesWithoutProduct() {
	ctx := context.Background()

	for _, strategy := range []postgres_adapter.Strategy{postgres_adapter.Optimistic, postgres_adapter.Pessimistic} {
		u := suite.batchFactory(strategy, 10).Create()
		_, err := u.Candidates(ctx, testSKU)
		suite.Require().ErrorIs(err, ports.ErrProductNotFound, strategy.String())
		suite.Require().NoError(u.Dispose(ctx))
		suite.Equal(uow.RolledBack, u.History()[len(u.History())-2])
	}
}

// TestBatchUnitOfWork_AllocateAdvancesVersion checks that the batch path moves the
// product version exactly like the product path does.
func (suite *UnitOfWorkIntegrationTestSuite) TestBatchUnitOfWork_AllocateAdvancesVersion() {
	ctx := context.Background()

	for _, strategy := range []postgres_adapter.Strategy{postgres_adapter.Optimistic, postgres_adapter.Pessimistic} {
		suite.Run(strategy.String(), func() {
			suite.SetupTest()
			suite.seedProduct(testSKU, "batch-001", 20)

			u := suite.batchFactory(strategy, 10).Create()
			suite.Require().NoError(suite.allocateThroughBatches(u, suite.newLine(5, "order-001")))
			suite.Require().NoError(suite.allocateThroughBatches(u, suite.newLine(5, "order-002")))
			if strategy == postgres_adapter.Pessimistic {
				suite.NotNil(u.Lock())
			}
			suite.Require().NoError(u.Dispose(ctx))
			suite.Nil(u.Lock())

			suite.Equal(int64(2), suite.countOrderLines())
			suite.Equal(2, suite.productVersion(testSKU))
		})
	}
}

// TestBatchUnitOfWork_CandidatesSerializeAllocations has the second unit wait on
// the locks of the first.
func (suite *UnitOfWorkIntegrationTestSuite) TestBatchUnitOfWork_CandidatesSerializeAllocations() {
	ctx := context.Background()

	for _, strategy := range []postgres_adapter.Strategy{postgres_adapter.Optimistic, postgres_adapter.Pessimistic} {
		suite.Run(strategy.String(), func() {
			suite.SetupTest()
			suite.seedProduct(testSKU, "batch-001", 10)
			factory := suite.batchFactory(strategy, 10)

			first := factory.Create()
			suite.Require().NoError(suite.allocateThroughBatches(first, suite.newLine(10, "order-001")))

			second := factory.Create()
			line := suite.newLine(10, "order-002")
			done := make(chan error, 1)
			go func() {
				done <- suite.allocateThroughBatches(second, line)
			}()

			suite.waitForLockWaiter()
			suite.Require().NoError(first.Dispose(ctx))

			suite.Require().ErrorIs(<-done, batch.ErrOutOfStock)
			suite.Require().NoError(second.Dispose(ctx))
			suite.Equal(int64(1), suite.countOrderLines())
			suite.Equal(1, suite.productVersion(testSKU))
		})
	}
}

// TestMixedPaths_ProductFirstNeverOversells holds an uncommitted product-path
// allocation while a batch-path allocation for the same sku starts.
func (suite *UnitOfWorkIntegrationTestSuite) TestMixedPaths_ProductFirstNeverOversells() {
	cases := []struct {
		strategy postgres_adapter.Strategy
		stock    int
		wantErr  error
		lines    int64
		version  int
	}{
		{postgres_adapter.Pessimistic, 20, nil, 2, 2},
		{postgres_adapter.Pessimistic, 10, batch.ErrOutOfStock, 1, 1},
		{postgres_adapter.Optimistic, 20, ports.ErrVersionConflict, 1, 1},
		{postgres_adapter.Optimistic, 10, batch.ErrOutOfStock, 1, 1},
	}

	for _, tc := range cases {
		suite.Run(fmt.Sprintf("%s stock %d", tc.strategy, tc.stock), func() {
			suite.SetupTest()
			ctx := context.Background()
			suite.seedProduct(testSKU, "batch-001", tc.stock)

			holder := suite.productFactory(tc.strategy, 0).Create()
			_, err := holder.Allocate(ctx, suite.newLine(10, "order-001"))
			suite.Require().NoError(err)

			waiter := suite.batchFactory(tc.strategy, 10).Create()
			line := suite.newLine(10, "order-002")
			done := make(chan error, 1)
			go func() {
				done <- suite.allocateThroughBatches(waiter, line)
			}()

			suite.waitForLockWaiter()
			suite.Require().NoError(holder.Dispose(ctx))

			err = <-done
			if tc.wantErr == nil {
				suite.Require().NoError(err)
			} else {
				suite.Require().ErrorIs(err, tc.wantErr)
			}
			suite.Require().NoError(waiter.Dispose(ctx))

			suite.Equal(tc.lines, suite.countOrderLines())
			suite.Equal(tc.version, suite.productVersion(testSKU))
			suite.GreaterOrEqual(suite.availableStock(testSKU), 0)
		})
	}
}

// TestMixedPaths_BatchFirstNeverOversells is the mirror case: the batch path holds
// its allocation while the product path reads stock.
func (suite *UnitOfWorkIntegrationTestSuite) TestMixedPaths_BatchFirstNeverOversells() {
	cases := []struct {
		strategy postgres_adapter.Strategy
		stock    int
		wantErr  error
		lines    int64
		version  int
	}{
		{postgres_adapter.Pessimistic, 20, nil, 2, 2},
		{postgres_adapter.Pessimistic, 10, batch.ErrOutOfStock, 1, 1},
		{postgres_adapter.Optimistic, 20, ports.ErrVersionConflict, 1, 1},
		{postgres_adapter.Optimistic, 10, ports.ErrVersionConflict, 1, 1},
	}

	for _, tc := range cases {
		suite.Run(fmt.Sprintf("%s stock %d", tc.strategy, tc.stock), func() {
			suite.SetupTest()
			ctx := context.Background()
			suite.seedProduct(testSKU, "batch-001", tc.stock)

			holder := suite.batchFactory(tc.strategy, 10).Create()
			suite.Require().NoError(suite.allocateThroughBatches(holder, suite.newLine(10, "order-001")))

			waiter := suite.productFactory(tc.strategy, 0).Create()
			line := suite.newLine(10, "order-002")
			done := make(chan error, 1)
			go func() {
				_, err := waiter.Allocate(ctx, line)
				done <- err
			}()

			suite.waitForLockWaiter()
			suite.Require().NoError(holder.Dispose(ctx))

			err := <-done
			if tc.wantErr == nil {
				suite.Require().NoError(err)
			} else {
				suite.Require().ErrorIs(err, tc.wantErr)
			}
			suite.Require().NoError(waiter.Dispose(ctx))

			suite.Equal(tc.lines, suite.countOrderLines())
			suite.Equal(tc.version, suite.productVersion(testSKU))
			suite.GreaterOrEqual(suite.availableStock(testSKU), 0)
		})
	}
}

// TestMixedPaths_AddBatchKeepsConcurrentBatchAllocation makes sure a product Save
// based on an older read cannot delete a line the batch path committed meanwhile.
func (suite *UnitOfWorkIntegrationTestSuite) TestMixedPaths_AddBatchKeepsConcurrentBatchAllocation() {
	suite.Run("optimistic", func() {
		suite.SetupTest()
		ctx := context.Background()
		suite.seedProduct(testSKU, "batch-001", 20)

		stale := suite.productFactory(postgres_adapter.Optimistic, 0).Create()
		p, err := stale.Get(ctx, testSKU)
		suite.Require().NoError(err)

		batches := suite.batchFactory(postgres_adapter.Optimistic, 10).Create()
		suite.Require().NoError(suite.allocateThroughBatches(batches, suite.newLine(5, "order-001")))
		suite.Require().NoError(batches.Dispose(ctx))

		later, err := batch.NewBatch("batch-002", testSKU, 10, time.Now().Add(time.Hour))
		suite.Require().NoError(err)
		suite.Require().NoError(p.AddBatch(later))

		err = stale.Save(ctx, p)
		suite.Require().ErrorIs(err, ports.ErrVersionConflict)
		suite.Require().NoError(stale.Dispose(ctx))

		suite.Equal(int64(1), suite.countOrderLines())
		suite.Equal(1, suite.productVersion(testSKU))
	})

	suite.Run("pessimistic", func() {
		suite.SetupTest()
		ctx := context.Background()
		suite.seedProduct(testSKU, "batch-001", 20)

		holder := suite.productFactory(postgres_adapter.Pessimistic, 0).Create()
		p, err := holder.Get(ctx, testSKU)
		suite.Require().NoError(err)

		waiter := suite.batchFactory(postgres_adapter.Pessimistic, 10).Create()
		line := suite.newLine(5, "order-001")
		done := make(chan error, 1)
		go func() {
			done <- suite.allocateThroughBatches(waiter, line)
		}()

		suite.waitForLockWaiter()

		later, err := batch.NewBatch("batch-002", testSKU, 10, time.Now().Add(time.Hour))
		suite.Require().NoError(err)
		suite.Require().NoError(p.AddBatch(later))
		suite.Require().NoError(holder.Save(ctx, p))
		suite.Require().NoError(holder.Dispose(ctx))

		suite.Require().NoError(<-done)
		suite.Require().NoError(waiter.Dispose(ctx))

		suite.Equal(int64(1), suite.countOrderLines())
		suite.Equal(2, suite.productVersion(testSKU))
		suite.Equal(25, suite.availableStock(testSKU))
	})
}

// TestOptimistic_SaveDetectsConcurrentAllocation keeps a stale product read from
// overwriting an allocation committed after it.
func (suite *UnitOfWorkIntegrationTestSuite) TestOptimistic_SaveDetectsConcurrentAllocation() {
	ctx := context.Background()
	suite.seedProduct(testSKU, "batch-001", 20)
	factory := suite.productFactory(postgres_adapter.Optimistic, 0)

	stale := factory.Create()
	p, err := stale.Get(ctx, testSKU)
	suite.Require().NoError(err)

	allocator := factory.Create()
	_, err = allocator.Allocate(ctx, suite.newLine(5, "order-001"))
	suite.Require().NoError(err)
	suite.Require().NoError(allocator.Dispose(ctx))

	later, err := batch.NewBatch("batch-002", testSKU, 10, time.Now().Add(time.Hour))
	suite.Require().NoError(err)
	suite.Require().NoError(p.AddBatch(later))

	err = stale.Save(ctx, p)
	suite.Require().ErrorIs(err, ports.ErrVersionConflict)
	suite.Require().NoError(stale.Dispose(ctx))

	suite.Equal(int64(1), suite.countOrderLines())
	suite.Equal(1, suite.productVersion(testSKU))
}

func (suite *UnitOfWorkIntegrationTestSuite) TestSave_AdvancesVersion() {
	for _, strategy := range []postgres_adapter.Strategy{postgres_adapter.Optimistic, postgres_adapter.Pessimistic} {
		suite.Run(strategy.String(), func() {
			suite.SetupTest()
			ctx := context.Background()
			suite.seedProduct(testSKU, "batch-001", 20)

			u := suite.productFactory(strategy, 0).Create()
			p, err := u.Get(ctx, testSKU)
			suite.Require().NoError(err)

			later, err := batch.NewBatch("batch-002", testSKU, 10, time.Now().Add(time.Hour))
			suite.Require().NoError(err)
			suite.Require().NoError(p.AddBatch(later))
			suite.Require().NoError(u.Save(ctx, p))
			suite.Require().NoError(u.Dispose(ctx))

			suite.Equal(1, suite.productVersion(testSKU))

			reader := suite.productFactory(strategy, 0).Create()
			loaded, err := reader.Get(ctx, testSKU)
			suite.Require().NoError(err)
			suite.Require().NoError(reader.Dispose(ctx))
			suite.Len(loaded.Batches(), 2)
		})
	}
}
