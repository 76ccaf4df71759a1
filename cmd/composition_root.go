package cmd

import (
	"context"
	"log/slog"

	"allocation/internal/adapters/in/http"
	"allocation/internal/adapters/out/postgres"
	"allocation/internal/core/application/usecases/commands"
	"allocation/internal/core/application/usecases/queries"
	"allocation/internal/core/domain/services"
	"allocation/internal/jobs"

	"gorm.io/gorm"
)

type CompositionRoot struct {
	configs           Config
	gormDB            *gorm.DB
	logger            *slog.Logger
	productUoWFactory *postgres.ProductUnitOfWorkFactory
	batchUoWFactory   *postgres.BatchUnitOfWorkFactory
}

func NewCompositionRoot(configs Config, gormDB *gorm.DB, logger *slog.Logger) (CompositionRoot, error) {
	controller, err := postgres.NewConcurrencyController(configs.ConcurrencyControlStrategy, configs.LockTimeout)
	if err != nil {
		return CompositionRoot{}, err
	}

	return CompositionRoot{
		configs:           configs,
		gormDB:            gormDB,
		logger:            logger,
		productUoWFactory: postgres.NewProductUnitOfWorkFactory(gormDB, controller, logger),
		batchUoWFactory:   postgres.NewBatchUnitOfWorkFactory(gormDB, controller, configs.BatchPageSize, logger),
	}, nil
}

func (c *CompositionRoot) CreateCreateProductCommandHandler() commands.CreateProductCommandHandler {
	return commands.NewCreateProductCommandHandler(c.productUoWs(), c.logger)
}

func (c *CompositionRoot) CreateAddBatchCommandHandler() commands.AddBatchCommandHandler {
	return commands.NewAddBatchCommandHandler(c.productUoWs(), c.logger)
}

func (c *CompositionRoot) CreateAllocateOrderLineCommandHandler() commands.AllocateOrderLineCommandHandler {
	return commands.NewAllocateOrderLineCommandHandler(
		c.productUoWs(),
		c.logger,
		commands.RetryOnConflict(c.configs.AllocationMaxAttempts),
	)
}

func (c *CompositionRoot) CreateAllocateToBatchCommandHandler() commands.AllocateToBatchCommandHandler {
	var f commands.BatchUoWFactory = FuncBatchUoWFactory(func() commands.BatchUoW {
		return c.batchUoWFactory.Create()
	})
	return commands.NewAllocateToBatchCommandHandler(f, services.NewBatchAllocator(), c.logger)
}

func (c *CompositionRoot) CreateGetProductStockQueryHandler() queries.GetProductStockQueryHandler {
	return queries.NewGetProductStockQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateServer() *http.Server {
	handler := c.CreateGetProductStockQueryHandler()
	return http.NewServer(func(ctx context.Context) error {
		return postgres.Ping(ctx, c.gormDB)
	}, handler)
}

// CreateJobManager returns the background jobs, reading pool stats from the
// shared connection pool.
func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	sqlDB, err := c.gormDB.DB()
	if err != nil {
		return nil, err
	}
	return jobs.NewJobManager(sqlDB.Stats, c.configs.PoolStatsInterval, c.logger), nil
}

func (c *CompositionRoot) productUoWs() commands.ProductUoWFactory {
	return FuncProductUoWFactory(func() commands.ProductUoW {
		return c.productUoWFactory.Create()
	})
}

type FuncProductUoWFactory func() commands.ProductUoW

func (f FuncProductUoWFactory) Create() commands.ProductUoW {
	return f()
}

type FuncBatchUoWFactory func() commands.BatchUoW

func (f FuncBatchUoWFactory) Create() commands.BatchUoW {
	return f()
}
