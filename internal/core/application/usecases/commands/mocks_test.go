package commands_test

import (
	"context"

	"allocation/internal/core/application/usecases/commands"
	"allocation/internal/core/domain/model/batch"
	"allocation/internal/core/domain/model/orderline"
	"allocation/internal/core/domain/model/product"

	"github.com/stretchr/testify/mock"
)

type MockProductUoW struct{ mock.Mock }

func (m *MockProductUoW) Dispose(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockProductUoW) AddError(err error) {
	m.Called(err)
}

func (m *MockProductUoW) Add(ctx context.Context, p *product.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductUoW) Get(ctx context.Context, sku string) (*product.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*product.Product), args.Error(1)
}

func (m *MockProductUoW) Save(ctx context.Context, p *product.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockProductUoW) Allocate(ctx context.Context, line orderline.OrderLine) (string, error) {
	args := m.Called(ctx, line)
	return args.String(0), args.Error(1)
}

type MockProductUoWFactory struct{ mock.Mock }

func (m *MockProductUoWFactory) Create() commands.ProductUoW {
	args := m.Called()
	return args.Get(0).(commands.ProductUoW)
}

type MockBatchUoW struct{ mock.Mock }

func (m *MockBatchUoW) Dispose(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBatchUoW) AddError(err error) {
	m.Called(err)
}

func (m *MockBatchUoW) Candidates(ctx context.Context, sku string) ([]*batch.Batch, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*batch.Batch), args.Error(1)
}

func (m *MockBatchUoW) Allocate(
	ctx context.Context,
	b *batch.Batch,
	line orderline.OrderLine,
) (orderline.OrderLine, error) {
	args := m.Called(ctx, b, line)
	return args.Get(0).(orderline.OrderLine), args.Error(1)
}

type MockBatchUoWFactory struct{ mock.Mock }

func (m *MockBatchUoWFactory) Create() commands.BatchUoW {
	args := m.Called()
	return args.Get(0).(commands.BatchUoW)
}
