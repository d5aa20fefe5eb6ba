package service

import (
	"context"

	"github.com/stretchr/testify/mock"

	"privateinbox/backend/internal/storage"
)

// MockStore 模拟存储客户端
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Insert(ctx context.Context, table string, record storage.Record) (storage.Record, error) {
	args := m.Called(ctx, table, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(storage.Record), args.Error(1)
}

func (m *MockStore) Select(ctx context.Context, table string, filters []storage.Filter, order *storage.Order) ([]storage.Record, error) {
	args := m.Called(ctx, table, filters, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.Record), args.Error(1)
}

func (m *MockStore) Update(ctx context.Context, table string, patch storage.Record, filters []storage.Filter) (int64, error) {
	args := m.Called(ctx, table, patch, filters)
	return args.Get(0).(int64), args.Error(1)
}

// stubGenerator 固定返回同一地址
type stubGenerator string

func (g stubGenerator) Generate() string {
	return string(g)
}
