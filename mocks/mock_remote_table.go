package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invwatch/internal/port"
)

// MockRemoteTable is a mock implementation of port.RemoteTable.
type MockRemoteTable struct {
	mock.Mock
}

func (m *MockRemoteTable) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockRemoteTable) Columns(ctx context.Context, table string) ([]port.Column, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.Column), args.Error(1)
}

func (m *MockRemoteTable) Records(ctx context.Context, table string) ([]port.Record, error) {
	args := m.Called(ctx, table)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.Record), args.Error(1)
}

func (m *MockRemoteTable) AddRecords(ctx context.Context, table string, records []port.Record) error {
	args := m.Called(ctx, table, records)
	return args.Error(0)
}
