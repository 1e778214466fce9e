package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockSyncLog is a mock implementation of port.SyncLog.
type MockSyncLog struct {
	mock.Mock
}

func (m *MockSyncLog) Exists(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockSyncLog) Contains(ctx context.Context, invoiceNos []string) (map[string]bool, error) {
	args := m.Called(ctx, invoiceNos)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]bool), args.Error(1)
}

func (m *MockSyncLog) Record(ctx context.Context, invoiceNos []string) error {
	args := m.Called(ctx, invoiceNos)
	return args.Error(0)
}
