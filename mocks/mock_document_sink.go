package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invwatch/internal/domain"
)

// MockDocumentSink is a mock implementation of port.DocumentSink.
type MockDocumentSink struct {
	mock.Mock
}

func (m *MockDocumentSink) Write(ctx context.Context, doc *domain.InvoiceDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}
