package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/inkaso/collections-engine/internal/domain"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, comm *domain.Communication) error {
	args := m.Called(ctx, comm)
	return args.Error(0)
}

type MockProcessorClient struct {
	mock.Mock
}

func (m *MockProcessorClient) FetchPaymentMetadata(ctx context.Context, processorPaymentID string) (*domain.ProcessorEvent, error) {
	args := m.Called(ctx, processorPaymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProcessorEvent), args.Error(1)
}
