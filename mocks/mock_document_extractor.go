package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/domain"
	"docintake/internal/port"
)

// MockDocumentExtractor is a mock implementation of port.DocumentExtractor.
type MockDocumentExtractor struct {
	mock.Mock
}

func (m *MockDocumentExtractor) Extract(ctx context.Context, input port.ExtractInput) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

// MockExtractionCache is a mock implementation of port.ExtractionCache.
type MockExtractionCache struct {
	mock.Mock
}

func (m *MockExtractionCache) Get(ctx context.Context, key string) (*domain.ExtractionResult, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Bool(1), args.Error(2)
}

func (m *MockExtractionCache) Set(ctx context.Context, key string, result *domain.ExtractionResult) error {
	args := m.Called(ctx, key, result)
	return args.Error(0)
}
