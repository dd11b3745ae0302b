package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/domain"
	"docintake/internal/port"
	"docintake/internal/service"
)

// MockDocumentService is a mock implementation of service.DocumentService.
type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Process(ctx context.Context, input service.ProcessInput) (*domain.ExtractionResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ExtractionResult), args.Error(1)
}

func (m *MockDocumentService) Analyze(ctx context.Context, input service.AnalyzeInput) (*port.AnalyzeOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.AnalyzeOutput), args.Error(1)
}
