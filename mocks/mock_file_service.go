package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/domain"
	"docintake/internal/service"
)

// MockFileService is a mock implementation of service.FileService.
type MockFileService struct {
	mock.Mock
}

func (m *MockFileService) Intake(ctx context.Context, input service.FileUploadInput) (*domain.Document, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Document), args.Error(1)
}

func (m *MockFileService) GetDownloadURL(ctx context.Context, doc *domain.Document) (string, error) {
	args := m.Called(ctx, doc)
	return args.String(0), args.Error(1)
}

func (m *MockFileService) Discard(ctx context.Context, doc *domain.Document) {
	m.Called(ctx, doc)
}
