package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"docintake/internal/port"
)

// MockDocumentArchive is a mock implementation of port.DocumentArchive.
type MockDocumentArchive struct {
	mock.Mock
}

func (m *MockDocumentArchive) Put(ctx context.Context, doc port.ArchivedDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *MockDocumentArchive) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockDocumentArchive) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}
