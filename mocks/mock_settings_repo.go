package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/domain"
)

// MockSettingsRepo is a mock implementation of port.SettingsRepository.
type MockSettingsRepo struct {
	mock.Mock
}

func (m *MockSettingsRepo) Get(ctx context.Context, profile string) (*domain.StoredSettings, error) {
	args := m.Called(ctx, profile)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.StoredSettings), args.Error(1)
}

func (m *MockSettingsRepo) Upsert(ctx context.Context, settings *domain.StoredSettings) error {
	args := m.Called(ctx, settings)
	return args.Error(0)
}

func (m *MockSettingsRepo) Delete(ctx context.Context, profile string) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}
