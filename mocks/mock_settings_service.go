package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docintake/internal/domain"
	"docintake/internal/service"
)

// MockSettingsService is a mock implementation of service.SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) Save(ctx context.Context, profile, accessKey string, cfg domain.SessionConfig) (*service.SavedProfile, error) {
	args := m.Called(ctx, profile, accessKey, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SavedProfile), args.Error(1)
}

func (m *MockSettingsService) Load(ctx context.Context, profile, accessKey string) (*domain.SessionConfig, error) {
	args := m.Called(ctx, profile, accessKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SessionConfig), args.Error(1)
}

func (m *MockSettingsService) Delete(ctx context.Context, profile, accessKey string) error {
	args := m.Called(ctx, profile, accessKey)
	return args.Error(0)
}
