package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docintake/internal/domain"
	"docintake/internal/service"
	"docintake/internal/session"
)

// MockSessionService is a mock implementation of service.SessionService.
type MockSessionService struct {
	mock.Mock
}

func (m *MockSessionService) snapshot(args mock.Arguments) (*session.Snapshot, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*session.Snapshot), args.Error(1)
}

func (m *MockSessionService) Create(ctx context.Context, input service.CreateSessionInput) (*service.CreatedSession, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CreatedSession), args.Error(1)
}

func (m *MockSessionService) Get(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	return m.snapshot(m.Called(ctx, id))
}

func (m *MockSessionService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionService) Configure(ctx context.Context, id uuid.UUID, cfg domain.SessionConfig) (*session.Snapshot, error) {
	return m.snapshot(m.Called(ctx, id, cfg))
}

func (m *MockSessionService) SelectDocument(ctx context.Context, id uuid.UUID, input service.FileUploadInput) (*session.Snapshot, error) {
	return m.snapshot(m.Called(ctx, id, input))
}

func (m *MockSessionService) Extract(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	return m.snapshot(m.Called(ctx, id))
}

func (m *MockSessionService) Ask(ctx context.Context, id uuid.UUID, question string) (*domain.AnalysisTurn, error) {
	args := m.Called(ctx, id, question)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AnalysisTurn), args.Error(1)
}

func (m *MockSessionService) History(ctx context.Context, id uuid.UUID) ([]domain.AnalysisTurn, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisTurn), args.Error(1)
}

func (m *MockSessionService) Cancel(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	return m.snapshot(m.Called(ctx, id))
}

func (m *MockSessionService) Reset(ctx context.Context, id uuid.UUID) (*session.Snapshot, error) {
	return m.snapshot(m.Called(ctx, id))
}

func (m *MockSessionService) Export(ctx context.Context, id uuid.UUID, format domain.ExportFormat) (*service.ExportFile, error) {
	args := m.Called(ctx, id, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ExportFile), args.Error(1)
}
