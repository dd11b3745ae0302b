package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"docintake/internal/domain"
)

// MockTurnRepo is a mock implementation of port.TurnRepository.
type MockTurnRepo struct {
	mock.Mock
}

func (m *MockTurnRepo) Append(ctx context.Context, turn *domain.AnalysisTurn) error {
	args := m.Called(ctx, turn)
	return args.Error(0)
}

func (m *MockTurnRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AnalysisTurn, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AnalysisTurn), args.Error(1)
}
