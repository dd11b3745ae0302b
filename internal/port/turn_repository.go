package port

import (
	"context"

	"github.com/google/uuid"

	"docintake/internal/domain"
)

// TurnRepository persists answered questions.
type TurnRepository interface {
	Append(ctx context.Context, turn *domain.AnalysisTurn) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AnalysisTurn, error)
}
