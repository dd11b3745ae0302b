package sqlstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"docintake/internal/domain"
	"docintake/internal/port"
)

type turnRepo struct {
	db *sqlx.DB
}

// NewTurnRepo creates a SQL-backed TurnRepository.
func NewTurnRepo(db *sqlx.DB) port.TurnRepository {
	return &turnRepo{db: db}
}

func (r *turnRepo) Append(ctx context.Context, t *domain.AnalysisTurn) error {
	query := r.db.Rebind(`INSERT INTO analysis_turns (id, session_id, document_name, question, answer, model, asked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := r.db.ExecContext(ctx, query,
		t.ID.String(), t.SessionID.String(), t.DocumentName, t.Question, t.Answer, t.Model, t.AskedAt)
	if err != nil {
		return fmt.Errorf("turnRepo.Append: %w", err)
	}
	return nil
}

func (r *turnRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]domain.AnalysisTurn, error) {
	turns := []domain.AnalysisTurn{}
	query := r.db.Rebind(`SELECT id, session_id, document_name, question, answer, model, asked_at
		FROM analysis_turns WHERE session_id = ? ORDER BY asked_at, id`)
	if err := r.db.SelectContext(ctx, &turns, query, sessionID.String()); err != nil {
		return nil, fmt.Errorf("turnRepo.ListBySession: %w", err)
	}
	return turns, nil
}
