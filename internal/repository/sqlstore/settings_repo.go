package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"docintake/internal/domain"
	"docintake/internal/port"
)

type settingsRepo struct {
	db *sqlx.DB
}

// NewSettingsRepo creates a SQL-backed SettingsRepository.
func NewSettingsRepo(db *sqlx.DB) port.SettingsRepository {
	return &settingsRepo{db: db}
}

func (r *settingsRepo) Get(ctx context.Context, profile string) (*domain.StoredSettings, error) {
	var s domain.StoredSettings
	query := r.db.Rebind(`SELECT profile, extraction_endpoint, extraction_key, analysis_key, access_hash, updated_at
		FROM settings WHERE profile = ?`)
	if err := r.db.GetContext(ctx, &s, query, profile); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("settingsRepo.Get: %w", err)
	}
	return &s, nil
}

func (r *settingsRepo) Upsert(ctx context.Context, s *domain.StoredSettings) error {
	query := r.db.Rebind(`INSERT INTO settings (profile, extraction_endpoint, extraction_key, analysis_key, access_hash, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (profile) DO UPDATE SET
			extraction_endpoint = excluded.extraction_endpoint,
			extraction_key = excluded.extraction_key,
			analysis_key = excluded.analysis_key,
			access_hash = excluded.access_hash,
			updated_at = excluded.updated_at`)
	_, err := r.db.ExecContext(ctx, query,
		s.Profile, s.ExtractionEndpoint, s.SealedExtractionKey, s.SealedAnalysisKey, s.AccessHash, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("settingsRepo.Upsert: %w", err)
	}
	return nil
}

func (r *settingsRepo) Delete(ctx context.Context, profile string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM settings WHERE profile = ?"), profile)
	if err != nil {
		return fmt.Errorf("settingsRepo.Delete: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrSettingsNotFound
	}
	return nil
}
