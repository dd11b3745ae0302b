package port

import (
	"context"

	"docintake/internal/domain"
)

// SettingsRepository persists session configuration profiles.
type SettingsRepository interface {
	Get(ctx context.Context, profile string) (*domain.StoredSettings, error)
	Upsert(ctx context.Context, settings *domain.StoredSettings) error
	Delete(ctx context.Context, profile string) error
}
