package sqlstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/domain"
	"docintake/internal/repository/sqlstore"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	conn, err := sqlstore.OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, sqlstore.Migrate(conn))
	return conn
}

func TestMigrate_Idempotent(t *testing.T) {
	conn := newTestDB(t)
	assert.NoError(t, sqlstore.Migrate(conn))
}

func TestSettingsRepo_UpsertGetDelete(t *testing.T) {
	repo := sqlstore.NewSettingsRepo(newTestDB(t))
	ctx := context.Background()

	_, err := repo.Get(ctx, "default")
	assert.ErrorIs(t, err, domain.ErrSettingsNotFound)

	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Upsert(ctx, &domain.StoredSettings{
		Profile:             "default",
		ExtractionEndpoint:  "https://one",
		SealedExtractionKey: "sealed-a",
		SealedAnalysisKey:   "sealed-b",
		AccessHash:          "hash-1",
		UpdatedAt:           now,
	}))
	require.NoError(t, repo.Upsert(ctx, &domain.StoredSettings{
		Profile:             "default",
		ExtractionEndpoint:  "https://two",
		SealedExtractionKey: "sealed-c",
		SealedAnalysisKey:   "sealed-b",
		AccessHash:          "hash-1",
		UpdatedAt:           now.Add(time.Hour),
	}))

	got, err := repo.Get(ctx, "default")
	require.NoError(t, err)
	assert.Equal(t, "https://two", got.ExtractionEndpoint)
	assert.Equal(t, "sealed-c", got.SealedExtractionKey)
	assert.Equal(t, "hash-1", got.AccessHash)
	assert.WithinDuration(t, now.Add(time.Hour), got.UpdatedAt, time.Second)

	require.NoError(t, repo.Delete(ctx, "default"))
	assert.ErrorIs(t, repo.Delete(ctx, "default"), domain.ErrSettingsNotFound)
}

func TestTurnRepo_AppendAndList(t *testing.T) {
	repo := sqlstore.NewTurnRepo(newTestDB(t))
	ctx := context.Background()
	sessionID := uuid.New()
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)

	for i, q := range []string{"first?", "second?"} {
		require.NoError(t, repo.Append(ctx, &domain.AnalysisTurn{
			ID:           uuid.New(),
			SessionID:    sessionID,
			DocumentName: "invoice.pdf",
			Question:     q,
			Answer:       "answer " + q,
			Model:        "mock",
			AskedAt:      base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Append(ctx, &domain.AnalysisTurn{
		ID: uuid.New(), SessionID: uuid.New(), Question: "other", Answer: "x", AskedAt: base,
	}))

	turns, err := repo.ListBySession(ctx, sessionID)

	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "first?", turns[0].Question)
	assert.Equal(t, "second?", turns[1].Question)
	assert.Equal(t, sessionID, turns[0].SessionID)
	assert.WithinDuration(t, base, turns[0].AskedAt, time.Second)

	empty, err := repo.ListBySession(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}
