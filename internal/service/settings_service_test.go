package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"docintake/internal/domain"
	"docintake/internal/secret"
	"docintake/internal/service"
	"docintake/mocks"
)

func newBox(t *testing.T) *secret.Box {
	t.Helper()
	box, err := secret.NewBox("settings-passphrase")
	require.NoError(t, err)
	return box
}

func accessHash(t *testing.T, key string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestSettingsService_SaveAndLoad(t *testing.T) {
	repo := new(mocks.MockSettingsRepo)
	svc := service.NewSettingsService(repo, newBox(t))

	var stored *domain.StoredSettings
	repo.On("Get", mock.Anything, "default").Return(nil, domain.ErrSettingsNotFound).Once()
	repo.On("Upsert", mock.Anything, mock.AnythingOfType("*domain.StoredSettings")).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*domain.StoredSettings) }).
		Return(nil)

	saved, err := svc.Save(context.Background(), "default", "", domain.SessionConfig{
		ExtractionEndpoint: "https://example.cognitiveservices.azure.com",
		ExtractionKey:      "azure-key-1234",
		AnalysisKey:        "sk-ant-9876",
	})

	require.NoError(t, err)
	assert.Equal(t, "****1234", saved.Config.ExtractionKey)
	assert.Equal(t, "****9876", saved.Config.AnalysisKey)
	require.NotEmpty(t, saved.AccessKey)
	require.NotNil(t, stored)
	assert.NotContains(t, stored.SealedExtractionKey, "azure-key")
	assert.NotContains(t, stored.SealedAnalysisKey, "sk-ant")
	assert.NotContains(t, stored.AccessHash, saved.AccessKey)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.AccessHash), []byte(saved.AccessKey)))

	repo.On("Get", mock.Anything, "default").Return(stored, nil)
	cfg, err := svc.Load(context.Background(), "default", saved.AccessKey)

	require.NoError(t, err)
	assert.Equal(t, "azure-key-1234", cfg.ExtractionKey)
	assert.Equal(t, "sk-ant-9876", cfg.AnalysisKey)
	assert.Equal(t, "https://example.cognitiveservices.azure.com", cfg.ExtractionEndpoint)
}

func TestSettingsService_Save_KeepsExistingKeys(t *testing.T) {
	repo := new(mocks.MockSettingsRepo)
	box := newBox(t)
	svc := service.NewSettingsService(repo, box)

	sealedExtraction, err := box.Seal("old-azure", "p1/extraction")
	require.NoError(t, err)
	sealedAnalysis, err := box.Seal("old-claude", "p1/analysis")
	require.NoError(t, err)
	hash := accessHash(t, "p1-key")
	existing := &domain.StoredSettings{
		Profile:             "p1",
		ExtractionEndpoint:  "https://old",
		SealedExtractionKey: sealedExtraction,
		SealedAnalysisKey:   sealedAnalysis,
		AccessHash:          hash,
	}

	repo.On("Get", mock.Anything, "p1").Return(existing, nil)
	repo.On("Upsert", mock.Anything, mock.MatchedBy(func(s *domain.StoredSettings) bool {
		return s.ExtractionEndpoint == "https://old" &&
			s.SealedExtractionKey == sealedExtraction &&
			s.SealedAnalysisKey != sealedAnalysis &&
			s.AccessHash == hash
	})).Return(nil)

	saved, err := svc.Save(context.Background(), "p1", "p1-key", domain.SessionConfig{AnalysisKey: "new-claude"})

	require.NoError(t, err)
	assert.Equal(t, "****aude", saved.Config.AnalysisKey)
	assert.Empty(t, saved.AccessKey)
	repo.AssertExpectations(t)
}

func TestSettingsService_ExistingProfileRequiresAccessKey(t *testing.T) {
	box := newBox(t)
	sealed, err := box.Seal("azure", "p1/extraction")
	require.NoError(t, err)
	existing := &domain.StoredSettings{Profile: "p1", SealedExtractionKey: sealed, AccessHash: accessHash(t, "right")}

	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "missing key", key: "", wantErr: domain.ErrUnauthorized},
		{name: "wrong key", key: "wrong", wantErr: domain.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mocks.MockSettingsRepo)
			svc := service.NewSettingsService(repo, box)
			repo.On("Get", mock.Anything, "p1").Return(existing, nil)

			_, err := svc.Load(context.Background(), "p1", tt.key)
			assert.ErrorIs(t, err, tt.wantErr)

			_, err = svc.Save(context.Background(), "p1", tt.key, domain.SessionConfig{AnalysisKey: "stolen"})
			assert.ErrorIs(t, err, tt.wantErr)

			err = svc.Delete(context.Background(), "p1", tt.key)
			assert.ErrorIs(t, err, tt.wantErr)

			repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
			repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		})
	}
}

func TestSettingsService_ProfileWithoutAccessHashIsLocked(t *testing.T) {
	repo := new(mocks.MockSettingsRepo)
	svc := service.NewSettingsService(repo, newBox(t))
	repo.On("Get", mock.Anything, "legacy").Return(&domain.StoredSettings{Profile: "legacy"}, nil)

	_, err := svc.Load(context.Background(), "legacy", "anything")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.Save(context.Background(), "legacy", "anything", domain.SessionConfig{ExtractionKey: "k"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestSettingsService_InvalidProfile(t *testing.T) {
	svc := service.NewSettingsService(new(mocks.MockSettingsRepo), newBox(t))

	_, err := svc.Load(context.Background(), "../etc/passwd", "k")
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSettingsService_NoRepository(t *testing.T) {
	svc := service.NewSettingsService(nil, newBox(t))

	_, err := svc.Save(context.Background(), "default", "", domain.SessionConfig{})
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSettingsService_Load_NotFound(t *testing.T) {
	repo := new(mocks.MockSettingsRepo)
	svc := service.NewSettingsService(repo, newBox(t))
	repo.On("Get", mock.Anything, "missing").Return(nil, domain.ErrSettingsNotFound)

	_, err := svc.Load(context.Background(), "missing", "k")
	assert.ErrorIs(t, err, domain.ErrSettingsNotFound)
}

func TestSettingsService_Load_TamperedKey(t *testing.T) {
	repo := new(mocks.MockSettingsRepo)
	box := newBox(t)
	svc := service.NewSettingsService(repo, box)

	// Sealed under another profile's label.
	sealed, err := box.Seal("azure", "other/extraction")
	require.NoError(t, err)
	repo.On("Get", mock.Anything, "p2").Return(&domain.StoredSettings{
		Profile:             "p2",
		SealedExtractionKey: sealed,
		AccessHash:          accessHash(t, "k2"),
	}, nil)

	_, err = svc.Load(context.Background(), "p2", "k2")
	assert.ErrorIs(t, err, domain.ErrConfiguration)
}

func TestSettingsService_Save_UpsertError(t *testing.T) {
	repo := new(mocks.MockSettingsRepo)
	svc := service.NewSettingsService(repo, newBox(t))
	repo.On("Get", mock.Anything, "p").Return(nil, domain.ErrSettingsNotFound)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := svc.Save(context.Background(), "p", "", domain.SessionConfig{ExtractionKey: "k"})
	assert.Error(t, err)
}

func TestSettingsService_Delete(t *testing.T) {
	repo := new(mocks.MockSettingsRepo)
	svc := service.NewSettingsService(repo, newBox(t))
	repo.On("Get", mock.Anything, "p").Return(&domain.StoredSettings{Profile: "p", AccessHash: accessHash(t, "pk")}, nil)
	repo.On("Delete", mock.Anything, "p").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), "p", "pk"))
	repo.AssertExpectations(t)
}
