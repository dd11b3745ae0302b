package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	"docintake/internal/domain"
	"docintake/internal/port"
	"docintake/internal/secret"
)

var profilePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// SavedProfile is returned by Save. AccessKey is set only when the profile
// was created by this call; it is not stored and cannot be recovered.
type SavedProfile struct {
	Config    domain.SessionConfig `json:"config"`
	AccessKey string               `json:"access_key,omitempty"`
}

// SettingsService persists session configuration profiles. API keys are
// sealed before storage. Every profile is guarded by an access key issued
// when it is first saved; reading, changing, deleting or starting a session
// from a profile requires that key.
type SettingsService interface {
	Save(ctx context.Context, profile, accessKey string, cfg domain.SessionConfig) (*SavedProfile, error)
	Load(ctx context.Context, profile, accessKey string) (*domain.SessionConfig, error)
	Delete(ctx context.Context, profile, accessKey string) error
}

type settingsService struct {
	repo       port.SettingsRepository // nil when no database is configured
	box        *secret.Box
	now        func() time.Time
	bcryptCost int
}

// NewSettingsService creates a new SettingsService. repo may be nil.
func NewSettingsService(repo port.SettingsRepository, box *secret.Box) SettingsService {
	return &settingsService{repo: repo, box: box, now: time.Now, bcryptCost: bcrypt.DefaultCost}
}

func (s *settingsService) ready(profile string) error {
	if s.repo == nil || s.box == nil {
		return fmt.Errorf("%w: settings store is not configured", domain.ErrConfiguration)
	}
	if !profilePattern.MatchString(profile) {
		return fmt.Errorf("%w: invalid profile name", domain.ErrValidation)
	}
	return nil
}

// authorize checks accessKey against the profile's stored hash. Profiles
// stored without a hash cannot be used through the API.
func authorize(stored *domain.StoredSettings, accessKey string) error {
	if accessKey == "" {
		return fmt.Errorf("%w: profile access key is required", domain.ErrUnauthorized)
	}
	if stored.AccessHash == "" {
		return fmt.Errorf("%w: profile %s has no access key", domain.ErrForbidden, stored.Profile)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.AccessHash), []byte(accessKey)); err != nil {
		return fmt.Errorf("%w: profile access key does not match", domain.ErrForbidden)
	}
	return nil
}

func (s *settingsService) load(ctx context.Context, profile, accessKey string) (*domain.StoredSettings, error) {
	if err := s.ready(profile); err != nil {
		return nil, err
	}
	stored, err := s.repo.Get(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := authorize(stored, accessKey); err != nil {
		log.Printf("settingsService: access to profile %s denied: %v", profile, err)
		return nil, err
	}
	return stored, nil
}

// Save stores cfg under profile. Empty keys keep the previously stored value.
// Creating a profile issues its access key; updating one requires it.
func (s *settingsService) Save(ctx context.Context, profile, accessKey string, cfg domain.SessionConfig) (*SavedProfile, error) {
	if err := s.ready(profile); err != nil {
		return nil, err
	}

	existing, err := s.repo.Get(ctx, profile)
	if err != nil && !errors.Is(err, domain.ErrSettingsNotFound) {
		return nil, fmt.Errorf("loading settings: %w", err)
	}

	stored := &domain.StoredSettings{
		Profile:            profile,
		ExtractionEndpoint: cfg.ExtractionEndpoint,
		UpdatedAt:          s.now().UTC(),
	}
	issued := ""
	if existing != nil {
		if err := authorize(existing, accessKey); err != nil {
			log.Printf("settingsService.Save: update of profile %s denied: %v", profile, err)
			return nil, err
		}
		stored.AccessHash = existing.AccessHash
	} else {
		if issued, stored.AccessHash, err = s.newAccessKey(); err != nil {
			return nil, err
		}
	}

	if stored.SealedExtractionKey, err = s.sealOrKeep(cfg.ExtractionKey, profile, "extraction", existing); err != nil {
		return nil, err
	}
	if stored.SealedAnalysisKey, err = s.sealOrKeep(cfg.AnalysisKey, profile, "analysis", existing); err != nil {
		return nil, err
	}
	if stored.ExtractionEndpoint == "" && existing != nil {
		stored.ExtractionEndpoint = existing.ExtractionEndpoint
	}

	if err := s.repo.Upsert(ctx, stored); err != nil {
		log.Printf("settingsService.Save: failed to store profile %s: %v", profile, err)
		return nil, fmt.Errorf("storing settings: %w", err)
	}

	saved, err := s.open(stored)
	if err != nil {
		return nil, err
	}
	if issued != "" {
		log.Printf("settingsService.Save: created profile %s", profile)
	}
	return &SavedProfile{Config: saved.Masked(), AccessKey: issued}, nil
}

// Load returns the unmasked configuration for profile.
func (s *settingsService) Load(ctx context.Context, profile, accessKey string) (*domain.SessionConfig, error) {
	stored, err := s.load(ctx, profile, accessKey)
	if err != nil {
		return nil, err
	}
	return s.open(stored)
}

func (s *settingsService) Delete(ctx context.Context, profile, accessKey string) error {
	if _, err := s.load(ctx, profile, accessKey); err != nil {
		return err
	}
	return s.repo.Delete(ctx, profile)
}

// newAccessKey returns a random access key and its bcrypt hash.
func (s *settingsService) newAccessKey() (key, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generating access key: %w", err)
	}
	key = base64.RawURLEncoding.EncodeToString(buf)
	h, err := bcrypt.GenerateFromPassword([]byte(key), s.bcryptCost)
	if err != nil {
		return "", "", fmt.Errorf("hashing access key: %w", err)
	}
	return key, string(h), nil
}

func (s *settingsService) sealOrKeep(plain, profile, kind string, existing *domain.StoredSettings) (string, error) {
	if plain == "" {
		if existing == nil {
			return "", nil
		}
		if kind == "extraction" {
			return existing.SealedExtractionKey, nil
		}
		return existing.SealedAnalysisKey, nil
	}
	sealed, err := s.box.Seal(plain, profile+"/"+kind)
	if err != nil {
		return "", fmt.Errorf("sealing %s key: %w", kind, err)
	}
	return sealed, nil
}

func (s *settingsService) open(stored *domain.StoredSettings) (*domain.SessionConfig, error) {
	extractionKey, err := s.box.Open(stored.SealedExtractionKey, stored.Profile+"/extraction")
	if err != nil {
		return nil, fmt.Errorf("%w: stored extraction key cannot be opened: %v", domain.ErrConfiguration, err)
	}
	analysisKey, err := s.box.Open(stored.SealedAnalysisKey, stored.Profile+"/analysis")
	if err != nil {
		return nil, fmt.Errorf("%w: stored analysis key cannot be opened: %v", domain.ErrConfiguration, err)
	}
	return &domain.SessionConfig{
		ExtractionEndpoint: stored.ExtractionEndpoint,
		ExtractionKey:      extractionKey,
		AnalysisKey:        analysisKey,
	}, nil
}
