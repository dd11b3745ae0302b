package port

import (
	"context"

	"docintake/internal/domain"
)

// ExtractInput carries the data needed for document extraction.
type ExtractInput struct {
	FileBytes   []byte
	ContentType string
	Credentials domain.ExtractionCredentials
}

// DocumentExtractor abstracts the OCR/table/key-value extraction service.
type DocumentExtractor interface {
	Extract(ctx context.Context, input ExtractInput) (*domain.ExtractionResult, error)
}

// CredentialResolver is implemented by extractors that fill missing
// credentials from server defaults. It fails with domain.ErrConfiguration
// when no usable endpoint and key remain.
type CredentialResolver interface {
	ResolveCredentials(creds domain.ExtractionCredentials) (domain.ExtractionCredentials, error)
}

// ExtractionCache stores canonical extraction results by content key.
type ExtractionCache interface {
	Get(ctx context.Context, key string) (*domain.ExtractionResult, bool, error)
	Set(ctx context.Context, key string, result *domain.ExtractionResult) error
}
