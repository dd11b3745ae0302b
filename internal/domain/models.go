package domain

import (
	"time"

	"github.com/google/uuid"
)

// Document is the binary content a session extracts from. The payload is
// never serialized.
type Document struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"-"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	PageCount   int       `json:"page_count"`
	ArchiveKey  string    `json:"-"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Table is a dense row-major grid of cell contents. Unfilled cells are "".
type Table [][]string

// KeyValuePair is a key/value field recognized in a document.
type KeyValuePair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ExtractionResult is the canonical shape of an extraction service response.
type ExtractionResult struct {
	Text          string         `json:"documentText"`
	Tables        []Table        `json:"documentTables"`
	KeyValuePairs []KeyValuePair `json:"documentKeyValuePairs"`
}

// AnalysisTurn is one answered question. Turns are append-only.
type AnalysisTurn struct {
	ID           uuid.UUID `db:"id" json:"id"`
	SessionID    uuid.UUID `db:"session_id" json:"session_id"`
	DocumentName string    `db:"document_name" json:"document_name"`
	Question     string    `db:"question" json:"question"`
	Answer       string    `db:"answer" json:"answer"`
	Model        string    `db:"model" json:"model"`
	AskedAt      time.Time `db:"asked_at" json:"asked_at"`
}

// ExtractionCredentials addresses one extraction service account.
type ExtractionCredentials struct {
	Endpoint string
	Key      string
}

// SessionConfig holds the credentials a session uses for remote calls.
type SessionConfig struct {
	ExtractionEndpoint string `json:"extraction_endpoint"`
	ExtractionKey      string `json:"extraction_key"`
	AnalysisKey        string `json:"analysis_key"`
}

// IsConfigured reports whether all three credentials are present.
func (c SessionConfig) IsConfigured() bool {
	return c.ExtractionEndpoint != "" && c.ExtractionKey != "" && c.AnalysisKey != ""
}

// Extraction returns the extraction service credentials.
func (c SessionConfig) Extraction() ExtractionCredentials {
	return ExtractionCredentials{Endpoint: c.ExtractionEndpoint, Key: c.ExtractionKey}
}

// Masked returns a copy safe to return to clients.
func (c SessionConfig) Masked() SessionConfig {
	return SessionConfig{
		ExtractionEndpoint: c.ExtractionEndpoint,
		ExtractionKey:      MaskSecret(c.ExtractionKey),
		AnalysisKey:        MaskSecret(c.AnalysisKey),
	}
}

// MaskSecret keeps the last four characters of a secret.
func MaskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return "****"
	}
	return "****" + s[len(s)-4:]
}

// StoredSettings is a persisted settings profile. Keys are sealed at rest.
type StoredSettings struct {
	Profile             string    `db:"profile" json:"profile"`
	ExtractionEndpoint  string    `db:"extraction_endpoint" json:"extraction_endpoint"`
	SealedExtractionKey string    `db:"extraction_key" json:"-"`
	SealedAnalysisKey   string    `db:"analysis_key" json:"-"`
	AccessHash          string    `db:"access_hash" json:"-"` // bcrypt hash of the profile access key
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}
