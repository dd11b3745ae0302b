package extraction

import (
	"context"
	"time"

	"docintake/internal/domain"
	"docintake/internal/port"
)

// MockExtractor returns a fixed invoice-shaped result. Used in demo mode.
type MockExtractor struct {
	Latency time.Duration
}

// NewMockExtractor creates a MockExtractor with the given simulated latency.
func NewMockExtractor(latency time.Duration) *MockExtractor {
	return &MockExtractor{Latency: latency}
}

func (m *MockExtractor) Extract(ctx context.Context, _ port.ExtractInput) (*domain.ExtractionResult, error) {
	if err := wait(ctx, m.Latency); err != nil {
		return nil, err
	}
	return &domain.ExtractionResult{
		Text: "This is the extracted text from the document...",
		Tables: []domain.Table{
			{
				{"Header 1", "Header 2", "Header 3"},
				{"Value 1", "Value 2", "Value 3"},
				{"Value 4", "Value 5", "Value 6"},
			},
		},
		KeyValuePairs: []domain.KeyValuePair{
			{Key: "Invoice Number", Value: "INV-2025-001"},
			{Key: "Date", Value: "2025-03-14"},
			{Key: "Total Amount", Value: "$1,250.00"},
		},
	}, nil
}
