package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"docintake/internal/domain"
	"docintake/internal/port"
)

// MockModel is reported as the model of mock answers.
const MockModel = "mock"

const mockAnswer = `Based on the document analysis:

This appears to be an invoice dated March 14, 2025, with invoice number INV-2025-001 for a total of $1,250.00.

The document contains a table with 3 line items. Each item includes a description, quantity, and price.

Key insights:
- The invoice is from the current quarter
- The total amount falls within the standard procurement range
- All line items appear to be properly categorized

Recommendations:
- This invoice should be processed according to standard procedures
- The payment terms indicate this should be paid within 30 days
- This expense should be categorized under the Operations budget`

// MockAnalyzer returns a canned answer. Used in demo mode.
type MockAnalyzer struct {
	Latency time.Duration
}

// NewMockAnalyzer creates a MockAnalyzer with the given simulated latency.
func NewMockAnalyzer(latency time.Duration) *MockAnalyzer {
	return &MockAnalyzer{Latency: latency}
}

func (m *MockAnalyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is empty", domain.ErrValidation)
	}
	if m.Latency > 0 {
		timer := time.NewTimer(m.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %v", domain.ErrCancelled, ctx.Err())
		case <-timer.C:
		}
	}
	return &port.AnalyzeOutput{Text: mockAnswer, ModelUsed: MockModel}, nil
}
