package port

import "context"

// AnalyzeInput carries a composed prompt and the caller's credential. An empty
// APIKey falls back to the provider's configured key.
type AnalyzeInput struct {
	Prompt string
	APIKey string
}

// AnalyzeOutput contains the model's answer.
type AnalyzeOutput struct {
	Text      string
	ModelUsed string
}

// DocumentAnalyzer abstracts the language-model service.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
}
