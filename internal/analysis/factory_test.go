package analysis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/analysis"
	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/port"
)

func TestNewAnalyzer_RegisteredProvider(t *testing.T) {
	analysis.RegisterProvider("test-provider", func(cfg *config.AnalysisConfig) (port.DocumentAnalyzer, error) {
		return analysis.NewMockAnalyzer(0), nil
	})

	a, err := analysis.NewAnalyzer(&config.AnalysisConfig{Provider: "test-provider"})
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestNewAnalyzer_UnknownProvider(t *testing.T) {
	_, err := analysis.NewAnalyzer(&config.AnalysisConfig{Provider: "nope"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown analysis provider")
}

func TestNewAnalyzer_MockBuiltIn(t *testing.T) {
	a, err := analysis.NewAnalyzer(&config.AnalysisConfig{Provider: "mock"})
	require.NoError(t, err)

	out, err := a.Analyze(context.Background(), port.AnalyzeInput{Prompt: "anything"})
	require.NoError(t, err)
	assert.Equal(t, analysis.MockModel, out.ModelUsed)
	assert.Contains(t, out.Text, "INV-2025-001")
}

func TestMockAnalyzer_RejectsEmptyPrompt(t *testing.T) {
	_, err := analysis.NewMockAnalyzer(0).Analyze(context.Background(), port.AnalyzeInput{Prompt: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
