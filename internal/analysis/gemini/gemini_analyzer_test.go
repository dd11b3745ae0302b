package gemini_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docintake/internal/analysis/gemini"
	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/port"
)

func newTestAnalyzer(serverURL string) *gemini.Analyzer {
	return gemini.NewAnalyzerWithEndpoint(&config.AnalysisConfig{Provider: "gemini", APIKey: "g-key", TimeoutSecs: 5}, serverURL)
}

func TestGeminiAnalyzer_Analyze_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var reqBody map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		contents := reqBody["contents"].([]interface{})
		require.Len(t, contents, 1)

		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":""},{"text":"Gemini says hi"}]}}]}`))
	}))
	defer server.Close()

	out, err := newTestAnalyzer(server.URL).Analyze(context.Background(), port.AnalyzeInput{Prompt: "p"})

	require.NoError(t, err)
	assert.Equal(t, "Gemini says hi", out.Text)
	assert.Equal(t, "gemini-2.0-flash", out.ModelUsed)
}

func TestGeminiAnalyzer_Analyze_NoCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[]}`))
	}))
	defer server.Close()

	_, err := newTestAnalyzer(server.URL).Analyze(context.Background(), port.AnalyzeInput{Prompt: "p"})
	assert.ErrorIs(t, err, domain.ErrEmptyResponse)
}
