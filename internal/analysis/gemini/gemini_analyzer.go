package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"docintake/internal/analysis"
	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/port"
)

const (
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel = "gemini-2.0-flash"
	provider     = "gemini"
)

// Analyzer implements port.DocumentAnalyzer using the Gemini generateContent API.
type Analyzer struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

// NewAnalyzer creates a Gemini-based analyzer from config.
func NewAnalyzer(cfg *config.AnalysisConfig) *Analyzer {
	return newAnalyzer(cfg, cfg.Endpoint)
}

// NewAnalyzerWithEndpoint creates an analyzer pointing at a custom API endpoint (for testing).
func NewAnalyzerWithEndpoint(cfg *config.AnalysisConfig, endpoint string) *Analyzer {
	return newAnalyzer(cfg, endpoint)
}

func newAnalyzer(cfg *config.AnalysisConfig, endpoint string) *Analyzer {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}
	return &Analyzer{
		apiKey:    cfg.APIKey,
		model:     model,
		maxTokens: maxTokens,
		endpoint:  endpoint,
		client:    analysis.HTTPClient(cfg.TimeoutSecs),
	}
}

func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	apiKey, err := analysis.ResolveKey(input.APIKey, a.apiKey, provider)
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": input.Prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"maxOutputTokens": a.maxTokens,
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: creating request: %v", domain.ErrConfiguration, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", apiKey)

	respBody, err := analysis.Send(ctx, a.client, req, provider)
	if err != nil {
		return nil, err
	}

	return parseResponse(respBody, a.model)
}

// apiResponse models the Gemini generateContent response.
type apiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func parseResponse(body []byte, model string) (*port.AnalyzeOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling response: %v", domain.ErrTransport, err)
	}

	for _, c := range resp.Candidates {
		for _, part := range c.Content.Parts {
			if part.Text != "" {
				return &port.AnalyzeOutput{Text: part.Text, ModelUsed: model}, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no text parts in gemini response", domain.ErrEmptyResponse)
}
