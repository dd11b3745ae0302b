package claude

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
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-3-opus-20240229"
	provider     = "claude"
)

// Analyzer implements port.DocumentAnalyzer using the Anthropic Messages API.
type Analyzer struct {
	apiKey    string
	model     string
	maxTokens int
	endpoint  string
	client    *http.Client
}

// NewAnalyzer creates a Claude-based analyzer from config.
func NewAnalyzer(cfg *config.AnalysisConfig) *Analyzer {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	return newAnalyzer(cfg, endpoint)
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
		"model":      a.model,
		"max_tokens": a.maxTokens,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": input.Prompt,
			},
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
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	respBody, err := analysis.Send(ctx, a.client, req, provider)
	if err != nil {
		return nil, err
	}

	return parseResponse(respBody, a.model)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Model   string `json:"model"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func parseResponse(body []byte, model string) (*port.AnalyzeOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling response: %v", domain.ErrTransport, err)
	}

	if resp.Model != "" {
		model = resp.Model
	}
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			return &port.AnalyzeOutput{Text: block.Text, ModelUsed: model}, nil
		}
	}
	return nil, fmt.Errorf("%w: no text content in claude response", domain.ErrEmptyResponse)
}
