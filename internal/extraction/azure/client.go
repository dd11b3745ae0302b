package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docintake/internal/config"
	"docintake/internal/domain"
	"docintake/internal/extraction"
	"docintake/internal/port"
)

const (
	defaultModelID    = "prebuilt-document"
	defaultAPIVersion = "2023-07-31"
	keyHeader         = "Ocp-Apim-Subscription-Key"
)

// Job statuses reported by the analyze operation.
const (
	statusNotStarted = "notStarted"
	statusRunning    = "running"
	statusSucceeded  = "succeeded"
	statusFailed     = "failed"
)

// Client implements port.DocumentExtractor using the Azure Document
// Intelligence REST API.
type Client struct {
	defaultEndpoint string
	defaultKey      string
	modelID         string
	apiVersion      string
	policy          extraction.PollPolicy
	client          *http.Client
}

// NewClient creates an extraction client from config.
func NewClient(cfg *config.ExtractionConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return NewClientWithHTTP(cfg, &http.Client{Timeout: timeout}, extraction.PolicyFromConfig(cfg))
}

// NewClientWithHTTP creates a client with a custom HTTP client and poll policy (for testing).
func NewClientWithHTTP(cfg *config.ExtractionConfig, httpClient *http.Client, policy extraction.PollPolicy) *Client {
	modelID := cfg.ModelID
	if modelID == "" {
		modelID = defaultModelID
	}
	apiVersion := cfg.APIVersion
	if apiVersion == "" {
		apiVersion = defaultAPIVersion
	}
	return &Client{
		defaultEndpoint: cfg.Endpoint,
		defaultKey:      cfg.APIKey,
		modelID:         modelID,
		apiVersion:      apiVersion,
		policy:          policy,
		client:          httpClient,
	}
}

// ModelID returns the analysis model the client submits documents to.
func (c *Client) ModelID() string {
	return c.modelID
}

// ResolveCredentials fills missing endpoint or key from the configured
// defaults.
func (c *Client) ResolveCredentials(creds domain.ExtractionCredentials) (domain.ExtractionCredentials, error) {
	if creds.Endpoint == "" {
		creds.Endpoint = c.defaultEndpoint
	}
	if creds.Key == "" {
		creds.Key = c.defaultKey
	}
	if creds.Endpoint == "" || creds.Key == "" {
		return creds, fmt.Errorf("%w: extraction endpoint and key are required", domain.ErrConfiguration)
	}
	return creds, nil
}

func (c *Client) Extract(ctx context.Context, input port.ExtractInput) (*domain.ExtractionResult, error) {
	creds, err := c.ResolveCredentials(input.Credentials)
	if err != nil {
		return nil, err
	}
	endpoint, key := creds.Endpoint, creds.Key
	if len(input.FileBytes) == 0 {
		return nil, fmt.Errorf("%w: document is empty", domain.ErrValidation)
	}

	operationURL, err := c.submit(ctx, endpoint, key, input)
	if err != nil {
		return nil, err
	}

	var raw *extraction.RawResult
	err = c.policy.Await(ctx, func(ctx context.Context) (bool, error) {
		res, done, pollErr := c.poll(ctx, operationURL, key)
		if pollErr != nil {
			return false, pollErr
		}
		raw = res
		return done, nil
	})
	if err != nil {
		return nil, err
	}

	return extraction.Normalize(raw), nil
}

func (c *Client) submit(ctx context.Context, endpoint, key string, input port.ExtractInput) (string, error) {
	u := fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s",
		strings.TrimRight(endpoint, "/"), url.PathEscape(c.modelID), url.QueryEscape(c.apiVersion))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(input.FileBytes))
	if err != nil {
		return "", fmt.Errorf("%w: creating analyze request: %v", domain.ErrConfiguration, err)
	}
	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(keyHeader, key)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", transportError(ctx, "submitting document", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: analyze request failed (status %d): %s",
			domain.ErrTransport, resp.StatusCode, serviceMessage(body))
	}

	operationURL := resp.Header.Get("Operation-Location")
	if operationURL == "" {
		return "", fmt.Errorf("%w: analyze response missing Operation-Location header", domain.ErrTransport)
	}
	return operationURL, nil
}

// operationResponse models the analyze operation status document.
type operationResponse struct {
	Status        string                `json:"status"`
	AnalyzeResult *extraction.RawResult `json:"analyzeResult"`
	Error         *serviceError         `json:"error"`
}

type serviceError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *Client) poll(ctx context.Context, operationURL, key string) (*extraction.RawResult, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationURL, http.NoBody)
	if err != nil {
		return nil, false, fmt.Errorf("%w: creating poll request: %v", domain.ErrTransport, err)
	}
	req.Header.Set(keyHeader, key)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, transportError(ctx, "polling analyze operation", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, transportError(ctx, "reading poll response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("%w: poll request failed (status %d): %s",
			domain.ErrTransport, resp.StatusCode, serviceMessage(body))
	}

	var op operationResponse
	if err := json.Unmarshal(body, &op); err != nil {
		return nil, false, fmt.Errorf("%w: decoding poll response: %v", domain.ErrTransport, err)
	}

	switch op.Status {
	case statusSucceeded:
		if op.AnalyzeResult == nil {
			return &extraction.RawResult{}, true, nil
		}
		return op.AnalyzeResult, true, nil
	case statusFailed:
		msg := "analysis failed"
		if op.Error != nil && op.Error.Message != "" {
			msg = op.Error.Message
		}
		return nil, false, fmt.Errorf("%w: %s", domain.ErrJobFailed, msg)
	case statusNotStarted, statusRunning:
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("%w: unexpected job status %q", domain.ErrTransport, op.Status)
	}
}

func transportError(ctx context.Context, action string, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrCancelled, action, ctx.Err())
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("%w: %s: request timed out", domain.ErrTransport, action)
	}
	return fmt.Errorf("%w: %s: %v", domain.ErrTransport, action, err)
}

// serviceMessage pulls error.message out of an error body, falling back to the raw text.
func serviceMessage(body []byte) string {
	var envelope struct {
		Error *serviceError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return strings.TrimSpace(string(body))
}
