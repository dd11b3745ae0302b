package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"docintake/internal/domain"
)

// DefaultTimeout bounds each outbound analysis request.
const DefaultTimeout = 60 * time.Second

// HTTPClient returns a client with the configured per-request timeout.
func HTTPClient(timeoutSecs int) *http.Client {
	timeout := time.Duration(timeoutSecs) * time.Second
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// Send executes req and returns the response body. Non-2xx statuses map to
// domain.ErrTransport; 429 becomes a *RateLimitError.
func Send(ctx context.Context, client *http.Client, req *http.Request, provider string) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: calling %s API: %v", domain.ErrCancelled, provider, ctx.Err())
		}
		var urlErr *url.Error
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("%w: calling %s API: request timed out", domain.ErrTransport, provider)
		}
		return nil, fmt.Errorf("%w: calling %s API: %v", domain.ErrTransport, provider, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s response: %v", domain.ErrTransport, provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		baseErr := fmt.Errorf("%w: %s API error (status %d): %s",
			domain.ErrTransport, provider, resp.StatusCode, truncate(strings.TrimSpace(string(body)), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, NewRateLimitError(provider, baseErr, RetryAfter(resp.Header.Get("Retry-After"), time.Now()))
		}
		return nil, baseErr
	}

	return body, nil
}

// ResolveKey picks the per-call key, falling back to the provider default.
func ResolveKey(callKey, defaultKey, provider string) (string, error) {
	if callKey != "" {
		return callKey, nil
	}
	if defaultKey != "" {
		return defaultKey, nil
	}
	return "", fmt.Errorf("%w: %s API key is required", domain.ErrConfiguration, provider)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
