package analysis

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// DefaultRetryAfter is used when a 429 response carries no usable Retry-After.
const DefaultRetryAfter = 60 * time.Second

// RateLimitError is returned when a provider answers HTTP 429. It unwraps to
// an error matching domain.ErrTransport.
type RateLimitError struct {
	Err        error
	RetryAfter time.Duration
	Provider   string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s rate limited (retry after %s): %v", e.Provider, e.RetryAfter, e.Err)
}

func (e *RateLimitError) Unwrap() error {
	return e.Err
}

// NewRateLimitError creates a RateLimitError. A non-positive retryAfter
// becomes DefaultRetryAfter.
func NewRateLimitError(provider string, err error, retryAfter time.Duration) *RateLimitError {
	if retryAfter <= 0 {
		retryAfter = DefaultRetryAfter
	}
	return &RateLimitError{Err: err, RetryAfter: retryAfter, Provider: provider}
}

// RetryAfter reads a Retry-After value given either as delay-seconds or as an
// HTTP date relative to now. It returns 0 when the value is absent, invalid or
// already in the past.
func RetryAfter(val string, now time.Time) time.Duration {
	val = strings.TrimSpace(val)
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	at, err := http.ParseTime(val)
	if err != nil || !at.After(now) {
		return 0
	}
	return at.Sub(now).Round(time.Second)
}
