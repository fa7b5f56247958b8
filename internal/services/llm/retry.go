package llm

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RetryConfig defines transport-level retry behaviour for provider calls.
// It is independent of the report reflection loop.
type RetryConfig struct {
	MaxRetries        int
	InitialBackoff    time.Duration
	MaxBackoff        time.Duration
	BackoffMultiplier float64
	// RateLimitBackoff is the base wait after a 429/RESOURCE_EXHAUSTED without a suggested delay
	RateLimitBackoff time.Duration
}

const (
	DefaultMaxRetries        = 3
	DefaultInitialBackoff    = 2 * time.Second
	DefaultMaxBackoff        = 90 * time.Second
	DefaultBackoffMultiplier = 1.5
	DefaultRateLimitBackoff  = 45 * time.Second
)

// NewDefaultRetryConfig returns the retry policy used when none is configured
func NewDefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:        DefaultMaxRetries,
		InitialBackoff:    DefaultInitialBackoff,
		MaxBackoff:        DefaultMaxBackoff,
		BackoffMultiplier: DefaultBackoffMultiplier,
		RateLimitBackoff:  DefaultRateLimitBackoff,
	}
}

// IsRateLimitError matches 429 status codes and quota errors
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(errStr, "RESOURCE_EXHAUSTED") ||
		strings.Contains(errStr, "quota")
}

// retryDelayRegex matches "Please retry in Xs" or "retryDelay:Xs" patterns
var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the API-suggested retry delay from an error message.
// Returns 0 if no delay is found.
//
// Example: "Error 429, Message: ... Please retry in 45.387061394s., Status: RESOURCE_EXHAUSTED"
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}

	matches := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(matches) < 2 {
		return 0
	}

	seconds, parseErr := strconv.ParseFloat(matches[1], 64)
	if parseErr != nil {
		return 0
	}

	return time.Duration(seconds * float64(time.Second))
}

// Backoff computes the wait before retry number attempt+1.
// Rate limit errors start from the API-suggested delay (plus a small buffer) or RateLimitBackoff.
// The result is capped at MaxBackoff.
func (c *RetryConfig) Backoff(attempt int, err error) time.Duration {
	base := c.InitialBackoff
	if IsRateLimitError(err) {
		base = c.RateLimitBackoff
		if apiDelay := ExtractRetryDelay(err); apiDelay > 0 {
			base = apiDelay + 5*time.Second
		}
	}

	multiplier := 1.0
	for i := 0; i < attempt; i++ {
		multiplier *= c.BackoffMultiplier
	}

	backoff := time.Duration(float64(base) * multiplier)
	if backoff > c.MaxBackoff {
		backoff = c.MaxBackoff
	}
	return backoff
}
