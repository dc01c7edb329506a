package llm

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// RetryConfig controls retries of failed API calls.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig retries three times, doubling from two seconds.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{MaxRetries: 3, BaseDelay: 2 * time.Second, MaxDelay: 30 * time.Second}
}

// backoff returns the wait before retry number attempt (0-based).
// Rate limited calls wait twice as long.
func (c RetryConfig) backoff(attempt int, rateLimited bool) time.Duration {
	d := c.BaseDelay << attempt
	if rateLimited {
		d *= 2
	}
	if c.MaxDelay > 0 && d > c.MaxDelay {
		d = c.MaxDelay
	}
	return d
}

// IsRateLimitError reports whether err looks like a quota or 429 response.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "overloaded")
}

// withRetry calls fn until it succeeds, retries are exhausted or ctx ends.
func withRetry(ctx context.Context, cfg RetryConfig, log zerolog.Logger, fn func() error) error {
	var err error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if attempt == cfg.MaxRetries {
			break
		}

		wait := cfg.backoff(attempt, IsRateLimitError(err))
		log.Warn().
			Int("attempt", attempt+1).
			Dur("backoff", wait).
			Err(err).
			Msg("Retrying LLM API call")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return err
}
