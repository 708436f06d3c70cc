package llm

import (
	"context"
	"time"
)

// Default retry policy for model invocations.
const (
	DefaultMaxRetries = 3
	DefaultBaseDelay  = 1 * time.Second
)

// retryConfig holds retry policy settings.
type retryConfig struct {
	maxRetries int
	baseDelay  time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// RetryOption configures CompleteWithRetry.
type RetryOption func(*retryConfig)

// WithMaxRetries sets the total number of attempts (including the first).
func WithMaxRetries(n int) RetryOption {
	return func(c *retryConfig) {
		if n > 0 {
			c.maxRetries = n
		}
	}
}

// WithBaseDelay sets the initial backoff delay.
func WithBaseDelay(d time.Duration) RetryOption {
	return func(c *retryConfig) {
		if d > 0 {
			c.baseDelay = d
		}
	}
}

// withSleeper replaces the sleep function. Test hook.
func withSleeper(fn func(ctx context.Context, d time.Duration) error) RetryOption {
	return func(c *retryConfig) {
		c.sleep = fn
	}
}

// CompleteWithRetry invokes the client with bounded exponential-backoff
// retry. The delay before attempt i+1 is baseDelay * 2^i; no delay is
// applied after the final failure. This is the sole retry policy for model
// calls; call sites use this instead of Client.Complete directly.
//
// There is deliberately no jitter and no circuit breaker.
func CompleteWithRetry(ctx context.Context, client Client, req Request, opts ...RetryOption) (*Response, error) {
	cfg := retryConfig{
		maxRetries: DefaultMaxRetries,
		baseDelay:  DefaultBaseDelay,
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var lastErr error
	for attempt := 0; attempt < cfg.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, NewError("complete", err, false)
		}

		resp, err := client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if attempt < cfg.maxRetries-1 {
			delay := cfg.baseDelay << uint(attempt)
			if sleepErr := cfg.sleep(ctx, delay); sleepErr != nil {
				return nil, NewError("complete", sleepErr, false)
			}
		}
	}

	return nil, NewError("complete", lastErr, false)
}

// sleepContext sleeps for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
