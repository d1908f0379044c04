package engine

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// RetryConfig bounds how failed attempts are retried.
type RetryConfig struct {
	// MaxRetries is the number of attempts after the first one. Zero means
	// the default of 2; a negative value disables retries.
	MaxRetries int

	// BaseDelay is the wait before the first retry. It doubles every retry.
	BaseDelay time.Duration

	// MaxDelay caps the wait between retries.
	MaxDelay time.Duration

	// JitterFactor randomizes each wait by up to ±JitterFactor. Zero disables it.
	JitterFactor float64
}

// DefaultRetryConfig returns 2 retries, 1s base delay and a 30s cap.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 2,
		BaseDelay:  time.Second,
		MaxDelay:   30 * time.Second,
	}
}

func (c RetryConfig) withDefaults() RetryConfig {
	d := DefaultRetryConfig()
	switch {
	case c.MaxRetries == 0:
		c.MaxRetries = d.MaxRetries
	case c.MaxRetries < 0:
		c.MaxRetries = 0
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = d.BaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = d.MaxDelay
	}
	if c.MaxDelay < c.BaseDelay {
		c.MaxDelay = c.BaseDelay
	}
	return c
}

// Backoff is the wait before retry number n, counting from 0:
// min(BaseDelay * 2^n, MaxDelay), then jittered.
func (c RetryConfig) Backoff(n int) time.Duration {
	delay := time.Duration(float64(c.BaseDelay) * math.Pow(2, float64(n)))
	if delay > c.MaxDelay || delay <= 0 {
		delay = c.MaxDelay
	}
	if c.JitterFactor > 0 {
		jitter := float64(delay) * c.JitterFactor
		delay = time.Duration(float64(delay) + (rand.Float64()*2-1)*jitter)
		if delay < 0 {
			delay = 0
		}
		if delay > c.MaxDelay {
			delay = c.MaxDelay
		}
	}
	return delay
}

// sleep waits for d or until ctx is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return context.Cause(ctx)
	}
}
