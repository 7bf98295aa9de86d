// Package retry provides the exponential-backoff-with-full-jitter retry loop
// used by the S3 backend's request pipeline: responses are classified by
// status code, and failures in the retryable classes are retried with
// backoff; everything else is surfaced immediately.
package retry

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/objectfs/iofs/pkg/errors"
)

// Config defines retry behavior. New fills zero MaxAttempts, InitialDelay and
// MaxDelay with DefaultConfig's values; Jitter and OnRetry are used as given.
type Config struct {
	// MaxAttempts is the maximum number of attempts, including the first.
	// The S3 backend defaults this to 4.
	MaxAttempts int

	// InitialDelay is the base delay before the first retry. The S3 backend
	// defaults this to 50ms.
	InitialDelay time.Duration

	// MaxDelay caps the computed delay. The S3 backend defaults this to 5s.
	MaxDelay time.Duration

	// Jitter enables full jitter (AWS's "Exponential Backoff And Jitter"):
	// the delay for attempt n is a uniform random draw from
	// [0, min(MaxDelay, InitialDelay*2^(n-1))], not a perturbation of a
	// fixed exponential curve.
	Jitter bool

	// OnRetry, if set, is called before sleeping ahead of each retry.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// DefaultConfig returns the retry configuration the S3 backend uses absent
// an override: 4 attempts, 50ms initial delay, 5s cap, full jitter.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:  4,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	}
}

// Retryer executes a function under the exponential-backoff-with-jitter
// policy described by a Config.
type Retryer struct {
	config Config
}

// New creates a Retryer, filling zero-valued MaxAttempts, InitialDelay and
// MaxDelay with DefaultConfig's values. Jitter is not defaulted: a Config
// that leaves it false gets no jitter.
func New(config Config) *Retryer {
	defaults := DefaultConfig()
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = defaults.MaxAttempts
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = defaults.InitialDelay
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = defaults.MaxDelay
	}
	return &Retryer{config: config}
}

// Classify reports whether err should trigger a retry, consulting the
// Retryable flag on the wrapped *errors.FsError, if any.
func Classify(err error) bool {
	if err == nil {
		return false
	}
	var fsErr *errors.FsError
	if stderrors.As(err, &fsErr) {
		return fsErr.Retryable
	}
	return false
}

// ClassifyStatus reports whether an HTTP status code from the S3 backend's
// request pipeline should be retried: 2xx is success (never passed here),
// 3xx is handled by the caller following the redirect, 4xx is terminal
// except 408 and 429, and 5xx is retryable.
func ClassifyStatus(statusCode int) bool {
	switch {
	case statusCode == 408 || statusCode == 429:
		return true
	case statusCode >= 500:
		return true
	default:
		return false
	}
}

// Do executes fn, retrying on a Classify-retryable error until MaxAttempts is
// reached or fn succeeds.
func (r *Retryer) Do(fn func() error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !Classify(lastErr) || attempt == r.config.MaxAttempts {
			return lastErr
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr, delay)
		}
		time.Sleep(delay)
	}

	return fmt.Errorf("retry attempts (%d) exhausted: %w", r.config.MaxAttempts, lastErr)
}

// DoWithContext is Do with early exit on context cancellation between
// attempts.
func (r *Retryer) DoWithContext(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}

		if !Classify(lastErr) || attempt == r.config.MaxAttempts {
			return lastErr
		}

		delay := r.delay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, lastErr, delay)
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return fmt.Errorf("retry attempts (%d) exhausted: %w", r.config.MaxAttempts, lastErr)
}

// delay computes the full-jitter backoff delay for the given attempt number
// (1-indexed): uniform(0, min(MaxDelay, InitialDelay*2^(attempt-1))).
func (r *Retryer) delay(attempt int) time.Duration {
	capDelay := float64(r.config.InitialDelay) * math.Pow(2, float64(attempt-1))
	if capDelay > float64(r.config.MaxDelay) {
		capDelay = float64(r.config.MaxDelay)
	}
	if !r.config.Jitter {
		return time.Duration(capDelay)
	}
	if capDelay <= 0 {
		return 0
	}
	return time.Duration(rand.Float64() * capDelay)
}
