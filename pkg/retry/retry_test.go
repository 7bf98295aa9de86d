package retry

import (
	"context"
	"testing"
	"time"

	"github.com/objectfs/iofs/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRetryer_Success(t *testing.T) {
	t.Parallel()

	retryer := New(Config{MaxAttempts: 3})

	attempts := 0
	err := retryer.Do(func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryer_RetryableError(t *testing.T) {
	t.Parallel()

	retryer := New(Config{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		Jitter:       false,
	})

	attempts := 0
	err := retryer.Do(func() error {
		attempts++
		if attempts < 3 {
			return errors.New(errors.Transport, "dial tcp: timeout")
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryer_NonRetryableErrorStopsImmediately(t *testing.T) {
	t.Parallel()

	retryer := New(Config{MaxAttempts: 3, InitialDelay: time.Millisecond})

	attempts := 0
	err := retryer.Do(func() error {
		attempts++
		return errors.New(errors.NotFound, "no such key")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestRetryer_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	retryer := New(Config{MaxAttempts: 3, InitialDelay: time.Millisecond})

	attempts := 0
	err := retryer.Do(func() error {
		attempts++
		return errors.New(errors.Transport, "dial tcp: timeout")
	})

	assert.Error(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetryer_DoWithContext_CancelStopsRetries(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	retryer := New(Config{MaxAttempts: 5, InitialDelay: 10 * time.Millisecond})

	attempts := 0
	err := retryer.DoWithContext(ctx, func(ctx context.Context) error {
		attempts++
		if attempts == 2 {
			cancel()
		}
		return errors.New(errors.Transport, "dial tcp: timeout")
	})

	assert.Error(t, err)
	assert.LessOrEqual(t, attempts, 3)
}

func TestClassifyStatus(t *testing.T) {
	t.Parallel()

	assert.False(t, ClassifyStatus(200))
	assert.False(t, ClassifyStatus(301))
	assert.False(t, ClassifyStatus(404))
	assert.True(t, ClassifyStatus(408))
	assert.True(t, ClassifyStatus(429))
	assert.True(t, ClassifyStatus(500))
	assert.True(t, ClassifyStatus(503))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	assert.True(t, Classify(errors.New(errors.Transport, "dial tcp: timeout")))
	assert.False(t, Classify(errors.New(errors.NotFound, "missing")))
	assert.False(t, Classify(nil))
}

func TestDelayFullJitterBounds(t *testing.T) {
	t.Parallel()

	retryer := New(Config{
		MaxAttempts:  4,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Jitter:       true,
	})

	for attempt := 1; attempt <= 4; attempt++ {
		for i := 0; i < 20; i++ {
			d := retryer.delay(attempt)
			assert.GreaterOrEqual(t, d, time.Duration(0))
			assert.LessOrEqual(t, d, retryer.config.MaxDelay)
		}
	}
}

func TestDelayRespectsMaxDelayCap(t *testing.T) {
	t.Parallel()

	retryer := New(Config{
		MaxAttempts:  10,
		InitialDelay: 50 * time.Millisecond,
		MaxDelay:     200 * time.Millisecond,
		Jitter:       false,
	})

	// attempt 10 would be 50ms * 2^9 without the cap, well beyond 200ms.
	assert.Equal(t, 200*time.Millisecond, retryer.delay(10))
}
