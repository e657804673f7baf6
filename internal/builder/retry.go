package builder

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Retrier wraps a Builder with bounded exponential backoff. Only build
// failures are retried; every other error aborts immediately.
type Retrier struct {
	inner    Builder
	attempts int
	base     time.Duration
	max      time.Duration
	logger   *zap.Logger

	// sleep is swappable for tests; defaults to a context-aware wait.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRetrier creates a Retrier making up to attempts attempts per build.
func NewRetrier(inner Builder, attempts int, base, max time.Duration, logger *zap.Logger) *Retrier {
	return &Retrier{
		inner:    inner,
		attempts: attempts,
		base:     base,
		max:      max,
		logger:   logger,
		sleep:    sleepContext,
	}
}

// Build retries the wrapped builder until it succeeds, the attempts run
// out, or the context is cancelled. The last build failure is returned
// when retries are exhausted.
func (r *Retrier) Build(ctx context.Context, in Input) (*Output, error) {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		out, err := r.inner.Build(ctx, in)
		if err == nil {
			return out, nil
		}

		var buildErr *Error
		if !errors.As(err, &buildErr) {
			return nil, err
		}
		lastErr = err

		if attempt == r.attempts {
			break
		}

		backoff := r.backoff(attempt)
		r.logger.Warn("build failed, retrying",
			zap.String("revision", in.SmithyRsRevision),
			zap.Int("attempt", attempt),
			zap.Int("exit_code", buildErr.ExitCode),
			zap.Duration("backoff", backoff))

		if err := r.sleep(ctx, backoff); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// backoff returns the exponential backoff for the given attempt number,
// clamped to the configured maximum.
func (r *Retrier) backoff(attempt int) time.Duration {
	shift := attempt - 1
	if shift > 16 {
		shift = 16
	}
	backoff := r.base * time.Duration(1<<shift)
	if backoff > r.max {
		backoff = r.max
	}
	return backoff
}

// sleepContext waits for d or until the context is cancelled.
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
