package retry

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"github.com/peng-yewang/YGMall/shared/apperr"
)

type Config struct {
	MaxAttempts   int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3"`
	InitialDelay  time.Duration `envconfig:"RETRY_INITIAL_DELAY" default:"100ms"`
	MaxDelay      time.Duration `envconfig:"RETRY_MAX_DELAY" default:"2s"`
	BackoffFactor float64       `envconfig:"RETRY_BACKOFF_FACTOR" default:"2"`
	JitterEnabled bool          `envconfig:"RETRY_JITTER_ENABLED" default:"true"`
}

var DefaultConfig = Config{
	MaxAttempts:   3,
	InitialDelay:  100 * time.Millisecond,
	MaxDelay:      2 * time.Second,
	BackoffFactor: 2.0,
	JitterEnabled: true,
}

func ExponentialBackoffWithJitter(attempt int, config Config) time.Duration {
	if attempt <= 0 {
		return 0
	}
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffFactor, float64(attempt-1))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	if config.JitterEnabled {
		jitterFactor := 0.8 + rand.Float64()*0.4
		delay = delay * jitterFactor
	}
	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// IsRetryable reports whether err is a transient collaborator failure. Only
// those are retried; every other kind is terminal.
func IsRetryable(err error) bool {
	return apperr.IsKind(err, apperr.ErrDependency)
}

// Do runs fn until it succeeds, fails with a non retryable error or runs out
// of attempts. fn must be idempotent.
func Do(ctx context.Context, config Config, fn func(ctx context.Context) error) error {
	maxAttempts := config.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if ctx.Err() != nil {
			if lastErr != nil {
				return lastErr
			}
			return apperr.Dependency("context", ctx.Err())
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}

		lastErr = err
		if !IsRetryable(err) || attempt == maxAttempts {
			break
		}

		delay := ExponentialBackoffWithJitter(attempt, config)
		if delay > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return lastErr
			}
		}
	}

	return lastErr
}
