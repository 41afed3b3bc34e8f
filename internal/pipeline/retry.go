package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/leadwatch/internal/model"
	"github.com/sells-group/leadwatch/internal/resilience"
)

// RetryPolicy bounds the attempts of one enrichment call and picks the wait
// between attempts from the failure class.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     resilience.ClassBackoff
	// Sleep waits between attempts. Defaults to resilience.Sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultRetryPolicy allows three attempts with the standard class backoff.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff:     resilience.DefaultClassBackoff(),
	}
}

// Retry runs op until it succeeds or the policy is exhausted. Rate-limit and
// server-error failures are counted on stats. No wait follows the final
// attempt; cancellation of ctx stops immediately with the last failure.
func Retry[T any](ctx context.Context, policy RetryPolicy, stats *model.RunStats, op func(ctx context.Context) (T, error)) (T, error) {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	sleep := policy.Sleep
	if sleep == nil {
		sleep = resilience.Sleep
	}

	var zero T
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		lastErr = err

		class := resilience.Classify(err)
		switch class {
		case resilience.FailureRateLimited:
			stats.RateLimitErrors++
		case resilience.FailureServerError:
			stats.ServerErrors++
		}

		if ctx.Err() != nil || attempt == attempts {
			break
		}

		delay := policy.Backoff.Delay(class, attempt)
		zap.L().Warn("pipeline: enrichment attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.String("class", class.String()),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		if err := sleep(ctx, delay); err != nil {
			break
		}
	}
	return zero, lastErr
}
