package store

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/sells-group/leadwatch/internal/model"
	"github.com/sells-group/leadwatch/internal/resilience"
)

// Resilient wraps a LeadStore with retries and a circuit breaker. Each call
// is retried on the configured schedule; ErrDuplicate and an open circuit
// are returned immediately.
type Resilient struct {
	next    LeadStore
	retry   resilience.RetryConfig
	breaker *resilience.CircuitBreaker
}

// NewResilient wraps next. A nil breaker disables circuit breaking.
func NewResilient(next LeadStore, retry resilience.RetryConfig, breaker *resilience.CircuitBreaker) *Resilient {
	retry.ShouldRetry = shouldRetry
	return &Resilient{next: next, retry: retry, breaker: breaker}
}

// NewBreaker builds a circuit breaker that ignores duplicate inserts and
// caller cancellation.
func NewBreaker(cfg resilience.CircuitBreakerConfig) *resilience.CircuitBreaker {
	cfg.ShouldTrip = func(err error) bool {
		return !errors.Is(err, ErrDuplicate) && !errors.Is(err, context.Canceled)
	}
	return resilience.NewCircuitBreaker(cfg)
}

func shouldRetry(err error) bool {
	return err != nil &&
		!errors.Is(err, ErrDuplicate) &&
		!errors.Is(err, resilience.ErrCircuitOpen) &&
		!errors.Is(err, context.Canceled)
}

func (r *Resilient) withRetry(op string) resilience.RetryConfig {
	cfg := r.retry
	cfg.OnRetry = resilience.RetryLogger("store", op)
	return cfg
}

func call[T any](ctx context.Context, r *Resilient, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return resilience.DoVal(ctx, r.withRetry(op), func(ctx context.Context) (T, error) {
		if r.breaker == nil {
			return fn(ctx)
		}
		return resilience.ExecuteVal(ctx, r.breaker, fn)
	})
}

func (r *Resilient) Ping(ctx context.Context) error {
	_, err := call(ctx, r, "ping", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, r.next.Ping(ctx)
	})
	return err
}

type lookup struct {
	id    string
	found bool
}

func (r *Resilient) FindBySourceURL(ctx context.Context, url string) (string, bool, error) {
	res, err := call(ctx, r, "find_by_source_url", func(ctx context.Context) (lookup, error) {
		id, found, err := r.next.FindBySourceURL(ctx, url)
		return lookup{id: id, found: found}, err
	})
	return res.id, res.found, err
}

// InsertLead retries failed inserts. A failure after the commit reached the
// database is indistinguishable from one before it, so a retry may meet the
// row its own earlier attempt wrote. That case still returns ErrDuplicate
// but is logged separately from a plain duplicate.
func (r *Resilient) InsertLead(ctx context.Context, row model.LeadRow) (string, error) {
	attempts := 0
	id, err := call(ctx, r, "insert_lead", func(ctx context.Context) (string, error) {
		attempts++
		return r.next.InsertLead(ctx, row)
	})
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		zap.L().Warn("store: circuit open, insert skipped", zap.String("source_url", row.SourceURL))
	case errors.Is(err, ErrDuplicate) && attempts > 1:
		zap.L().Warn("store: duplicate on insert retry, an earlier attempt may have committed",
			zap.String("source_url", row.SourceURL),
			zap.Int("attempts", attempts),
		)
	}
	return id, err
}

func (r *Resilient) Migrate(ctx context.Context) error {
	return r.next.Migrate(ctx)
}

func (r *Resilient) Close() error {
	return r.next.Close()
}
