package chat

import (
	"context"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

type rateLimited struct {
	next    Completer
	limiter *rate.Limiter
}

// WithRateLimit returns a Completer that waits on limiter before each call.
// A nil limiter returns next unchanged.
func WithRateLimit(next Completer, limiter *rate.Limiter) Completer {
	if limiter == nil {
		return next
	}
	return &rateLimited{next: next, limiter: limiter}
}

func (r *rateLimited) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "chat: rate limiter wait")
	}
	return r.next.Complete(ctx, req)
}
