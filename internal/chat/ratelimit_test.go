package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func TestWithRateLimit_NilLimiter(t *testing.T) {
	next := new(mockCompleter)
	assert.Same(t, Completer(next), WithRateLimit(next, nil))
}

func TestWithRateLimit_Passes(t *testing.T) {
	next := new(mockCompleter)
	next.On("Complete", mock.Anything, mock.Anything).Return(&Response{Content: "ok"}, nil)

	c := WithRateLimit(next, rate.NewLimiter(rate.Inf, 1))
	resp, err := c.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
	next.AssertNumberOfCalls(t, "Complete", 1)
}

func TestWithRateLimit_CanceledContext(t *testing.T) {
	next := new(mockCompleter)
	limiter := rate.NewLimiter(rate.Limit(0.001), 1)
	require.True(t, limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := WithRateLimit(next, limiter)
	_, err := c.Complete(ctx, Request{})
	require.Error(t, err)
	next.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}
