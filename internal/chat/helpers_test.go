package chat

import (
	"context"
	"errors"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/leadwatch/internal/resilience"
	"github.com/sells-group/leadwatch/pkg/anthropic"
)

type errString string

func (e errString) Error() string { return string(e) }

func asTransient(err error, target **resilience.TransientError) bool {
	return errors.As(err, target)
}

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req Request) (*Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Response), args.Error(1)
}
