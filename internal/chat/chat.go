// Package chat defines the chat-completion contract the enricher talks to
// and its provider adapters.
package chat

import "context"

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single role/content turn.
type Message struct {
	Role    string
	Content string
}

// Request is one chat-completion call.
type Request struct {
	Messages    []Message
	Model       string
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// Usage reports token consumption for a call.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Response is the first choice of a chat completion.
type Response struct {
	Content string
	Model   string
	Usage   Usage
}

// Completer performs chat completions.
type Completer interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
