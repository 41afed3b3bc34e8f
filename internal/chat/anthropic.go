package chat

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadwatch/pkg/anthropic"
)

// Anthropic adapts the Anthropic Messages client to Completer. System turns
// become system blocks; JSON mode is expressed through the prompt only.
type Anthropic struct {
	client anthropic.Client
	model  string
}

// NewAnthropic wraps client. model is used when a request leaves Model blank.
func NewAnthropic(client anthropic.Client, model string) *Anthropic {
	return &Anthropic{client: client, model: model}
}

// Complete sends the request through the Messages API.
func (a *Anthropic) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	var system []anthropic.SystemBlock
	var msgs []anthropic.Message
	for _, m := range req.Messages {
		if m.Role == RoleSystem {
			system = append(system, anthropic.SystemBlock{Text: m.Content})
			continue
		}
		msgs = append(msgs, anthropic.Message{Role: m.Role, Content: m.Content})
	}
	if len(msgs) == 0 {
		return nil, eris.New("chat: anthropic request has no user message")
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	temp := req.Temperature

	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		System:      system,
		Messages:    msgs,
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "chat: anthropic completion")
	}

	out := &Response{
		Content: strings.TrimSpace(resp.Text()),
		Model:   resp.Model,
		Usage: Usage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}
	if out.Model == "" {
		out.Model = model
	}
	return out, nil
}
