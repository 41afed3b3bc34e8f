package chat

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/sells-group/leadwatch/internal/resilience"
)

// DefaultOpenRouterBaseURL is the OpenAI-compatible OpenRouter endpoint.
const DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterConfig configures the OpenRouter adapter.
type OpenRouterConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Referer string
	Title   string
	Timeout time.Duration
}

// OpenRouter is a Completer backed by langchaingo's OpenAI client pointed at
// OpenRouter.
type OpenRouter struct {
	llm   *openai.LLM
	model string
}

// NewOpenRouter builds the adapter. Attribution headers are attached to
// every request by the HTTP transport.
func NewOpenRouter(cfg OpenRouterConfig) (*OpenRouter, error) {
	if cfg.APIKey == "" {
		return nil, eris.New("chat: openrouter api key is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultOpenRouterBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &headerTransport{
			base: http.DefaultTransport,
			headers: map[string]string{
				"HTTP-Referer": cfg.Referer,
				"X-Title":      cfg.Title,
			},
		},
	}

	llm, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
		openai.WithBaseURL(baseURL),
		openai.WithHTTPClient(httpClient),
	)
	if err != nil {
		return nil, eris.Wrap(err, "chat: create openrouter client")
	}
	return &OpenRouter{llm: llm, model: cfg.Model}, nil
}

// Complete sends the request and returns the first choice.
func (o *OpenRouter) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	messages := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, llms.TextParts(messageType(m.Role), m.Content))
	}

	opts := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(req.Temperature),
	}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.JSONMode {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := o.llm.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, classifyOpenRouterError(err)
	}
	if len(resp.Choices) == 0 {
		return &Response{Model: model}, nil
	}

	choice := resp.Choices[0]
	return &Response{
		Content: choice.Content,
		Model:   model,
		Usage: Usage{
			InputTokens:  tokenCount(choice.GenerationInfo, "PromptTokens"),
			OutputTokens: tokenCount(choice.GenerationInfo, "CompletionTokens"),
		},
	}, nil
}

func messageType(role string) schema.ChatMessageType {
	switch role {
	case RoleSystem:
		return schema.ChatMessageTypeSystem
	case RoleAssistant:
		return schema.ChatMessageTypeAI
	default:
		return schema.ChatMessageTypeHuman
	}
}

func tokenCount(info map[string]any, key string) int64 {
	switch v := info[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// The OpenAI client reports HTTP failures as "... status code: NNN ...".
var statusCodeRe = regexp.MustCompile(`status code: (\d{3})`)

func classifyOpenRouterError(err error) error {
	wrapped := eris.Wrap(err, "chat: openrouter completion")
	m := statusCodeRe.FindStringSubmatch(err.Error())
	if m == nil {
		return wrapped
	}
	code, convErr := strconv.Atoi(m[1])
	if convErr != nil {
		return wrapped
	}
	if resilience.IsTransientHTTPStatus(code) {
		return resilience.NewTransientError(eris.Wrap(err, fmt.Sprintf("chat: openrouter completion: status %d", code)), code)
	}
	return wrapped
}

// headerTransport sets fixed headers on each outgoing request.
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	for k, v := range t.headers {
		if v != "" {
			r.Header.Set(k, v)
		}
	}
	return t.base.RoundTrip(r)
}
