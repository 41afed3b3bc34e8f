package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/leadwatch/internal/resilience"
)

func TestNewOpenRouter_RequiresKey(t *testing.T) {
	_, err := NewOpenRouter(OpenRouterConfig{Model: "deepseek/deepseek-chat"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key is required")
}

func TestOpenRouter_Complete(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.Equal(t, "https://leadwatch.example", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "LeadWatcher", r.Header.Get("X-Title"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &body))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "gen-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "deepseek/deepseek-chat",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"company\":\"Vercel\"}"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 52, "completion_tokens": 18, "total_tokens": 70}
		}`))
	}))
	defer srv.Close()

	c, err := NewOpenRouter(OpenRouterConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Model:   "deepseek/deepseek-chat",
		Referer: "https://leadwatch.example",
		Title:   "LeadWatcher",
	})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "extract"},
			{Role: RoleUser, Content: "Headline: Vercel raises $40M"},
		},
		MaxTokens:   150,
		Temperature: 0.1,
		JSONMode:    true,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"company":"Vercel"}`, resp.Content)
	assert.Equal(t, "deepseek/deepseek-chat", resp.Model)
	assert.Equal(t, int64(52), resp.Usage.InputTokens)
	assert.Equal(t, int64(18), resp.Usage.OutputTokens)

	assert.Equal(t, "deepseek/deepseek-chat", body["model"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestOpenRouter_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"Rate limit exceeded","type":"rate_limit","code":429}}`))
	}))
	defer srv.Close()

	c, err := NewOpenRouter(OpenRouterConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), Request{
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.Error(t, err)
	assert.Equal(t, resilience.FailureRateLimited, resilience.Classify(err))
}

func TestClassifyOpenRouterError(t *testing.T) {
	tests := []struct {
		name      string
		msg       string
		wantCode  int
		transient bool
	}{
		{"rate limit", "API returned unexpected status code: 429: slow down", 429, true},
		{"bad gateway", "API returned unexpected status code: 502: upstream", 502, true},
		{"bad request", "API returned unexpected status code: 400: bad", 0, false},
		{"no status", "dial tcp: refused", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifyOpenRouterError(errString(tt.msg))
			assert.Equal(t, tt.wantCode, resilience.StatusCodeOf(err))
			var te *resilience.TransientError
			assert.Equal(t, tt.transient, asTransient(err, &te))
		})
	}
}

func TestMessageType(t *testing.T) {
	assert.Equal(t, "system", string(messageType(RoleSystem)))
	assert.Equal(t, "ai", string(messageType(RoleAssistant)))
	assert.Equal(t, "human", string(messageType(RoleUser)))
	assert.Equal(t, "human", string(messageType("")))
}

func TestTokenCount(t *testing.T) {
	info := map[string]any{"a": 3, "b": int64(4), "c": float64(5), "d": "x"}
	assert.Equal(t, int64(3), tokenCount(info, "a"))
	assert.Equal(t, int64(4), tokenCount(info, "b"))
	assert.Equal(t, int64(5), tokenCount(info, "c"))
	assert.Equal(t, int64(0), tokenCount(info, "d"))
	assert.Equal(t, int64(0), tokenCount(nil, "a"))
}
