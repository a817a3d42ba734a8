package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"jobFeed/internal/tools"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logCall struct {
	runID    *uint
	role     string
	prompt   string
	response string
	tokens   int
}

type fakeLogger struct {
	mu    sync.Mutex
	calls []logCall
}

func (f *fakeLogger) LogLLMRequest(_ context.Context, runID *uint, role, prompt, response, _ string, tokens int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, logCall{runID, role, prompt, response, tokens})
	return nil
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	logs := &fakeLogger{}
	c := NewClient(Config{
		APIKey:            "sk-test",
		Model:             "gpt-4o-mini",
		BaseURL:           srv.URL + "/v1/",
		MaxTokens:         256,
		RequestsPerMinute: 600,
		TokensPerHour:     100000,
	}, logs)
	return c, logs
}

func TestClient_ChatWithTools(t *testing.T) {
	var got openai.ChatCompletionRequest
	c, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "search_jobs", "arguments": "{\"keywords\":\"AI Engineer\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 20, "completion_tokens": 10, "total_tokens": 30}
		}`)
	})

	toolset := ToOpenAITools([]tools.Descriptor{{Name: "search_jobs", Description: "Search jobs"}})
	ctx := ContextWithRunID(context.Background(), 7)
	msg, err := c.Chat(ctx, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: "search for jobs using the following query: AI Engineer"},
	}, toolset)
	require.NoError(t, err)

	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "search_jobs", msg.ToolCalls[0].Function.Name)
	require.Len(t, got.Tools, 1)
	assert.Equal(t, "search_jobs", got.Tools[0].Function.Name)

	require.Len(t, logs.calls, 1)
	assert.Equal(t, RoleChat, logs.calls[0].role)
	require.NotNil(t, logs.calls[0].runID)
	assert.Equal(t, uint(7), *logs.calls[0].runID)
	assert.Equal(t, 30, logs.calls[0].tokens)
	assert.Contains(t, logs.calls[0].response, "search_jobs")
}

func TestClient_Complete(t *testing.T) {
	c, logs := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-2",
			"object": "chat.completion",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "<h2>Fit</h2>"}}],
			"usage": {"prompt_tokens": 5, "completion_tokens": 5, "total_tokens": 10}
		}`)
	})

	out, err := c.Complete(context.Background(), "analyze; reach me at jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, "<h2>Fit</h2>", out)

	require.Len(t, logs.calls, 1)
	assert.Equal(t, RoleAnalysis, logs.calls[0].role)
	assert.Nil(t, logs.calls[0].runID)
	assert.NotContains(t, logs.calls[0].prompt, "jane@example.com")
}

func TestClient_APIError(t *testing.T) {
	c, logs := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error": {"message": "boom", "type": "server_error"}}`)
	})

	_, err := c.Complete(context.Background(), "analyze")
	require.Error(t, err)

	var apiErr *openai.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.HTTPStatusCode)

	require.Len(t, logs.calls, 1)
	assert.Equal(t, RoleAnalysisError, logs.calls[0].role)
}

func TestClient_EmptyChoices(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id": "x", "object": "chat.completion", "choices": []}`)
	})

	_, err := c.Chat(context.Background(), []openai.ChatCompletionMessage{{Role: "user", Content: "hi"}}, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}
