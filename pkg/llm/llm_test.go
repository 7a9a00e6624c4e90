package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minhyannv/agent-stream-go/pkg/config"
)

func chunk(payload string) string {
	return `{"id":"chatcmpl-1","object":"chat.completion.chunk","created":1,"model":"gpt-4o","choices":[` + payload + `]}`
}

func textChunk(text string) string {
	b, _ := json.Marshal(text)
	return chunk(`{"index":0,"delta":{"content":` + string(b) + `},"finish_reason":null}`)
}

func writeSSE(w http.ResponseWriter, events ...string) {
	for _, ev := range events {
		fmt.Fprintf(w, "data: %s\n\n", ev)
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
	}
}

func sseHandler(t *testing.T, capture *map[string]any, events ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			body, err := io.ReadAll(r.Body)
			require.NoError(t, err)
			require.NoError(t, json.Unmarshal(body, capture))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		writeSSE(w, events...)
		writeSSE(w, "[DONE]")
	}
}

func openAIClient(t *testing.T, srv *httptest.Server) *ChatClient {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OpenAIAPIKey = "sk-test"
	cfg.OpenAIBaseURL = srv.URL + "/v1/"
	c, err := New(&cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func collect(t *testing.T, c Client, req Request) ([]Fragment, error) {
	t.Helper()
	var frags []Fragment
	for frag, err := range c.Stream(context.Background(), req) {
		if err != nil {
			return frags, err
		}
		frags = append(frags, frag)
	}
	return frags, nil
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	_, err := New(&cfg)
	var cfgErr *config.Error
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"OPENAI_API_KEY"}, cfgErr.Missing)

	cfg.UseAzure = true
	cfg.AzureAPIKey = "az"
	_, err = New(&cfg)
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, []string{"AZURE_ENDPOINT", "AZURE_OPENAI_API_DEPLOYMENT_ID"}, cfgErr.Missing)

	_, err = New(nil)
	assert.Error(t, err)
}

func TestNewSelectsBackend(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.OpenAIAPIKey = "sk"
	c, err := New(&cfg)
	require.NoError(t, err)
	assert.Equal(t, BackendOpenAI, c.Backend())
	assert.Equal(t, "gpt-4o", c.Model())

	cfg.UseAzure = true
	cfg.AzureAPIKey = "az"
	cfg.AzureEndpoint = "https://example.openai.azure.com"
	cfg.AzureDeployment = "prod-4o"
	c, err = New(&cfg)
	require.NoError(t, err)
	assert.Equal(t, BackendAzure, c.Backend())
	assert.Equal(t, "prod-4o", c.Model())
}

func TestStreamText(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(sseHandler(t, &body,
		textChunk("Hel"),
		textChunk("lo"),
		chunk(`{"index":0,"delta":{},"finish_reason":"stop"}`),
	))
	defer srv.Close()

	frags, err := collect(t, openAIClient(t, srv), Request{
		System:   "be brief",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Len(t, frags, 2)
	assert.Equal(t, "Hel", frags[0].Text)
	assert.Equal(t, "lo", frags[1].Text)

	assert.Equal(t, "gpt-4o", body["model"])
	assert.Equal(t, true, body["stream"])
	assert.Equal(t, float64(0), body["temperature"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestStreamAccumulatesToolCalls(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(sseHandler(t, &body,
		chunk(`{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_a","type":"function","function":{"name":"calculator","arguments":""}}]}}`),
		chunk(`{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{\"expression\":"}}]}}`),
		chunk(`{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"\"10*5\"}"}}]}}`),
		chunk(`{"index":0,"delta":{"tool_calls":[{"index":1,"id":"call_b","type":"function","function":{"name":"get_current_time","arguments":"{}"}}]}}`),
		chunk(`{"index":0,"delta":{},"finish_reason":"tool_calls"}`),
	))
	defer srv.Close()

	frags, err := collect(t, openAIClient(t, srv), Request{
		Messages: []Message{{Role: RoleUser, Content: "compute"}},
		Tools: []ToolSpec{{
			Name:        "calculator",
			Description: "math",
			Parameters:  map[string]any{"type": "object", "properties": map[string]any{}},
		}},
	})
	require.NoError(t, err)
	require.Len(t, frags, 2)
	assert.Equal(t, Fragment{ToolCallsPending: true}, frags[0])
	assert.Empty(t, frags[1].Text)
	assert.Equal(t, []ToolCall{
		{ID: "call_a", Name: "calculator", Arguments: `{"expression":"10*5"}`},
		{ID: "call_b", Name: "get_current_time", Arguments: "{}"},
	}, frags[1].ToolCalls)

	tools, ok := body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, tools, 1)
	fn := tools[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "calculator", fn["name"])
	assert.Equal(t, "math", fn["description"])
}

func TestStreamSendsToolHistory(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(sseHandler(t, &body, textChunk("50")))
	defer srv.Close()

	_, err := collect(t, openAIClient(t, srv), Request{Messages: []Message{
		{Role: RoleUser, Content: "10*5?"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "calculator", Arguments: `{"expression":"10*5"}`}}},
		{Role: RoleTool, Content: "50", ToolCallID: "call_1", ToolName: "calculator"},
	}})
	require.NoError(t, err)

	msgs := body["messages"].([]any)
	require.Len(t, msgs, 3)
	assistant := msgs[1].(map[string]any)
	calls := assistant["tool_calls"].([]any)
	require.Len(t, calls, 1)
	assert.Equal(t, "call_1", calls[0].(map[string]any)["id"])
	tool := msgs[2].(map[string]any)
	assert.Equal(t, "tool", tool["role"])
	assert.Equal(t, "call_1", tool["tool_call_id"])
}

func TestStreamRejectsInvalidHistory(t *testing.T) {
	c := &ChatClient{}
	_, err := collect(t, c, Request{Messages: []Message{{Role: RoleTool, Content: "x"}}})
	var pe *ProviderError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Zero(t, pe.Status)
	assert.Contains(t, pe.Message, "no tool call id")

	_, err = collect(t, c, Request{Messages: []Message{{Role: "narrator", Content: "x"}}})
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Contains(t, pe.Message, "narrator")
}

func TestStreamMarksPendingToolCalls(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, nil,
		textChunk("Let me check."),
		chunk(`{"index":0,"delta":{"tool_calls":[{"index":0,"id":"call_a","type":"function","function":{"name":"get_current_time","arguments":""}}]}}`),
		textChunk(" One moment."),
		chunk(`{"index":0,"delta":{"tool_calls":[{"index":0,"function":{"arguments":"{}"}}]}}`),
		chunk(`{"index":0,"delta":{},"finish_reason":"tool_calls"}`),
	))
	defer srv.Close()

	frags, err := collect(t, openAIClient(t, srv), Request{Messages: []Message{{Role: RoleUser, Content: "time?"}}})
	require.NoError(t, err)
	require.Len(t, frags, 4)
	assert.Equal(t, Fragment{Text: "Let me check."}, frags[0])
	assert.Equal(t, Fragment{ToolCallsPending: true}, frags[1])
	assert.Equal(t, Fragment{Text: " One moment."}, frags[2])
	assert.Equal(t, []ToolCall{{ID: "call_a", Name: "get_current_time", Arguments: "{}"}}, frags[3].ToolCalls)
}

func TestStreamHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error","code":"invalid_api_key"}}`)
	}))
	defer srv.Close()

	frags, err := collect(t, openAIClient(t, srv), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Empty(t, frags)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Equal(t, http.StatusUnauthorized, pe.Status)
	assert.NotEmpty(t, pe.Message)
	assert.Contains(t, pe.Error(), "status 401")
}

func TestStreamMidStreamError(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, nil,
		textChunk("partial"),
		`{"error":{"message":"server overloaded","type":"server_error"}}`,
	))
	defer srv.Close()

	frags, err := collect(t, openAIClient(t, srv), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.Len(t, frags, 1)
	assert.Equal(t, "partial", frags[0].Text)
	var pe *ProviderError
	require.True(t, errors.As(err, &pe), "got %v", err)
	assert.Zero(t, pe.Status)
}

func TestStreamEarlyBreakReleasesConnection(t *testing.T) {
	released := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		writeSSE(w, textChunk("one"), textChunk("two"))
		<-r.Context().Done()
		close(released)
	}))
	defer srv.Close()

	c := openAIClient(t, srv)
	var got []string
	for frag, err := range c.Stream(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}) {
		require.NoError(t, err)
		got = append(got, frag.Text)
		break
	}
	assert.Equal(t, []string{"one"}, got)

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("connection was not released after the consumer stopped")
	}
}

func TestStreamContextCanceled(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, nil, textChunk("never")))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var gotErr error
	for _, err := range openAIClient(t, srv).Stream(ctx, Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}}) {
		if err != nil {
			gotErr = err
			break
		}
	}
	require.Error(t, gotErr)
	assert.True(t, errors.Is(gotErr, context.Canceled))
	var pe *ProviderError
	assert.False(t, errors.As(gotErr, &pe))
}

func TestStreamNoNetworkUntilIterated(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		sseHandler(t, nil, textChunk("x"))(w, r)
	}))
	defer srv.Close()

	seq := openAIClient(t, srv).Stream(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	assert.Zero(t, hits.Load())
	for range seq {
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestAzureRequestShape(t *testing.T) {
	type seen struct {
		path, version, key string
	}
	got := make(chan seen, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got <- seen{
			path:    r.URL.Path,
			version: r.URL.Query().Get("api-version"),
			key:     r.Header.Get("Api-Key"),
		}
		w.Header().Set("Content-Type", "text/event-stream")
		writeSSE(w, textChunk("ok"), "[DONE]")
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.UseAzure = true
	cfg.AzureAPIKey = "az-key"
	cfg.AzureEndpoint = srv.URL
	cfg.AzureDeployment = "dep-1"
	c, err := New(&cfg, WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	frags, err := collect(t, c, Request{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	require.NoError(t, err)
	require.Len(t, frags, 1)
	assert.Equal(t, "ok", frags[0].Text)

	s := <-got
	assert.True(t, strings.HasSuffix(s.path, "/deployments/dep-1/chat/completions"), s.path)
	assert.Equal(t, config.DefaultAzureAPIVersion, s.version)
	assert.Equal(t, "az-key", s.key)
}

func TestWrapError(t *testing.T) {
	assert.Nil(t, wrapError(nil))
	assert.Equal(t, context.Canceled, wrapError(context.Canceled))

	pe := malformed("bad %s", "chunk")
	assert.Same(t, pe, wrapError(pe))
	assert.Equal(t, "provider error: malformed response: bad chunk", pe.Error())

	wrapped := wrapError(errors.New("dial tcp: connection refused"))
	var got *ProviderError
	require.True(t, errors.As(wrapped, &got))
	assert.Zero(t, got.Status)
	assert.Contains(t, got.Error(), "connection refused")
}
