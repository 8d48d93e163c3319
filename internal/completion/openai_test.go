package completion

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youmna-rabie/chat-relay/internal/types"
)

func chatCompletionBody(content string) map[string]any {
	choices := []any{}
	if content != "-" {
		choices = append(choices, map[string]any{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		})
	}
	return map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "gpt-4o-mini",
		"choices": choices,
	}
}

func writeJSONBody(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testOptions(maxWait time.Duration) Options {
	return Options{
		Budget:     Budget{MaxWait: maxWait, PollInterval: 5 * time.Millisecond},
		EmptyReply: "(no response)",
		Logger:     slog.Default(),
	}
}

func TestOpenAIChatClient_Completes(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSONBody(w, http.StatusOK, chatCompletionBody("Hi there!"))
	}))
	defer srv.Close()

	opts := testOptions(time.Second)
	opts.Instructions = "Be brief."
	client := NewOpenAIChatClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, opts)

	out := client.Complete(context.Background(), "Hello")

	assert.Equal(t, types.Completed("Hi there!"), out)
	assert.Equal(t, defaultOpenAIModel, got["model"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "user", msgs[1].(map[string]any)["role"])
}

func TestOpenAIChatClient_NoChoicesUsesPlaceholder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSONBody(w, http.StatusOK, chatCompletionBody("-"))
	}))
	defer srv.Close()

	client := NewOpenAIChatClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, testOptions(time.Second))

	out := client.Complete(context.Background(), "Hello")

	assert.Equal(t, types.Completed("(no response)"), out)
}

func TestOpenAIChatClient_ProviderErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeJSONBody(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]any{"message": "upstream exploded", "type": "server_error"},
		})
	}))
	defer srv.Close()

	client := NewOpenAIChatClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, testOptions(time.Second))

	out := client.Complete(context.Background(), "Hello")

	require.Equal(t, types.OutcomeProviderError, out.Kind)
	assert.NotEmpty(t, out.Detail)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIChatClient_TimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		writeJSONBody(w, http.StatusOK, chatCompletionBody("too late"))
	}))
	defer srv.Close()

	client := NewOpenAIChatClient(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, testOptions(50*time.Millisecond))

	out := client.Complete(context.Background(), "Hello")

	assert.Equal(t, types.OutcomeTimedOut, out.Kind)
}

// assistantsServer fakes the threads/runs endpoints. The run reports
// in_progress for pendingPolls polls and then finalStatus.
func assistantsServer(t *testing.T, pendingPolls int32, finalStatus string, reply string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var polls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("POST /threads/runs", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "asst_1", body["assistant_id"])
		writeJSONBody(w, http.StatusOK, map[string]any{
			"id": "run_1", "object": "thread.run", "thread_id": "thread_1",
			"assistant_id": "asst_1", "status": "queued",
		})
	})
	mux.HandleFunc("GET /threads/thread_1/runs/run_1", func(w http.ResponseWriter, r *http.Request) {
		status := "in_progress"
		run := map[string]any{"id": "run_1", "object": "thread.run", "thread_id": "thread_1"}
		if polls.Add(1) > pendingPolls {
			status = finalStatus
			if status == "failed" {
				run["last_error"] = map[string]any{"code": "server_error", "message": "model overloaded"}
			}
		}
		run["status"] = status
		writeJSONBody(w, http.StatusOK, run)
	})
	mux.HandleFunc("GET /threads/thread_1/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "run_1", r.URL.Query().Get("run_id"))
		content := []any{}
		if reply != "" {
			content = append(content, map[string]any{
				"type": "text",
				"text": map[string]any{"value": reply, "annotations": []any{}},
			})
		}
		writeJSONBody(w, http.StatusOK, map[string]any{
			"object": "list",
			"data": []any{map[string]any{
				"id": "msg_1", "object": "thread.message", "thread_id": "thread_1",
				"role": "assistant", "run_id": "run_1", "content": content,
			}},
			"has_more": false,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &polls
}

func TestAssistantsAPI_PollsUntilCompleted(t *testing.T) {
	srv, polls := assistantsServer(t, 2, "completed", "Hi there!")

	api := NewAssistantsAPI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, "asst_1")
	client := NewPollingClient(api, Budget{MaxWait: 2 * time.Second, PollInterval: 10 * time.Millisecond}, "(no response)", slog.Default())

	out := client.Complete(context.Background(), "Hello")

	assert.Equal(t, types.Completed("Hi there!"), out)
	assert.Equal(t, int32(3), polls.Load())
}

func TestAssistantsAPI_FailedRun(t *testing.T) {
	srv, _ := assistantsServer(t, 0, "failed", "")

	api := NewAssistantsAPI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, "asst_1")
	client := NewPollingClient(api, Budget{MaxWait: 2 * time.Second, PollInterval: 10 * time.Millisecond}, "", slog.Default())

	out := client.Complete(context.Background(), "Hello")

	require.Equal(t, types.OutcomeProviderError, out.Kind)
	assert.Contains(t, out.Detail, "failed")
	assert.Contains(t, out.Detail, "model overloaded")
}

func TestAssistantsAPI_EmptyReply(t *testing.T) {
	srv, _ := assistantsServer(t, 0, "completed", "")

	api := NewAssistantsAPI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, "asst_1")

	text, err := api.RunReply(context.Background(), RunHandle{ThreadID: "thread_1", RunID: "run_1"})

	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestAssistantsAPI_StatusMapping(t *testing.T) {
	tests := []struct {
		status string
		want   RunState
	}{
		{"queued", RunPending},
		{"in_progress", RunPending},
		{"completed", RunSucceeded},
		{"requires_action", RunFailed},
		{"cancelled", RunFailed},
		{"expired", RunFailed},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSONBody(w, http.StatusOK, map[string]any{
					"id": "run_1", "object": "thread.run", "thread_id": "thread_1", "status": tt.status,
				})
			}))
			defer srv.Close()

			api := NewAssistantsAPI(OpenAIConfig{APIKey: "sk-test", BaseURL: srv.URL + "/"}, "asst_1")
			st, err := api.RunStatus(context.Background(), RunHandle{ThreadID: "thread_1", RunID: "run_1"})

			require.NoError(t, err)
			assert.Equal(t, tt.want, st.State)
			if tt.want == RunFailed {
				assert.Contains(t, st.Detail, tt.status)
			}
		})
	}
}
