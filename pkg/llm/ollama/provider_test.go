package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ai-grammar-companion/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatSuccess(t *testing.T) {
	var gotReq ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		json.NewEncoder(w).Encode(ollamaChatResponse{
			Model:   gotReq.Model,
			Message: ollamaMessage{Role: "assistant", Content: "Revised: All good."},
			Done:    true,
		})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3", 5*time.Second)

	reply, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "You are a grammar checker."},
		{Role: "user", Content: "Check this text."},
	}, llm.WithTemperature(0.3))

	require.NoError(t, err)
	assert.Equal(t, "Revised: All good.", reply)

	assert.Equal(t, "llama3", gotReq.Model)
	assert.False(t, gotReq.Stream)
	assert.Equal(t, 0.3, gotReq.Temperature)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestChatMapsModelRoleToAssistant(t *testing.T) {
	var gotReq ollamaChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(ollamaChatResponse{
			Message: ollamaMessage{Role: "assistant", Content: "ok"},
		})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3", 5*time.Second)

	_, err := provider.Chat(context.Background(), []llm.Message{
		{Role: "model", Content: "earlier reply"},
	})

	require.NoError(t, err)
	require.Len(t, gotReq.Messages, 1)
	assert.Equal(t, "assistant", gotReq.Messages[0].Role)
}

func TestChatServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "missing-model", 5*time.Second)

	_, err := provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})

	require.Error(t, err)
	assert.Equal(t, llm.KindServiceError, llm.KindOf(err))

	var e *llm.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, http.StatusNotFound, e.Status)
}

func TestChatMalformedResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: "<html>proxy error</html>"},
		{name: "empty content", body: `{"message":{"role":"assistant","content":"  "}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			provider := NewOllamaProvider(server.URL, "llama3", 5*time.Second)

			_, err := provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})

			require.Error(t, err)
			assert.Equal(t, llm.KindMalformedResponse, llm.KindOf(err))
		})
	}
}

func TestChatTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "llama3", 50*time.Millisecond)

	start := time.Now()
	_, err := provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})

	require.Error(t, err)
	assert.Equal(t, llm.KindTimeout, llm.KindOf(err))
	assert.Less(t, time.Since(start), time.Second)
}

func TestChatUnreachable(t *testing.T) {
	// Grab a port that is guaranteed closed.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	provider := NewOllamaProvider(url, "llama3", time.Second)

	_, err := provider.Chat(context.Background(), []llm.Message{{Role: "user", Content: "hi"}})

	require.Error(t, err)
	assert.Equal(t, llm.KindUnreachable, llm.KindOf(err))
}

func TestUserMessageMentionsModelService(t *testing.T) {
	err := &llm.Error{Kind: llm.KindUnreachable}
	assert.Contains(t, llm.UserMessage(err), "model service")
}
