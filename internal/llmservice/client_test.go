package llmservice

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"document-processor/internal/config"
)

func chatServer(t *testing.T, status int, answer string, prompt *string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req struct {
			Messages []struct {
				Content json.RawMessage `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if prompt != nil && len(req.Messages) > 0 {
			*prompt = string(req.Messages[0].Content)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"boom"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": "chatcmpl-1",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": answer},
				"finish_reason": "stop",
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestSummarize(t *testing.T) {
	var prompt string
	srv := chatServer(t, http.StatusOK, "  Widgets and gadgets.\n", &prompt)

	c, err := New(&config.LLMConfig{Provider: "openai", BaseURL: srv.URL, Model: "test-model", APIKey: "Bearer secret"})
	require.NoError(t, err)

	got, err := c.Summarize(context.Background(), "https://acme.example")
	require.NoError(t, err)
	assert.Equal(t, "Widgets and gadgets.", got)
	assert.Contains(t, prompt, "What is https://acme.example's top products?")
}

func TestSummarize_Error(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, "", nil)

	c, err := New(&config.LLMConfig{Provider: "openai", BaseURL: srv.URL, Model: "test-model", APIKey: "secret"})
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), "acme")
	assert.Error(t, err)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(&config.LLMConfig{Provider: "carrier-pigeon"})
	assert.Error(t, err)
}
