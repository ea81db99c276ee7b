package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

func TestOllamaGenerate(t *testing.T) {
	var got map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2:1b","response":"  The data looks clean.  ","done":true}`))
	}))
	defer server.Close()

	client, err := newOllamaClient(Config{Endpoint: server.URL + "/", Timeout: 5 * time.Second})
	require.NoError(t, err)

	resp, err := client.Generate(context.Background(), Request{Prompt: "describe", Temperature: 0.1})
	require.NoError(t, err)

	assert.Equal(t, "  The data looks clean.  ", resp.Text)
	assert.Equal(t, "llama3.2:1b", resp.Model)
	assert.Equal(t, map[string]any{
		"model":       "llama3.2:1b",
		"prompt":      "describe",
		"temperature": 0.1,
		"stream":      false,
	}, got)
}

func TestOllamaNon2xxIsError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "bad request", status: http.StatusBadRequest, retryable: false},
		{name: "not found", status: http.StatusNotFound, retryable: false},
		{name: "throttled", status: http.StatusTooManyRequests, retryable: true},
		{name: "server error", status: http.StatusInternalServerError, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte("model not loaded"))
			}))
			defer server.Close()

			client, err := newOllamaClient(Config{Endpoint: server.URL})
			require.NoError(t, err)

			_, err = client.Generate(context.Background(), Request{Prompt: "x"})
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrInference)
			assert.Contains(t, err.Error(), "model not loaded")
			assert.Equal(t, tt.retryable, common.IsRetryable(err))
		})
	}
}

func TestOllamaEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var body ollamaEmbedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "nomic-embed-text", body.Model)
		assert.Equal(t, "session text", body.Prompt)
		_, _ = w.Write([]byte(`{"embedding":[0.1,0.2,0.3]}`))
	}))
	defer server.Close()

	client, err := newOllamaClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	vec, err := client.Embed(context.Background(), "session text")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
}

func TestOllamaDefaults(t *testing.T) {
	client, err := newOllamaClient(Config{})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", client.endpoint)
	assert.Equal(t, "llama3.2:1b", client.model)
	assert.Equal(t, 120*time.Second, client.httpClient.Timeout)
}

func TestNewClientProviders(t *testing.T) {
	client, err := NewClient(Config{Provider: "Ollama"})
	require.NoError(t, err)
	assert.IsType(t, &ollamaClient{}, client)

	client, err = NewClient(Config{Provider: "openai", APIKey: "k"})
	require.NoError(t, err)
	assert.IsType(t, &openAIClient{}, client)

	_, err = NewClient(Config{Provider: "palm"})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}
