package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOpenAIEndpoint   = "https://api.openai.com"
	defaultOpenAIModel      = "gpt-4o-mini"
	defaultOpenAIEmbedModel = "text-embedding-3-small"
	analystSystemPrompt     = "You are a careful data analyst. Answer in plain prose."
)

// openAIClient implements Client and Embedder for the OpenAI API.
type openAIClient struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	embedModel string
}

// newOpenAIClient creates a new OpenAI API client.
func newOpenAIClient(cfg Config) (*openAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultOpenAIEndpoint
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = defaultOpenAIEmbedModel
	}

	return &openAIClient{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		model:      model,
		embedModel: embedModel,
		httpClient: newHTTPClient(cfg.Timeout),
	}, nil
}

// openAIResponse represents the chat completions response structure.
type openAIResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
		Index        int    `json:"index"`
	} `json:"choices"`
}

type openAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Generate sends a chat completion request with the prompt as the user turn.
func (c *openAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	requestBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{
				"role":    "system",
				"content": analystSystemPrompt,
			},
			{
				"role":    "user",
				"content": req.Prompt,
			},
		},
		"temperature": req.Temperature,
	}

	var response openAIResponse
	if err := c.post(ctx, "/v1/chat/completions", requestBody, &response); err != nil {
		return Response{}, err
	}

	if len(response.Choices) == 0 {
		return Response{}, fmt.Errorf("no completion choices returned")
	}

	model := response.Model
	if model == "" {
		model = c.model
	}
	return Response{Text: response.Choices[0].Message.Content, Model: model}, nil
}

// Embed requests an embedding for text.
func (c *openAIClient) Embed(ctx context.Context, text string) ([]float64, error) {
	requestBody := map[string]any{
		"model": c.embedModel,
		"input": text,
	}

	var response openAIEmbeddingResponse
	if err := c.post(ctx, "/v1/embeddings", requestBody, &response); err != nil {
		return nil, err
	}

	if len(response.Data) == 0 || len(response.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return response.Data[0].Embedding, nil
}

func (c *openAIClient) post(ctx context.Context, path string, in, out any) error {
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(fmt.Errorf("request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError("OpenAI", resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
