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
	defaultOllamaEndpoint   = "http://localhost:11434"
	defaultOllamaModel      = "llama3.2:1b"
	defaultOllamaEmbedModel = "nomic-embed-text"
)

// ollamaClient talks to a local Ollama server.
type ollamaClient struct {
	httpClient *http.Client
	endpoint   string
	model      string
	embedModel string
}

func newOllamaClient(cfg Config) (*ollamaClient, error) {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	if endpoint == "" {
		endpoint = defaultOllamaEndpoint
	}

	model := cfg.Model
	if model == "" {
		model = defaultOllamaModel
	}

	embedModel := cfg.EmbedModel
	if embedModel == "" {
		embedModel = defaultOllamaEmbedModel
	}

	return &ollamaClient{
		endpoint:   endpoint,
		model:      model,
		embedModel: embedModel,
		httpClient: newHTTPClient(cfg.Timeout),
	}, nil
}

type ollamaGenerateRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float64 `json:"temperature"`
	Stream      bool    `json:"stream"`
}

type ollamaGenerateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaEmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaEmbedResponse struct {
	Embedding []float64 `json:"embedding"`
}

// Generate sends a non-streaming completion request to /api/generate.
func (c *ollamaClient) Generate(ctx context.Context, req Request) (Response, error) {
	var out ollamaGenerateResponse
	err := c.post(ctx, "/api/generate", ollamaGenerateRequest{
		Model:       c.model,
		Prompt:      req.Prompt,
		Temperature: req.Temperature,
		Stream:      false,
	}, &out)
	if err != nil {
		return Response{}, err
	}

	model := out.Model
	if model == "" {
		model = c.model
	}
	return Response{Text: out.Response, Model: model}, nil
}

// Embed requests an embedding from /api/embeddings.
func (c *ollamaClient) Embed(ctx context.Context, text string) ([]float64, error) {
	var out ollamaEmbedResponse
	if err := c.post(ctx, "/api/embeddings", ollamaEmbedRequest{Model: c.embedModel, Prompt: text}, &out); err != nil {
		return nil, err
	}
	if len(out.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding")
	}
	return out.Embedding, nil
}

func (c *ollamaClient) post(ctx context.Context, path string, in, out any) error {
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(fmt.Errorf("ollama request failed: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError("ollama", resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
