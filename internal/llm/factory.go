package llm

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

// Provider names.
const (
	ProviderOllama = "ollama"
	ProviderOpenAI = "openai"
)

// Config holds configuration for an LLM provider and the Service around it.
type Config struct {
	Provider   string
	Endpoint   string
	APIKey     string
	Model      string
	EmbedModel string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
	CacheTTL   time.Duration
	RateLimit  int
}

// provider is implemented by every concrete client.
type provider interface {
	Client
	Embedder
}

// NewClient creates a raw provider client based on the configuration.
func NewClient(cfg Config) (Client, error) {
	return newProvider(cfg)
}

func newProvider(cfg Config) (provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case ProviderOllama, "":
		return newOllamaClient(cfg)
	case ProviderOpenAI:
		return newOpenAIClient(cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider: %s", common.ErrInvalidConfig, cfg.Provider)
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = 100
	transport.MaxIdleConnsPerHost = 10
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// transportError marks a failure to reach the provider as retryable.
func transportError(err error) error {
	return &common.RetryableError{Err: err, Retryable: true}
}

// statusError classifies a non-2xx response. Throttling and server errors are
// worth retrying; anything else is not.
func statusError(providerName string, status int, body []byte) error {
	err := fmt.Errorf("%w: %s API error (status %d): %s",
		common.ErrInference, providerName, status, strings.TrimSpace(string(body)))
	if status == http.StatusTooManyRequests {
		err = fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	}
	return &common.RetryableError{
		Err:       err,
		Retryable: status == http.StatusTooManyRequests || status >= http.StatusInternalServerError,
	}
}
