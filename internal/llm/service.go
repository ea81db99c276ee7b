package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

// Service wraps a provider with caching, rate limiting and retry. It
// implements both Client and Embedder.
type Service struct {
	client      Client
	embedder    Embedder
	cache       *responseCache
	rateLimiter *rateLimiter
	logger      *slog.Logger
	model       string
	retryOpts   common.RetryOptions
}

// NewService creates the configured provider and wraps it.
func NewService(cfg Config, logger *slog.Logger) (*Service, error) {
	p, err := newProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return Wrap(p, cfg, logger), nil
}

// Wrap builds a Service around an existing client. If client also implements
// Embedder, Embed is routed to it.
func Wrap(client Client, cfg Config, logger *slog.Logger) *Service {
	retryOpts := common.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts <= 0 {
		retryOpts.MaxAttempts = 1
	}
	if retryOpts.InitialDelay <= 0 {
		retryOpts.InitialDelay = time.Second
	}

	s := &Service{
		client:      client,
		cache:       newResponseCache(cfg.CacheTTL),
		rateLimiter: newRateLimiter(cfg.RateLimit),
		logger:      common.OrDefault(logger),
		model:       cfg.Model,
		retryOpts:   retryOpts,
	}
	if e, ok := client.(Embedder); ok {
		s.embedder = e
	}
	return s
}

// Generate returns a completion for req, trimmed of surrounding whitespace.
func (s *Service) Generate(ctx context.Context, req Request) (Response, error) {
	key := cacheKey(s.model, req)
	if s.cache != nil {
		if resp, ok := s.cache.get(key); ok {
			s.logger.Debug("cache hit for prompt", "prompt_length", len(req.Prompt))
			return resp, nil
		}
	}

	var resp Response
	start := time.Now()
	err := common.WithRetry(ctx, func() error {
		if err := s.acquire(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		var genErr error
		resp, genErr = s.client.Generate(ctx, req)
		return genErr
	}, s.retryOpts)
	if err != nil {
		return Response{}, fmt.Errorf("generation failed: %w", err)
	}

	resp.Text = strings.TrimSpace(resp.Text)
	s.logger.Debug("LLM generation complete",
		"model", resp.Model,
		"temperature", req.Temperature,
		"duration", time.Since(start),
		"response_length", len(resp.Text))

	if s.cache != nil {
		s.cache.set(key, resp)
	}
	return resp, nil
}

// Embed returns the provider's embedding for text.
func (s *Service) Embed(ctx context.Context, text string) ([]float64, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: provider does not support embeddings", common.ErrInvalidConfig)
	}

	var vec []float64
	err := common.WithRetry(ctx, func() error {
		if err := s.acquire(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		var embedErr error
		vec, embedErr = s.embedder.Embed(ctx, text)
		return embedErr
	}, s.retryOpts)
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	return vec, nil
}

func (s *Service) acquire(ctx context.Context) error {
	if s.rateLimiter == nil {
		return nil
	}
	return s.rateLimiter.wait(ctx)
}

// Close releases background resources.
func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Close()
	}
}
