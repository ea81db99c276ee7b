package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/autonomous-analyst/internal/config"
	"github.com/Veraticus/autonomous-analyst/internal/dataset"
	"github.com/Veraticus/autonomous-analyst/internal/llm"
	"github.com/Veraticus/autonomous-analyst/internal/pipeline"
	"github.com/Veraticus/autonomous-analyst/internal/session"
	"github.com/Veraticus/autonomous-analyst/internal/summary"
	"github.com/Veraticus/autonomous-analyst/internal/tools"
	"github.com/Veraticus/autonomous-analyst/internal/vectorstore"
)

// app holds the wired components shared by the commands.
type app struct {
	cfg      *config.Config
	llm      *llm.Service
	store    *vectorstore.Store
	pipeline *pipeline.Pipeline
	registry *tools.Registry
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger := slog.Default()

	llmSvc, err := llm.NewService(llmConfig(cfg.LLM), logger)
	if err != nil {
		return nil, err
	}

	var embedder vectorstore.Embedder = vectorstore.NewHashEmbedder(vectorstore.DefaultDimensions)
	if cfg.Store.Embedder == "llm" {
		embedder = llmSvc
	}

	store, err := vectorstore.Open(ctx, cfg.Store.Path, vectorstore.Options{
		Embedder:   embedder,
		Collection: cfg.Store.Collection,
		Logger:     logger,
	})
	if err != nil {
		llmSvc.Close()
		return nil, fmt.Errorf("failed to open session store: %w", err)
	}

	a := &app{cfg: cfg, llm: llmSvc, store: store}
	if err := a.wire(logger); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(logger *slog.Logger) error {
	summarizer, err := summary.NewSummarizer(a.llm, a.cfg.LLM.SummaryTemperature, logger)
	if err != nil {
		return err
	}
	recommender, err := pipeline.NewRecommender(a.llm, a.cfg.LLM.PlanTemperature)
	if err != nil {
		return err
	}
	sessions := session.NewLogger(a.store, a.cfg.Data.Source, logger)

	a.pipeline, err = pipeline.New(pipeline.Deps{
		Summarizer:   summarizer,
		Recommender:  recommender,
		Sessions:     sessions,
		NewGenerator: func() pipeline.Generator { return dataset.NewGenerator() },
		Logger:       logger,
	}, pipeline.Config{
		DataPath:  a.cfg.Data.Path,
		Rows:      a.cfg.Data.Rows,
		Threshold: a.cfg.Detect.Threshold,
	})
	if err != nil {
		return err
	}

	analyst := tools.NewAnalyst(tools.AnalystConfig{
		DataPath:  a.cfg.Data.Path,
		PlotPath:  a.cfg.Plot.Path,
		Rows:      a.cfg.Data.Rows,
		Threshold: a.cfg.Detect.Threshold,
	}, summarizer, sessions, a.pipeline)

	a.registry = tools.NewRegistry(logger)
	return analyst.Register(a.registry)
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		slog.Warn("Failed to close session store", "error", err)
	}
	a.llm.Close()
}

func llmConfig(c config.LLMConfig) llm.Config {
	return llm.Config{
		Provider:   c.Provider,
		Endpoint:   c.Endpoint,
		APIKey:     c.APIKey,
		Model:      c.Model,
		EmbedModel: c.EmbedModel,
		Timeout:    c.Timeout,
		MaxRetries: c.MaxRetries,
		RetryDelay: c.RetryDelay,
		CacheTTL:   c.CacheTTL,
		RateLimit:  c.RateLimit,
	}
}

// withApp loads configuration, wires the app and runs fn.
func withApp(ctx context.Context, fn func(*app) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(a)
}
