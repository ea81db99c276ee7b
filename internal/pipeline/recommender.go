package pipeline

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"text/template"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/llm"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultPlanTemperature is the sampling temperature for recommendations.
const DefaultPlanTemperature = 0.3

// LLMRecommender asks a language model for next steps.
type LLMRecommender struct {
	client      llm.Client
	tmpl        *template.Template
	temperature float64
}

// NewRecommender builds a recommender.
func NewRecommender(client llm.Client, temperature float64) (*LLMRecommender, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: LLM client is required", common.ErrMissingConfig)
	}

	tmpl, err := template.ParseFS(templateFS, "templates/recommend.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse recommendation template: %w", err)
	}
	return &LLMRecommender{client: client, tmpl: tmpl, temperature: temperature}, nil
}

// Prompt renders the planner prompt for the two reports.
func (r *LLMRecommender) Prompt(outlierSummary, statsSummary string) (string, error) {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, struct {
		OutlierSummary string
		StatsSummary   string
	}{outlierSummary, statsSummary})
	if err != nil {
		return "", fmt.Errorf("failed to render recommendation prompt: %w", err)
	}
	return buf.String(), nil
}

// Recommend returns the model's recommendation.
func (r *LLMRecommender) Recommend(ctx context.Context, outlierSummary, statsSummary string) (string, error) {
	prompt, err := r.Prompt(outlierSummary, statsSummary)
	if err != nil {
		return "", err
	}

	resp, err := r.client.Generate(ctx, llm.Request{Prompt: prompt, Temperature: r.temperature})
	if err != nil {
		return "", fmt.Errorf("failed to generate recommendation: %w", err)
	}
	return resp.Text, nil
}
