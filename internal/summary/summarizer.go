package summary

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"log/slog"
	"text/template"

	"gonum.org/v1/gonum/floats"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/dataset"
	"github.com/Veraticus/autonomous-analyst/internal/llm"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DefaultTemperature is used for both summaries.
const DefaultTemperature = 0.1

// Summarizer asks an LLM to interpret detection results and descriptive
// statistics.
type Summarizer struct {
	client      llm.Client
	logger      *slog.Logger
	templates   map[string]*template.Template
	temperature float64
}

// outlierPromptData feeds the outlier summary template.
type outlierPromptData struct {
	Inliers     int
	Outliers    int
	Total       int
	MaxDistance float64
}

// NewSummarizer loads the prompt templates.
func NewSummarizer(client llm.Client, temperature float64, logger *slog.Logger) (*Summarizer, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: LLM client is required", common.ErrMissingConfig)
	}

	funcMap := template.FuncMap{
		"percent": func(part, total int) string {
			if total == 0 {
				return "0.0%"
			}
			return fmt.Sprintf("%.1f%%", 100*float64(part)/float64(total))
		},
	}

	s := &Summarizer{
		client:      client,
		logger:      common.OrDefault(logger),
		templates:   make(map[string]*template.Template),
		temperature: temperature,
	}
	for _, name := range []string{"outlier_summary", "dataset_overview"} {
		filename := fmt.Sprintf("templates/%s.tmpl", name)
		tmpl, err := template.New(name + ".tmpl").Funcs(funcMap).ParseFS(templateFS, filename)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		s.templates[name] = tmpl
	}
	return s, nil
}

// SummarizeOutliers interprets the detection counts. The dataset must have
// been through detection.
func (s *Summarizer) SummarizeOutliers(ctx context.Context, ds *dataset.Dataset) (string, error) {
	prompt, err := s.OutlierPrompt(ds)
	if err != nil {
		return "", err
	}
	return s.generate(ctx, "outlier_summary", prompt)
}

// DescribeDataset interprets the descriptive statistics of ds.
func (s *Summarizer) DescribeDataset(ctx context.Context, ds *dataset.Dataset) (string, error) {
	prompt, err := s.OverviewPrompt(ds)
	if err != nil {
		return "", err
	}
	return s.generate(ctx, "dataset_overview", prompt)
}

// OutlierPrompt renders the outlier summary prompt.
func (s *Summarizer) OutlierPrompt(ds *dataset.Dataset) (string, error) {
	if !ds.Schema().Detected {
		return "", common.NewUserError(common.MsgOutliersMissing, common.ErrNotAnalyzed)
	}
	inliers, outliers, err := ds.LabelCounts()
	if err != nil {
		return "", err
	}

	data := outlierPromptData{
		Inliers:  inliers,
		Outliers: outliers,
		Total:    ds.Len(),
	}
	if distances, err := ds.Numeric(dataset.DistanceColumn); err == nil && len(distances) > 0 {
		data.MaxDistance = floats.Max(distances)
	}
	return s.render("outlier_summary", data)
}

// OverviewPrompt renders the descriptive statistics prompt.
func (s *Summarizer) OverviewPrompt(ds *dataset.Dataset) (string, error) {
	return s.render("dataset_overview", Describe(ds))
}

func (s *Summarizer) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := s.templates[name].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

func (s *Summarizer) generate(ctx context.Context, kind, prompt string) (string, error) {
	s.logger.Debug("requesting summary", "kind", kind, "prompt_length", len(prompt))

	resp, err := s.client.Generate(ctx, llm.Request{Prompt: prompt, Temperature: s.temperature})
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", kind, err)
	}
	return resp.Text, nil
}
