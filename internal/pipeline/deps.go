// Package pipeline runs the fixed planning sequence: acquire the dataset,
// detect outliers, summarize, recommend, and log the session.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Veraticus/autonomous-analyst/internal/dataset"
)

// Summarizer produces the two natural-language reports.
type Summarizer interface {
	SummarizeOutliers(ctx context.Context, ds *dataset.Dataset) (string, error)
	DescribeDataset(ctx context.Context, ds *dataset.Dataset) (string, error)
}

// Recommender turns both reports into next-step advice.
type Recommender interface {
	Recommend(ctx context.Context, outlierSummary, statsSummary string) (string, error)
}

// SessionLogger persists a snapshot of the analysed dataset.
type SessionLogger interface {
	Log(ctx context.Context, ds *dataset.Dataset) (string, error)
}

// Generator produces a fresh synthetic dataset.
type Generator interface {
	Generate(rows int) (*dataset.Dataset, error)
}

// Deps contains the collaborators the pipeline calls.
type Deps struct {
	Summarizer  Summarizer
	Recommender Recommender
	Sessions    SessionLogger
	// NewGenerator is called once per run that finds no dataset on disk.
	NewGenerator func() Generator
	Logger       *slog.Logger
}

// Validate ensures all required dependencies are provided.
func (d *Deps) Validate() error {
	if d.Summarizer == nil {
		return fmt.Errorf("summarizer dependency is required")
	}
	if d.Recommender == nil {
		return fmt.Errorf("recommender dependency is required")
	}
	if d.Sessions == nil {
		return fmt.Errorf("session logger dependency is required")
	}
	if d.NewGenerator == nil {
		return fmt.Errorf("generator dependency is required")
	}
	return nil
}
