package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/autonomous-analyst/internal/dataset"
	"github.com/Veraticus/autonomous-analyst/internal/outlier"
	"github.com/Veraticus/autonomous-analyst/internal/pipeline"
	"github.com/Veraticus/autonomous-analyst/internal/plot"
)

// Tool names.
const (
	GenerateData        = "generate_data"
	AnalyzeOutliers     = "analyze_outliers"
	PlotResults         = "plot_results"
	SummarizeResults    = "summarize_results"
	SummarizeDataStats  = "summarize_data_stats"
	LogResults          = "log_results_to_vector_store"
	SearchLogs          = "search_logs"
	AutonomousPlan      = "autonomous_plan"
	defaultSearchQuery  = "outliers"
	defaultSearchResult = 3
)

// Summarizer produces LLM reports about a dataset.
type Summarizer = pipeline.Summarizer

// Sessions logs and searches analysis sessions.
type Sessions interface {
	Log(ctx context.Context, ds *dataset.Dataset) (string, error)
	Search(ctx context.Context, query string, n int) ([]string, error)
}

// Planner runs the full planning pipeline.
type Planner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// AnalystConfig holds the file locations and defaults the tools use.
type AnalystConfig struct {
	DataPath  string
	PlotPath  string
	Rows      int
	Threshold float64
}

// Analyst implements the analysis tools over a dataset file.
type Analyst struct {
	summarizer   Summarizer
	sessions     Sessions
	planner      Planner
	newGenerator func() *dataset.Generator
	cfg          AnalystConfig
}

// NewAnalyst wires the tool implementations.
func NewAnalyst(cfg AnalystConfig, summarizer Summarizer, sessions Sessions, planner Planner) *Analyst {
	if cfg.Rows <= 0 {
		cfg.Rows = dataset.DefaultRows
	}
	if cfg.PlotPath == "" {
		cfg.PlotPath = plot.DefaultPath
	}
	return &Analyst{
		cfg:          cfg,
		summarizer:   summarizer,
		sessions:     sessions,
		planner:      planner,
		newGenerator: dataset.NewGenerator,
	}
}

// Tools returns the tool definitions.
func (a *Analyst) Tools() []Tool {
	featureParams := []Param{
		{Name: "x_col", Type: TypeString, Default: dataset.Feature1Column, Description: "Numeric column for the first axis."},
		{Name: "y_col", Type: TypeString, Default: dataset.Feature2Column, Description: "Numeric column for the second axis."},
	}

	return []Tool{
		{
			Name:        GenerateData,
			Description: "Generate synthetic data and save to disk.",
			Params: []Param{
				{Name: "rows", Type: TypeInteger, Default: a.cfg.Rows, Description: "Baseline rows to generate before the injected outliers."},
			},
			Handler: a.generateData,
		},
		{
			Name:        AnalyzeOutliers,
			Description: "Detect outliers using the Mahalanobis distance.",
			Params: append(append([]Param(nil), featureParams...), Param{
				Name: "threshold", Type: TypeNumber, Default: a.cfg.Threshold, Description: "Distance above which a row is an outlier.",
			}),
			Handler: a.analyzeOutliers,
		},
		{
			Name:        PlotResults,
			Description: "Plot inliers and outliers and save plot.",
			Params:      featureParams,
			Handler:     a.plotResults,
		},
		{
			Name:        SummarizeResults,
			Description: "Summarize outlier results using LLM.",
			Handler:     a.summarizeResults,
			UsesLLM:     true,
		},
		{
			Name:        SummarizeDataStats,
			Description: "Summarize descriptive stats using LLM.",
			Handler:     a.summarizeDataStats,
			UsesLLM:     true,
		},
		{
			Name:        LogResults,
			Description: "Store summary to vector store.",
			Handler:     a.logResults,
		},
		{
			Name:        SearchLogs,
			Description: "Search past session logs for a topic.",
			Params: []Param{
				{Name: "query", Type: TypeString, Default: defaultSearchQuery, Description: "Free-text topic to search for."},
				{Name: "n_results", Type: TypeInteger, Default: defaultSearchResult, Description: "Maximum sessions to return."},
			},
			Handler: a.searchLogs,
		},
		{
			Name:        AutonomousPlan,
			Description: "Agentic recommendation based on full dataset analysis.",
			Handler:     a.autonomousPlan,
			UsesLLM:     true,
		},
	}
}

// Register adds every tool to r.
func (a *Analyst) Register(r *Registry) error {
	for _, tool := range a.Tools() {
		if err := r.Register(tool); err != nil {
			return err
		}
	}
	return nil
}

func (a *Analyst) generateData(_ context.Context, args Args) (Result, error) {
	ds, err := a.newGenerator().Generate(args.Int("rows"))
	if err != nil {
		return Result{}, err
	}
	if err := dataset.Save(a.cfg.DataPath, ds); err != nil {
		return Result{}, err
	}
	return Result{Text: fmt.Sprintf("%d rows of synthetic data generated.", ds.Len())}, nil
}

func (a *Analyst) analyzeOutliers(_ context.Context, args Args) (Result, error) {
	ds, err := dataset.Load(a.cfg.DataPath)
	if err != nil {
		return Result{}, err
	}

	xCol, yCol := args.String("x_col"), args.String("y_col")
	if err := ds.Schema().RequireNumeric(xCol, yCol); err != nil {
		return Result{}, err
	}
	res, err := outlier.Detect(ds, []string{xCol, yCol}, args.Float("threshold"))
	if err != nil {
		return Result{}, err
	}
	if err := dataset.Save(a.cfg.DataPath, ds); err != nil {
		return Result{}, err
	}
	return Result{Text: fmt.Sprintf("Outlier analysis complete. Columns: %s, %s. Inliers: %d, Outliers: %d.",
		xCol, yCol, res.Inliers, res.Outliers)}, nil
}

func (a *Analyst) plotResults(_ context.Context, args Args) (Result, error) {
	ds, err := dataset.Load(a.cfg.DataPath)
	if err != nil {
		return Result{}, err
	}
	path, err := plot.Scatter(ds, args.String("x_col"), args.String("y_col"), a.cfg.PlotPath)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: "Plot saved to " + path, Path: path}, nil
}

func (a *Analyst) summarizeResults(ctx context.Context, _ Args) (Result, error) {
	ds, err := dataset.Load(a.cfg.DataPath)
	if err != nil {
		return Result{}, err
	}
	text, err := a.summarizer.SummarizeOutliers(ctx, ds)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}

func (a *Analyst) summarizeDataStats(ctx context.Context, _ Args) (Result, error) {
	ds, err := dataset.Load(a.cfg.DataPath)
	if err != nil {
		return Result{}, err
	}
	text, err := a.summarizer.DescribeDataset(ctx, ds)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: text}, nil
}

func (a *Analyst) logResults(ctx context.Context, _ Args) (Result, error) {
	ds, err := dataset.Load(a.cfg.DataPath)
	if err != nil {
		return Result{}, err
	}
	id, err := a.sessions.Log(ctx, ds)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: "Session logged with ID: " + id}, nil
}

func (a *Analyst) searchLogs(ctx context.Context, args Args) (Result, error) {
	docs, err := a.sessions.Search(ctx, args.String("query"), args.Int("n_results"))
	if err != nil {
		return Result{}, err
	}
	return Result{Text: strings.Join(docs, "\n\n")}, nil
}

func (a *Analyst) autonomousPlan(ctx context.Context, _ Args) (Result, error) {
	res, err := a.planner.Run(ctx)
	if err != nil {
		return Result{}, err
	}
	return Result{Text: res.Format()}, nil
}
