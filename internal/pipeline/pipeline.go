package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/dataset"
	"github.com/Veraticus/autonomous-analyst/internal/outlier"
)

// Config holds the data-side settings of a run.
type Config struct {
	DataPath  string
	Features  []string
	Rows      int
	Threshold float64
}

// Result is everything a run produced. On failure it holds whatever was
// computed before the failing stage.
type Result struct {
	Detection      *outlier.Result
	Schema         dataset.Schema
	LogErr         error
	OutlierSummary string
	StatsSummary   string
	Recommendation string
	SessionID      string
	Transitions    []Transition
	Stage          Stage
	Generated      bool
}

// Format renders the three reports as one message.
func (r *Result) Format() string {
	return fmt.Sprintf("📊 Outlier Summary:\n%s\n\n📈 Dataset Overview:\n%s\n\n🤖 Recommendation:\n%s",
		r.OutlierSummary, r.StatsSummary, r.Recommendation)
}

// Pipeline runs the planning sequence.
type Pipeline struct {
	deps     Deps
	logger   *slog.Logger
	observer Observer
	cfg      Config
}

// New creates a pipeline with the provided dependencies.
func New(deps Deps, cfg Config) (*Pipeline, error) {
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dependencies: %w", err)
	}
	if cfg.DataPath == "" {
		return nil, fmt.Errorf("%w: data path is required", common.ErrMissingConfig)
	}
	if cfg.Rows <= 0 {
		cfg.Rows = dataset.DefaultRows
	}
	if len(cfg.Features) == 0 {
		cfg.Features = outlier.DefaultFeatures
	}
	return &Pipeline{
		deps:   deps,
		cfg:    cfg,
		logger: common.OrDefault(deps.Logger),
	}, nil
}

// Observe registers a callback invoked on entry to every stage.
func (p *Pipeline) Observe(o Observer) {
	p.observer = o
}

// Run executes the stages in order. A failure in Acquire, Detect, Summarize
// or Recommend stops the run at StageFailed and is returned along with the
// partial result. A Log failure is recorded in Result.LogErr and does not
// fail the run.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	res := &Result{Stage: StageAcquire}
	p.enter(StageAcquire)

	ds, generated, err := p.acquire()
	if err != nil {
		return p.fail(res, fmt.Errorf("failed to acquire dataset: %w", err))
	}
	res.Generated = generated

	p.advance(res, StageDetect, nil)
	if err := ds.Schema().RequireNumeric(p.cfg.Features...); err != nil {
		return p.fail(res, fmt.Errorf("failed to detect outliers: %w", err))
	}
	det, err := outlier.Detect(ds, p.cfg.Features, p.cfg.Threshold)
	if err != nil {
		return p.fail(res, fmt.Errorf("failed to detect outliers: %w", err))
	}
	if err := dataset.Save(p.cfg.DataPath, ds); err != nil {
		return p.fail(res, fmt.Errorf("failed to save analysed dataset: %w", err))
	}
	res.Detection = det
	res.Schema = ds.Schema()
	p.logger.Info("Outlier detection complete",
		"inliers", det.Inliers,
		"outliers", det.Outliers,
		"pseudo_inverse", det.Pseudo,
		"schema", res.Schema.String())

	p.advance(res, StageSummarize, nil)
	res.OutlierSummary, err = p.deps.Summarizer.SummarizeOutliers(ctx, ds)
	if err != nil {
		return p.fail(res, fmt.Errorf("failed to summarize outliers: %w", err))
	}
	res.StatsSummary, err = p.deps.Summarizer.DescribeDataset(ctx, ds)
	if err != nil {
		return p.fail(res, fmt.Errorf("failed to describe dataset: %w", err))
	}

	p.advance(res, StageRecommend, nil)
	res.Recommendation, err = p.deps.Recommender.Recommend(ctx, res.OutlierSummary, res.StatsSummary)
	if err != nil {
		return p.fail(res, fmt.Errorf("failed to recommend: %w", err))
	}

	p.advance(res, StageLog, nil)
	res.SessionID, res.LogErr = p.deps.Sessions.Log(ctx, ds)
	if res.LogErr != nil {
		p.logger.Warn("Failed to log session, keeping recommendation", "error", res.LogErr)
	}

	p.advance(res, StageDone, res.LogErr)
	return res, nil
}

// acquire loads the dataset, generating and saving one if none exists.
func (p *Pipeline) acquire() (*dataset.Dataset, bool, error) {
	ds, err := dataset.Load(p.cfg.DataPath)
	if err == nil {
		return ds, false, nil
	}
	if !errors.Is(err, common.ErrNoDataset) {
		return nil, false, err
	}

	p.logger.Info("No dataset found, generating", "path", p.cfg.DataPath, "rows", p.cfg.Rows)
	ds, err = p.deps.NewGenerator().Generate(p.cfg.Rows)
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate dataset: %w", err)
	}
	if err := dataset.Save(p.cfg.DataPath, ds); err != nil {
		return nil, false, fmt.Errorf("failed to save generated dataset: %w", err)
	}
	return ds, true, nil
}

func (p *Pipeline) advance(res *Result, to Stage, err error) {
	res.Transitions = append(res.Transitions, Transition{From: res.Stage, To: to, Err: err})
	res.Stage = to
	p.enter(to)
}

func (p *Pipeline) fail(res *Result, err error) (*Result, error) {
	p.logger.Error("Pipeline failed", "stage", res.Stage.String(), "error", err)
	p.advance(res, StageFailed, err)
	return res, err
}

func (p *Pipeline) enter(stage Stage) {
	p.logger.Debug("Entering stage", "stage", stage.String())
	if p.observer != nil {
		p.observer(stage)
	}
}
