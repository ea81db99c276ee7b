package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/dataset"
	"github.com/Veraticus/autonomous-analyst/internal/outlier"
)

type mockSummarizer struct {
	mock.Mock
}

func (m *mockSummarizer) SummarizeOutliers(ctx context.Context, ds *dataset.Dataset) (string, error) {
	args := m.Called(ctx, ds)
	return args.String(0), args.Error(1)
}

func (m *mockSummarizer) DescribeDataset(ctx context.Context, ds *dataset.Dataset) (string, error) {
	args := m.Called(ctx, ds)
	return args.String(0), args.Error(1)
}

type mockRecommender struct {
	mock.Mock
}

func (m *mockRecommender) Recommend(ctx context.Context, outlierSummary, statsSummary string) (string, error) {
	args := m.Called(ctx, outlierSummary, statsSummary)
	return args.String(0), args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Log(ctx context.Context, ds *dataset.Dataset) (string, error) {
	args := m.Called(ctx, ds)
	return args.String(0), args.Error(1)
}

type fixture struct {
	summarizer  *mockSummarizer
	recommender *mockRecommender
	sessions    *mockSessions
	generated   int
	path        string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		summarizer:  new(mockSummarizer),
		recommender: new(mockRecommender),
		sessions:    new(mockSessions),
		path:        filepath.Join(t.TempDir(), "data", "generated_data.csv"),
	}
}

func (f *fixture) pipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(Deps{
		Summarizer:  f.summarizer,
		Recommender: f.recommender,
		Sessions:    f.sessions,
		NewGenerator: func() Generator {
			f.generated++
			return dataset.NewGeneratorWithSeed(42)
		},
	}, Config{DataPath: f.path, Rows: 3000, Threshold: outlier.DefaultThreshold})
	require.NoError(t, err)
	return p
}

func (f *fixture) happyPath() {
	f.summarizer.On("SummarizeOutliers", mock.Anything, mock.Anything).Return("20 outliers found.", nil)
	f.summarizer.On("DescribeDataset", mock.Anything, mock.Anything).Return("Features look normal.", nil)
	f.recommender.On("Recommend", mock.Anything, "20 outliers found.", "Features look normal.").Return("Investigate the cluster.", nil)
}

func stagesOf(ts []Transition) []Stage {
	out := make([]Stage, len(ts))
	for i, tr := range ts {
		out[i] = tr.To
	}
	return out
}

func TestRunGeneratesWhenMissing(t *testing.T) {
	f := newFixture(t)
	f.happyPath()
	f.sessions.On("Log", mock.Anything, mock.Anything).Return("session-1", nil)

	p := f.pipeline(t)
	var seen []Stage
	p.Observe(func(s Stage) { seen = append(seen, s) })

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Generated)
	assert.Equal(t, 1, f.generated)
	assert.Equal(t, StageDone, res.Stage)
	assert.Equal(t, "session-1", res.SessionID)
	require.NoError(t, res.LogErr)

	assert.Equal(t, []Stage{StageDetect, StageSummarize, StageRecommend, StageLog, StageDone}, stagesOf(res.Transitions))
	assert.Equal(t, []Stage{StageAcquire, StageDetect, StageSummarize, StageRecommend, StageLog, StageDone}, seen)

	require.NotNil(t, res.Detection)
	assert.Equal(t, 3020, res.Detection.Inliers+res.Detection.Outliers)
	assert.GreaterOrEqual(t, res.Detection.Outliers, dataset.InjectedRows)

	saved, err := dataset.Load(f.path)
	require.NoError(t, err)
	assert.True(t, saved.Detected())
	assert.Equal(t, saved.Schema(), res.Schema)
	assert.True(t, res.Schema.Detected)
	assert.True(t, res.Schema.Has(dataset.LabelColumn, dataset.KindCategorical))

	assert.Equal(t,
		"📊 Outlier Summary:\n20 outliers found.\n\n📈 Dataset Overview:\nFeatures look normal.\n\n🤖 Recommendation:\nInvestigate the cluster.",
		res.Format())

	f.summarizer.AssertExpectations(t)
	f.recommender.AssertExpectations(t)
	f.sessions.AssertExpectations(t)
}

func TestRunUsesExistingDataset(t *testing.T) {
	f := newFixture(t)
	f.happyPath()
	f.sessions.On("Log", mock.Anything, mock.Anything).Return("session-2", nil)

	ds, err := dataset.NewGeneratorWithSeed(9).Generate(500)
	require.NoError(t, err)
	require.NoError(t, dataset.Save(f.path, ds))

	res, err := f.pipeline(t).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Generated)
	assert.Zero(t, f.generated)
	assert.Equal(t, 520, res.Detection.Inliers+res.Detection.Outliers)
}

func TestRunKeepsRecommendationWhenLogFails(t *testing.T) {
	f := newFixture(t)
	f.happyPath()
	logErr := errors.New("store unavailable")
	f.sessions.On("Log", mock.Anything, mock.Anything).Return("", logErr)

	res, err := f.pipeline(t).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StageDone, res.Stage)
	assert.Equal(t, "Investigate the cluster.", res.Recommendation)
	assert.ErrorIs(t, res.LogErr, logErr)
	assert.Empty(t, res.SessionID)

	last := res.Transitions[len(res.Transitions)-1]
	assert.Equal(t, StageLog, last.From)
	assert.Equal(t, StageDone, last.To)
	assert.ErrorIs(t, last.Err, logErr)
	assert.Contains(t, res.Format(), "Investigate the cluster.")
}

func TestRunStopsWhenSummarizeFails(t *testing.T) {
	f := newFixture(t)
	inferenceErr := errors.New("connection refused")
	f.summarizer.On("SummarizeOutliers", mock.Anything, mock.Anything).Return("", inferenceErr)

	res, err := f.pipeline(t).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, inferenceErr)

	require.NotNil(t, res)
	assert.Equal(t, StageFailed, res.Stage)
	last := res.Transitions[len(res.Transitions)-1]
	assert.Equal(t, StageSummarize, last.From)
	assert.Equal(t, StageFailed, last.To)
	assert.ErrorIs(t, last.Err, inferenceErr)

	// Detection already ran and was persisted.
	assert.NotNil(t, res.Detection)
	f.recommender.AssertNotCalled(t, "Recommend", mock.Anything, mock.Anything, mock.Anything)
	f.sessions.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestRunStopsWhenRecommendFails(t *testing.T) {
	f := newFixture(t)
	f.summarizer.On("SummarizeOutliers", mock.Anything, mock.Anything).Return("a", nil)
	f.summarizer.On("DescribeDataset", mock.Anything, mock.Anything).Return("b", nil)
	f.recommender.On("Recommend", mock.Anything, "a", "b").Return("", errors.New("timeout"))

	res, err := f.pipeline(t).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageFailed, res.Stage)
	assert.Equal(t, "a", res.OutlierSummary)
	assert.Equal(t, "b", res.StatsSummary)
	f.sessions.AssertNotCalled(t, "Log", mock.Anything, mock.Anything)
}

func TestRunFailsOnUnreadableDataset(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(f.path), 0750))
	require.NoError(t, os.WriteFile(f.path, []byte("a,a\n1,2\n"), 0600))

	res, err := f.pipeline(t).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, StageFailed, res.Stage)
	assert.Equal(t, []Stage{StageFailed}, stagesOf(res.Transitions))
	assert.Equal(t, StageAcquire, res.Transitions[0].From)
	assert.Zero(t, f.generated)
}

func TestRunFailsOnMissingFeatures(t *testing.T) {
	f := newFixture(t)
	ds := dataset.New()
	require.NoError(t, ds.SetNumeric("x", []float64{1, 2, 3}))
	require.NoError(t, dataset.Save(f.path, ds))

	res, err := f.pipeline(t).Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrUnknownColumn)
	assert.Equal(t, StageFailed, res.Stage)
	assert.Equal(t, StageDetect, res.Transitions[len(res.Transitions)-1].From)
	assert.Nil(t, res.Detection)
}

func TestRunHonorsZeroThreshold(t *testing.T) {
	f := newFixture(t)
	f.happyPath()
	f.sessions.On("Log", mock.Anything, mock.Anything).Return("session-0", nil)

	p, err := New(Deps{
		Summarizer:   f.summarizer,
		Recommender:  f.recommender,
		Sessions:     f.sessions,
		NewGenerator: func() Generator { return dataset.NewGeneratorWithSeed(42) },
	}, Config{DataPath: f.path, Rows: 100, Threshold: 0})
	require.NoError(t, err)

	res, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.Detection.Threshold)
	assert.Zero(t, res.Detection.Inliers)
	assert.Equal(t, 120, res.Detection.Outliers)
}

func TestNewValidatesDeps(t *testing.T) {
	_, err := New(Deps{}, Config{DataPath: "x.csv"})
	require.Error(t, err)

	f := newFixture(t)
	_, err = New(Deps{
		Summarizer:   f.summarizer,
		Recommender:  f.recommender,
		Sessions:     f.sessions,
		NewGenerator: func() Generator { return dataset.NewGenerator() },
	}, Config{})
	require.Error(t, err)
}

func TestStageString(t *testing.T) {
	assert.Equal(t, "acquire", StageAcquire.String())
	assert.Equal(t, "failed", StageFailed.String())
	assert.Equal(t, "unknown", Stage(99).String())
	assert.True(t, StageDone.Terminal())
	assert.False(t, StageLog.Terminal())
	assert.Equal(t, 5, Steps)
}
