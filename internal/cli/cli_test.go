package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Veraticus/autonomous-analyst/internal/pipeline"
	"github.com/Veraticus/autonomous-analyst/internal/tools"
)

func TestRenderResult(t *testing.T) {
	tests := []struct {
		name   string
		res    tools.Result
		prefix string
	}{
		{name: "plain", res: tools.Result{Text: "120 rows of synthetic data generated."}},
		{name: "error", res: tools.Result{Text: "Error: boom", IsError: true}, prefix: ErrorIcon},
		{name: "file", res: tools.Result{Text: "Plot saved to static/plot.png", Path: "static/plot.png"}, prefix: SuccessIcon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := RenderResult(tt.res)
			assert.Contains(t, out, tt.res.Text)
			if tt.prefix != "" {
				assert.Contains(t, out, tt.prefix)
			}
		})
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, PrintResult(&buf, tools.Result{Text: "done"}))
	assert.Equal(t, "done\n", buf.String())
}

func TestRenderTools(t *testing.T) {
	out := RenderTools([]tools.Tool{
		{
			Name:        "generate_data",
			Description: "Generate synthetic data and save to disk.",
			Params:      []tools.Param{{Name: "rows", Type: tools.TypeInteger, Default: 3000}},
		},
		{Name: "summarize_results", Description: "Summarize outlier results using LLM.", UsesLLM: true},
	})

	assert.Contains(t, out, "generate_data")
	assert.Contains(t, out, "rows (integer, default 3000)")
	assert.Contains(t, out, "LLM")
	assert.Equal(t, 1, strings.Count(out, "LLM)"))
}

func TestStageProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewStageProgress(&buf)

	for _, stage := range []pipeline.Stage{
		pipeline.StageAcquire,
		pipeline.StageDetect,
		pipeline.StageSummarize,
		pipeline.StageRecommend,
		pipeline.StageLog,
		pipeline.StageDone,
	} {
		p.Observe(stage)
	}
	assert.False(t, p.Failed())

	failing := NewStageProgress(&bytes.Buffer{})
	failing.Observe(pipeline.StageAcquire)
	failing.Observe(pipeline.StageFailed)
	assert.True(t, failing.Failed())
}

func TestFormatHelpers(t *testing.T) {
	assert.Contains(t, FormatSuccess("ok"), "ok")
	assert.Contains(t, FormatWarning("careful"), "careful")
	assert.Contains(t, FormatInfo("note"), "note")
	assert.Contains(t, FormatTitle("Plan"), "Plan")
	assert.Contains(t, RenderBox("Title", "body"), "body")
}
