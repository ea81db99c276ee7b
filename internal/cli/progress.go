package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"

	"github.com/Veraticus/autonomous-analyst/internal/pipeline"
)

// StageProgress shows pipeline stages on a progress bar.
type StageProgress struct {
	writer io.Writer
	bar    *progressbar.ProgressBar
	failed bool
}

// NewStageProgress creates a progress display writing to writer.
func NewStageProgress(writer io.Writer) *StageProgress {
	if writer == nil {
		writer = os.Stderr
	}

	p := &StageProgress{writer: writer}
	p.bar = progressbar.NewOptions(pipeline.Steps,
		progressbar.OptionSetWriter(writer),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(describe(pipeline.StageAcquire)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(writer); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
	return p
}

// Observe is a pipeline.Observer.
func (p *StageProgress) Observe(stage pipeline.Stage) {
	var err error
	switch stage {
	case pipeline.StageDone:
		err = p.bar.Finish()
	case pipeline.StageFailed:
		p.failed = true
		err = p.bar.Exit()
		if err == nil {
			_, err = fmt.Fprintln(p.writer)
		}
	default:
		p.bar.Describe(describe(stage))
		err = p.bar.Set(int(stage))
	}
	if err != nil {
		slog.Warn("Failed to update progress bar", "stage", stage.String(), "error", err)
	}
}

// Failed reports whether the pipeline entered StageFailed.
func (p *StageProgress) Failed() bool {
	return p.failed
}

func describe(stage pipeline.Stage) string {
	return fmt.Sprintf("[cyan][bold]%s...[reset]", stage)
}
