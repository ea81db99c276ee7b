package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Veraticus/autonomous-analyst/internal/cli"
	"github.com/Veraticus/autonomous-analyst/internal/pipeline"
)

func planCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run the full analysis and recommend next steps",
		Long: `Run the planning pipeline: load or generate the dataset, detect outliers,
summarize the results, ask for a recommendation and log the session.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			quiet, _ := cmd.Flags().GetBool("quiet")
			return withApp(cmd.Context(), func(a *app) error {
				var progressOut io.Writer = os.Stderr
				if quiet {
					progressOut = io.Discard
				}
				progress := cli.NewStageProgress(progressOut)
				a.pipeline.Observe(progress.Observe)

				res, err := a.pipeline.Run(cmd.Context())
				if err != nil {
					reportFailure(cmd.ErrOrStderr(), progress, res)
					return err
				}

				out := cmd.OutOrStdout()
				if res.Generated {
					fmt.Fprintln(out, cli.FormatInfo("No dataset found, generated a new one."))
				}
				fmt.Fprintln(out, cli.RenderBox(cli.ChartIcon+" Outlier Summary", res.OutlierSummary))
				fmt.Fprintln(out, cli.RenderBox("📈 Dataset Overview", res.StatsSummary))
				fmt.Fprintln(out, cli.RenderBox(cli.RobotIcon+" Recommendation", res.Recommendation))

				if res.LogErr != nil {
					fmt.Fprintln(out, cli.FormatWarning("Session was not logged: "+res.LogErr.Error()))
				} else {
					fmt.Fprintln(out, cli.FormatSuccess("Session logged with ID: "+res.SessionID))
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolP("quiet", "q", false, "hide stage progress")
	return cmd
}

// reportFailure names the stage a failed run stopped in.
func reportFailure(w io.Writer, progress *cli.StageProgress, res *pipeline.Result) {
	if !progress.Failed() || res == nil || len(res.Transitions) == 0 {
		return
	}
	stopped := res.Transitions[len(res.Transitions)-1].From
	fmt.Fprintln(w, cli.FormatWarning("Plan stopped during the "+stopped.String()+" stage."))
	if res.Detection != nil {
		fmt.Fprintln(w, cli.FormatInfo(fmt.Sprintf("Detection finished first: %d inliers, %d outliers.",
			res.Detection.Inliers, res.Detection.Outliers)))
	}
}
