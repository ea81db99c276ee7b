package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/autonomous-analyst/internal/cli"
	"github.com/Veraticus/autonomous-analyst/internal/tools"
)

// toolArgs builds call arguments from the flags the user set. Unset flags
// are left out so the tool applies its configured default.
type toolArgs struct {
	cmd  *cobra.Command
	args map[string]any
}

func newToolArgs(cmd *cobra.Command) *toolArgs {
	return &toolArgs{cmd: cmd, args: make(map[string]any)}
}

func (t *toolArgs) str(flag, name string) *toolArgs {
	if t.cmd.Flags().Changed(flag) {
		t.args[name], _ = t.cmd.Flags().GetString(flag)
	}
	return t
}

func (t *toolArgs) integer(flag, name string) *toolArgs {
	if t.cmd.Flags().Changed(flag) {
		t.args[name], _ = t.cmd.Flags().GetInt(flag)
	}
	return t
}

func (t *toolArgs) number(flag, name string) *toolArgs {
	if t.cmd.Flags().Changed(flag) {
		t.args[name], _ = t.cmd.Flags().GetFloat64(flag)
	}
	return t
}

// runTool calls a registered tool and prints its result. An error result
// fails the command.
func runTool(ctx context.Context, cmd *cobra.Command, name string, args map[string]any) error {
	return withApp(ctx, func(a *app) error {
		res, err := a.registry.Call(ctx, name, args)
		if err != nil {
			return err
		}
		if err := cli.PrintResult(cmd.OutOrStdout(), res); err != nil {
			return err
		}
		if res.IsError {
			return fmt.Errorf("%s failed", name)
		}
		return nil
	})
}

func addFeatureFlags(cmd *cobra.Command) {
	cmd.Flags().String("x", "feature_1", "numeric column for the first axis")
	cmd.Flags().String("y", "feature_2", "numeric column for the second axis")
}

func generateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a synthetic dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := newToolArgs(cmd).integer("rows", "rows").args
			return runTool(cmd.Context(), cmd, tools.GenerateData, args)
		},
	}
	cmd.Flags().Int("rows", 0, "baseline rows before the injected outliers (default from data.rows)")
	return cmd
}

func detectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect outliers with the Mahalanobis distance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := newToolArgs(cmd).
				str("x", "x_col").
				str("y", "y_col").
				number("threshold", "threshold").
				args
			return runTool(cmd.Context(), cmd, tools.AnalyzeOutliers, args)
		},
	}
	addFeatureFlags(cmd)
	cmd.Flags().Float64("threshold", 0, "distance above which a row is an outlier (default from detect.threshold)")
	return cmd
}

func plotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plot",
		Short: "Plot inliers and outliers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			args := newToolArgs(cmd).str("x", "x_col").str("y", "y_col").args
			return runTool(cmd.Context(), cmd, tools.PlotResults, args)
		},
	}
	addFeatureFlags(cmd)
	return cmd
}

func summarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "summarize [outliers|stats]",
		Short:     "Explain the dataset or its outliers through the LLM",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"outliers", "stats"},
		RunE: func(cmd *cobra.Command, args []string) error {
			name := tools.SummarizeResults
			if len(args) == 1 && args[0] == "stats" {
				name = tools.SummarizeDataStats
			}
			return runTool(cmd.Context(), cmd, name, nil)
		},
	}
}

func logCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "log",
		Short: "Record the analysed dataset as a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTool(cmd.Context(), cmd, tools.LogResults, nil)
		},
	}
}

func searchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search past sessions",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			callArgs := newToolArgs(cmd).integer("limit", "n_results").args
			if len(args) == 1 {
				callArgs["query"] = args[0]
			}
			return runTool(cmd.Context(), cmd, tools.SearchLogs, callArgs)
		},
	}
	cmd.Flags().IntP("limit", "n", 3, "maximum sessions to return")
	return cmd
}

func toolsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the available tools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd.Context(), func(a *app) error {
				_, err := fmt.Fprint(cmd.OutOrStdout(), cli.RenderTools(a.registry.List()))
				return err
			})
		},
	}
}
