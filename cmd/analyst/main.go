package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/autonomous-analyst/internal/cli"
	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/config"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "analyst",
		Short: "📊 Autonomous data analyst",
		Long: `analyst: generates or loads a dataset, detects outliers with the Mahalanobis
distance, explains the findings through an LLM and remembers past sessions.

Run "analyst serve" for the tool server and "analyst dashboard" for the web UI.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/analyst/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("data", "", "dataset CSV path")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("data.path", rootCmd.PersistentFlags().Lookup("data"))

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(dashboardCmd())
	rootCmd.AddCommand(generateCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(plotCmd())
	rootCmd.AddCommand(summarizeCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(toolsCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	interrupts := cli.NewInterruptHandler(os.Stderr, "analyst")
	ctx, cancel := context.WithCancel(context.Background())
	ctx = interrupts.HandleInterrupts(ctx)

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err.Error()))
	}
	if code := exitCode(err, interrupts.WasInterrupted()); code != 0 {
		os.Exit(code)
	}
}

// exitCode follows the shell convention of 128+SIGINT for interrupted runs.
func exitCode(err error, interrupted bool) int {
	switch {
	case interrupted:
		return 130
	case err != nil:
		return 1
	default:
		return 0
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/analyst", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	config.SetDefaults(viper.GetViper())
	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := common.SetupLogger(viper.GetString("logging.level"), viper.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	return nil
}

// loadConfig resolves the typed configuration after initConfig ran.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "analyst %s\n", version)
		},
	}
}
