package main

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/autonomous-analyst/internal/dashboard"
	"github.com/Veraticus/autonomous-analyst/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the tool server",
		Long:  `Serve the analysis tools over JSON-RPC 2.0 at POST /mcp.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setGinMode()
			return withApp(cmd.Context(), func(a *app) error {
				srv := server.New(a.registry, version, slog.Default())
				return srv.Run(cmd.Context(), a.cfg.Server.Addr)
			})
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func dashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Run the web dashboard",
		Long:  `Serve the web dashboard, which drives a running tool server.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			setGinMode()
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			client := server.NewClient(cfg.Dashboard.ToolServer, cfg.Dashboard.Timeout)
			d, err := dashboard.New(client, dashboard.Config{
				DataPath:  cfg.Data.Path,
				StaticDir: cfg.Dashboard.StaticDir,
				Model:     cfg.LLM.Model,
			}, slog.Default())
			if err != nil {
				return err
			}
			return d.Run(cmd.Context(), cfg.Dashboard.Addr)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from dashboard.addr)")
	cmd.Flags().String("tool-server", "", "tool server base URL (default from dashboard.tool_server)")
	_ = viper.BindPFlag("dashboard.addr", cmd.Flags().Lookup("addr"))
	_ = viper.BindPFlag("dashboard.tool_server", cmd.Flags().Lookup("tool-server"))
	return cmd
}

func setGinMode() {
	if viper.GetString("logging.level") == "debug" {
		gin.SetMode(gin.DebugMode)
		return
	}
	gin.SetMode(gin.ReleaseMode)
}
