// Package dashboard serves the web front end that drives the tool server.
package dashboard

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/dataset"
	"github.com/Veraticus/autonomous-analyst/internal/server"
	"github.com/Veraticus/autonomous-analyst/internal/tools"
)

//go:embed templates/*.html
var templateFS embed.FS

// MsgNoData is shown when /analyze receives neither action.
const MsgNoData = "Error: No data provided."

// ToolCaller reaches the tool server.
type ToolCaller interface {
	Initialize(ctx context.Context) (server.InitializeResult, error)
	ListTools(ctx context.Context) ([]server.ToolInfo, error)
	CallTool(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

// Config holds dashboard settings.
type Config struct {
	DataPath  string
	StaticDir string
	Model     string
}

// Dashboard renders the control panel and result pages.
type Dashboard struct {
	tools       ToolCaller
	logger      *slog.Logger
	tmpl        *template.Template
	cfg         Config
	mu          sync.Mutex
	initialized bool
}

// New creates a dashboard.
func New(caller ToolCaller, cfg Config, logger *slog.Logger) (*Dashboard, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: tool client is required", common.ErrMissingConfig)
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "static"
	}

	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	return &Dashboard{
		tools:  caller,
		cfg:    cfg,
		tmpl:   tmpl,
		logger: common.OrDefault(logger),
	}, nil
}

// Handler builds the gin engine.
func (d *Dashboard) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(server.RequestLogger(d.logger))
	r.SetHTMLTemplate(d.tmpl)

	r.GET("/", d.index)
	r.POST("/analyze", d.analyze)
	r.GET("/plan", d.plan)
	r.Static("/static", d.cfg.StaticDir)

	return r
}

// Run serves on addr until ctx is canceled.
func (d *Dashboard) Run(ctx context.Context, addr string) error {
	return server.ListenAndServe(ctx, addr, d.Handler(), d.logger)
}

func (d *Dashboard) index(c *gin.Context) {
	data := gin.H{"Title": "Autonomous Analyst", "Model": d.cfg.Model}

	list, err := d.listTools(c.Request.Context())
	if err != nil {
		d.logger.Warn("Failed to list tools", "error", err)
		data["ToolsErr"] = err.Error()
	} else {
		data["Tools"] = list
	}
	c.HTML(http.StatusOK, "index.html", data)
}

func (d *Dashboard) analyze(c *gin.Context) {
	ctx := c.Request.Context()
	if err := d.handshake(ctx); err != nil {
		d.unavailable(c, err)
		return
	}

	switch c.PostForm("action") {
	case "generate":
		res, err := d.tools.CallTool(ctx, tools.GenerateData, nil)
		if err != nil {
			d.unavailable(c, err)
			return
		}
		if res.IsError {
			d.errorPage(c, http.StatusBadGateway, res.Text)
			return
		}
	case "upload":
		header, err := c.FormFile("file")
		if err != nil {
			d.errorPage(c, http.StatusBadRequest, MsgNoData)
			return
		}
		if err := d.saveUpload(header); err != nil {
			d.logger.Warn("Rejected upload", "file", header.Filename, "error", err)
			d.errorPage(c, http.StatusBadRequest, "Error: "+err.Error())
			return
		}
	default:
		d.errorPage(c, http.StatusBadRequest, MsgNoData)
		return
	}

	features := map[string]any{"x_col": dataset.Feature1Column, "y_col": dataset.Feature2Column}
	steps := []struct {
		name string
		args map[string]any
	}{
		{tools.AnalyzeOutliers, features},
		{tools.PlotResults, features},
		{tools.SummarizeResults, nil},
		{tools.SummarizeDataStats, nil},
	}

	results := make([]tools.Result, len(steps))
	for i, step := range steps {
		res, err := d.tools.CallTool(ctx, step.name, step.args)
		if err != nil {
			d.unavailable(c, err)
			return
		}
		results[i] = res
	}

	data := gin.H{
		"Title":          "Autonomous Analyst Results",
		"Model":          d.cfg.Model,
		"Detection":      results[0].Text,
		"PlotText":       results[1].Text,
		"OutlierSummary": results[2].Text,
		"StatsSummary":   results[3].Text,
	}
	if plot := results[1]; !plot.IsError && plot.Path != "" {
		data["PlotURL"] = "/static/" + filepath.Base(plot.Path) + "?v=" + strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	c.HTML(http.StatusOK, "results.html", data)
}

func (d *Dashboard) plan(c *gin.Context) {
	ctx := c.Request.Context()
	if err := d.handshake(ctx); err != nil {
		d.unavailable(c, err)
		return
	}
	res, err := d.tools.CallTool(ctx, tools.AutonomousPlan, nil)
	if err != nil {
		d.unavailable(c, err)
		return
	}
	c.HTML(http.StatusOK, "plan.html", gin.H{
		"Title":   "Autonomous Plan",
		"Text":    res.Text,
		"IsError": res.IsError,
	})
}

// handshake initializes the tool server session once. A failed attempt is
// retried on the next request.
func (d *Dashboard) handshake(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.initialized {
		return nil
	}

	info, err := d.tools.Initialize(ctx)
	if err != nil {
		return err
	}
	d.initialized = true
	d.logger.Info("Connected to tool server",
		"server", info.ServerInfo.Name,
		"version", info.ServerInfo.Version,
		"protocol", info.ProtocolVersion)
	return nil
}

func (d *Dashboard) listTools(ctx context.Context) ([]server.ToolInfo, error) {
	if err := d.handshake(ctx); err != nil {
		return nil, err
	}
	return d.tools.ListTools(ctx)
}

// saveUpload parses the uploaded CSV and writes it to the data path.
func (d *Dashboard) saveUpload(header *multipart.FileHeader) error {
	f, err := header.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	ds, err := dataset.ReadCSV(f)
	if err != nil {
		return err
	}
	return dataset.Save(d.cfg.DataPath, ds)
}

func (d *Dashboard) unavailable(c *gin.Context, err error) {
	d.logger.Error("Tool server call failed", "error", err)
	d.errorPage(c, http.StatusBadGateway, "Error: tool server unavailable: "+err.Error())
}

func (d *Dashboard) errorPage(c *gin.Context, status int, msg string) {
	c.HTML(status, "error.html", gin.H{"Title": "Autonomous Analyst", "Message": msg})
}
