// Package server exposes the tool registry over JSON-RPC 2.0 on HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Veraticus/autonomous-analyst/internal/common"
	"github.com/Veraticus/autonomous-analyst/internal/tools"
)

const (
	// Name is reported as serverInfo.name.
	Name = "autonomous-analyst"

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// Server answers tool requests.
type Server struct {
	registry *tools.Registry
	logger   *slog.Logger
	version  string
}

// New creates a server over registry.
func New(registry *tools.Registry, version string, logger *slog.Logger) *Server {
	return &Server{
		registry: registry,
		version:  version,
		logger:   common.OrDefault(logger),
	}
}

// Handler builds the gin engine.
func (s *Server) Handler() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(s.logger))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/mcp", s.handleRPC)

	return r
}

// Run serves on addr until ctx is canceled.
func (s *Server) Run(ctx context.Context, addr string) error {
	return ListenAndServe(ctx, addr, s.Handler(), s.logger)
}

func (s *Server) handleRPC(c *gin.Context) {
	var req Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusOK, errorResponse(nil, CodeParseError, "parse error: "+err.Error()))
		return
	}
	if req.JSONRPC != JSONRPCVersion || req.Method == "" {
		c.JSON(http.StatusOK, errorResponse(req.ID, CodeInvalidRequest, "invalid request"))
		return
	}

	if req.IsNotification() {
		s.logger.Debug("Notification received", "method", req.Method)
		c.Status(http.StatusAccepted)
		return
	}

	result, rpcErr := s.dispatch(c.Request.Context(), &req)
	if rpcErr != nil {
		c.JSON(http.StatusOK, Response{JSONRPC: JSONRPCVersion, ID: req.ID, Error: rpcErr})
		return
	}
	c.JSON(http.StatusOK, Response{JSONRPC: JSONRPCVersion, ID: req.ID, Result: result})
}

func (s *Server) dispatch(ctx context.Context, req *Request) (any, *RPCError) {
	switch req.Method {
	case MethodInitialize:
		return InitializeResult{
			ProtocolVersion: ProtocolVersion,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      Implementation{Name: Name, Version: s.version},
		}, nil
	case MethodPing:
		return map[string]any{}, nil
	case MethodToolsList:
		return s.listTools(), nil
	case MethodToolsCall:
		return s.callTool(ctx, req.Params)
	default:
		return nil, &RPCError{Code: CodeMethodNotFound, Message: "method not found: " + req.Method}
	}
}

func (s *Server) listTools() ListToolsResult {
	list := s.registry.List()
	out := ListToolsResult{Tools: make([]ToolInfo, 0, len(list))}
	for _, t := range list {
		out.Tools = append(out.Tools, ToolInfo{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema(),
			Annotations: ToolAnnotations{UsesLLM: t.UsesLLM},
		})
	}
	return out
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *RPCError) {
	var params CallToolParams
	if len(raw) == 0 {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "missing params"}
	}
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "invalid params: " + err.Error()}
	}
	if params.Name == "" {
		return nil, &RPCError{Code: CodeInvalidParams, Message: "tool name is required"}
	}

	res, err := s.registry.Call(ctx, params.Name, params.Arguments)
	switch {
	case errors.Is(err, tools.ErrUnknownTool), errors.Is(err, tools.ErrInvalidArgument):
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	case err != nil:
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}

	return CallToolResult{
		Content: []Content{{Type: "text", Text: res.Text}},
		IsError: res.IsError,
		Path:    res.Path,
	}, nil
}

func errorResponse(id json.RawMessage, code int, msg string) Response {
	if len(id) == 0 {
		id = json.RawMessage("null")
	}
	return Response{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: msg},
	}
}

// RequestLogger logs each request through slog.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	logger = common.OrDefault(logger)
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// ListenAndServe runs handler on addr and shuts it down gracefully once ctx
// is canceled.
func ListenAndServe(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	logger = common.OrDefault(logger)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("failed to serve on %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", "addr", addr)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}
