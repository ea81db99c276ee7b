// Package tools exposes the analyst operations as named tools with declared
// parameters and text results.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/autonomous-analyst/internal/common"
)

var (
	// ErrUnknownTool is returned by Call for an unregistered name.
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidArgument is returned by Call when an argument has the wrong type.
	ErrInvalidArgument = errors.New("invalid argument")
)

// Result is what a tool call returns to the caller. Every outcome, including
// failures, is representable as text.
type Result struct {
	Text    string `json:"text"`
	Path    string `json:"path,omitempty"`
	IsError bool   `json:"isError"`
}

// Handler runs a tool with validated arguments.
type Handler func(ctx context.Context, args Args) (Result, error)

// Tool is a named operation.
type Tool struct {
	Handler     Handler
	Name        string
	Description string
	Params      []Param
	// UsesLLM marks tools that call the language model.
	UsesLLM bool
}

// Registry holds the registered tools.
type Registry struct {
	tools  map[string]Tool
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: common.OrDefault(logger),
	}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(tool Tool) error {
	if tool.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if tool.Handler == nil {
		return fmt.Errorf("tool %s has no handler", tool.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("%w: tool %s", common.ErrDuplicateEntry, tool.Name)
	}
	r.tools[tool.Name] = tool
	return nil
}

// Get looks up a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// List returns all tools sorted by name.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Tool, 0, len(r.tools))
	for _, tool := range r.tools {
		out = append(out, tool)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Call runs the named tool. It returns a Go error only for an unknown tool or
// malformed arguments; failures inside the tool are mapped to a text Result.
func (r *Registry) Call(ctx context.Context, name string, raw map[string]any) (Result, error) {
	tool, ok := r.Get(name)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	args, err := bind(tool.Params, raw)
	if err != nil {
		return Result{}, fmt.Errorf("tool %s: %w", name, err)
	}

	start := time.Now()
	res, err := tool.Handler(ctx, args)
	if err != nil {
		res = ErrorResult(err)
		r.logger.Warn("Tool call failed",
			"tool", name,
			"duration", time.Since(start),
			"error", err)
		return res, nil
	}

	r.logger.Info("Tool call complete", "tool", name, "duration", time.Since(start))
	return res, nil
}

// ErrorResult maps an error to the text shown to the caller. Missing
// preconditions read as plain guidance, validation problems and other
// failures are flagged as errors.
func ErrorResult(err error) Result {
	if msg, ok := common.UserMessage(err); ok {
		return Result{Text: msg}
	}
	switch {
	case errors.Is(err, common.ErrNoDataset):
		return Result{Text: common.MsgNoDataset}
	case errors.Is(err, common.ErrInvalidDataset):
		return Result{Text: "Invalid input: " + err.Error(), IsError: true}
	default:
		return Result{Text: "Error: " + err.Error(), IsError: true}
	}
}
