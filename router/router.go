// Package router dispatches named retrieval tools and guarantees that no
// tool failure, whether an error or a panic, ever escapes to the caller.
// One misbehaving retrieval backend must not crash a multi-tool plan.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/medlexica/regagent/pkg/logging"
	"github.com/medlexica/regagent/planner"
)

// ToolResult is the uniform outcome of one tool invocation. Content is the
// empty string on no results, never unset; a failed tool reports
// Success=false with the error description in Content.
type ToolResult struct {
	ToolName          string  `json:"tool_name"`
	Success           bool    `json:"success"`
	Content           string  `json:"content"`
	EstimatedCoverage float64 `json:"estimated_coverage"`
}

// ToolFunc is a retrieval function the router can dispatch to.
type ToolFunc func(ctx context.Context, query string, meta *planner.QueryMetadata) (ToolResult, error)

// Router maps tool names to callable retrieval functions.
type Router struct {
	mu       sync.RWMutex
	registry map[string]ToolFunc
	logger   *slog.Logger
}

// New creates an empty router.
func New() *Router {
	return &Router{
		registry: make(map[string]ToolFunc),
		logger:   logging.WithComponent("tool_router"),
	}
}

// Register adds a tool under the given name, replacing any previous entry.
func (r *Router) Register(name string, fn ToolFunc) {
	if name == "" || fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registry[name] = fn
}

// Tools returns the registered tool names.
func (r *Router) Tools() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	return names
}

// Execute runs the named tool against the query. It never returns an error
// and never lets a panic escape: unknown tools, tool errors and tool panics
// all become failed ToolResults.
func (r *Router) Execute(ctx context.Context, name, query string, meta *planner.QueryMetadata) (result ToolResult) {
	r.mu.RLock()
	fn, ok := r.registry[name]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("tool not registered, returning fallback result", "tool", name)
		return ToolResult{ToolName: name, Success: false, Content: "[Error: Tool not implemented]"}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool panicked", "tool", name, "panic", rec)
			result = ToolResult{ToolName: name, Success: false, Content: fmt.Sprintf("Tool error: %v", rec)}
		}
	}()

	r.logger.Info("executing tool", "tool", name)
	res, err := fn(ctx, query, meta)
	if err != nil {
		r.logger.Error("tool failed", "tool", name, "error", err)
		return ToolResult{ToolName: name, Success: false, Content: fmt.Sprintf("Tool error: %v", err)}
	}
	res.ToolName = name
	return res
}
