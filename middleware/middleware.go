// Package middleware provides composable wrappers for retrieval tools.
// A middleware decorates a router.ToolFunc before registration, adding
// cross-cutting behavior such as timing logs or per-call deadlines without
// touching the tool itself.
package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/medlexica/regagent/planner"
	"github.com/medlexica/regagent/router"
)

// Middleware decorates a tool function with additional behavior.
type Middleware func(next router.ToolFunc) router.ToolFunc

// Chain composes middlewares so the first listed runs outermost.
func Chain(mws ...Middleware) Middleware {
	return func(next router.ToolFunc) router.ToolFunc {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// Logging records each invocation's duration and outcome.
func Logging(logger *slog.Logger) Middleware {
	return func(next router.ToolFunc) router.ToolFunc {
		return func(ctx context.Context, query string, meta *planner.QueryMetadata) (router.ToolResult, error) {
			start := time.Now()
			res, err := next(ctx, query, meta)
			elapsed := time.Since(start)
			if err != nil {
				logger.Error("tool call failed", "duration", elapsed, "error", err)
			} else {
				logger.Info("tool call finished", "duration", elapsed, "success", res.Success)
			}
			return res, err
		}
	}
}

// Concurrency caps how many invocations run at once. Multi-step plans
// fan tool calls out in parallel; the cap keeps a burst of sub-questions
// from overwhelming a retrieval backend.
func Concurrency(n int) Middleware {
	if n <= 0 {
		n = 1
	}
	sem := make(chan struct{}, n)
	return func(next router.ToolFunc) router.ToolFunc {
		return func(ctx context.Context, query string, meta *planner.QueryMetadata) (router.ToolResult, error) {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return router.ToolResult{}, ctx.Err()
			}
			defer func() { <-sem }()
			return next(ctx, query, meta)
		}
	}
}

// Timeout bounds each invocation with a deadline. A non-positive duration
// leaves the context untouched.
func Timeout(d time.Duration) Middleware {
	return func(next router.ToolFunc) router.ToolFunc {
		return func(ctx context.Context, query string, meta *planner.QueryMetadata) (router.ToolResult, error) {
			if d <= 0 {
				return next(ctx, query, meta)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, query, meta)
		}
	}
}
