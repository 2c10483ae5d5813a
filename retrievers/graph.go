package retrievers

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/medlexica/regagent/kg"
	"github.com/medlexica/regagent/pkg/logging"
	"github.com/medlexica/regagent/planner"
	"github.com/medlexica/regagent/router"
)

// GraphTool answers entity-centric questions against the knowledge graph.
// It generates a read-only structured query from the question and the live
// schema, then serializes the resulting facts with their citations.
type GraphTool struct {
	port   kg.QueryPort
	gen    *kg.CypherGenerator
	logger *slog.Logger
}

// NewGraphTool builds the knowledge graph tool.
func NewGraphTool(port kg.QueryPort, gen *kg.CypherGenerator) *GraphTool {
	return &GraphTool{
		port:   port,
		gen:    gen,
		logger: logging.WithComponent("retrievers.graph"),
	}
}

// Run implements router.ToolFunc. Questions the classifier marked as not
// graph-suitable are skipped without touching the database.
func (t *GraphTool) Run(ctx context.Context, query string, meta *planner.QueryMetadata) (router.ToolResult, error) {
	if meta != nil && !meta.GraphSuitable {
		t.logger.Info("question not graph suitable, skipping graph query")
		return router.ToolResult{ToolName: planner.ToolGraphQuery}, nil
	}

	schema, err := t.port.Schema(ctx)
	if err != nil {
		return router.ToolResult{ToolName: planner.ToolGraphQuery}, err
	}

	cypher, err := t.gen.Generate(ctx, query, schema)
	if err != nil {
		if errors.Is(err, kg.ErrNotAnswerable) {
			t.logger.Info("graph cannot answer this question")
			return router.ToolResult{ToolName: planner.ToolGraphQuery}, nil
		}
		return router.ToolResult{ToolName: planner.ToolGraphQuery}, err
	}

	facts, err := t.port.Query(ctx, cypher)
	if err != nil {
		return router.ToolResult{ToolName: planner.ToolGraphQuery}, err
	}
	if len(facts) == 0 {
		return router.ToolResult{ToolName: planner.ToolGraphQuery}, nil
	}

	lines := make([]string, len(facts))
	for i, f := range facts {
		lines[i] = f.String()
	}
	return router.ToolResult{
		ToolName: planner.ToolGraphQuery,
		Success:  true,
		Content:  strings.Join(lines, "\n"),
	}, nil
}
