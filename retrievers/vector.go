// Package retrievers provides the concrete evidence-gathering tools the
// orchestrator dispatches to: semantic search over the document corpus and
// structured queries against the knowledge graph.
package retrievers

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/medlexica/regagent/pkg/logging"
	"github.com/medlexica/regagent/planner"
	"github.com/medlexica/regagent/router"
	"github.com/medlexica/regagent/vector"
)

const snippetSeparator = "\n---\n"

// VectorTool performs persona-routed semantic search: every namespace in
// the persona's plan is queried, results are merged by weighted score, and
// the top matches are rendered as cited snippets.
type VectorTool struct {
	port       vector.SearchPort
	namespaces NamespaceMap
	topK       int
	logger     *slog.Logger
}

// VectorOption customises a VectorTool.
type VectorOption func(*VectorTool)

// WithTopK sets how many merged matches are kept per search.
func WithTopK(k int) VectorOption {
	return func(t *VectorTool) {
		if k > 0 {
			t.topK = k
		}
	}
}

// WithNamespaceMap overrides the persona routing table.
func WithNamespaceMap(m NamespaceMap) VectorOption {
	return func(t *VectorTool) {
		if len(m) > 0 {
			t.namespaces = m
		}
	}
}

// NewVectorTool builds the semantic search tool.
func NewVectorTool(port vector.SearchPort, opts ...VectorOption) *VectorTool {
	t := &VectorTool{
		port:       port,
		namespaces: DefaultNamespaceMap(),
		topK:       5,
		logger:     logging.WithComponent("retrievers.vector"),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type weightedMatch struct {
	match vector.Match
	score float64
}

// Run implements router.ToolFunc.
func (t *VectorTool) Run(ctx context.Context, query string, meta *planner.QueryMetadata) (router.ToolResult, error) {
	persona, ok := planner.PersonaFromContext(ctx)
	if !ok {
		persona = planner.DefaultPersona
	}
	plan := t.namespaces.Plan(persona)
	if len(plan) == 0 {
		t.logger.Warn("no namespace plan for persona", "persona", persona)
		return router.ToolResult{ToolName: planner.ToolVectorSearch}, nil
	}

	var filter []string
	if meta != nil {
		filter = meta.Themes
	}

	var (
		mu     sync.Mutex
		merged []weightedMatch
		wg     sync.WaitGroup
	)
	for _, step := range plan {
		wg.Add(1)
		go func(step NamespaceWeight) {
			defer wg.Done()
			matches, err := t.port.Search(ctx, query, step.Namespace, t.topK, filter)
			if err != nil {
				t.logger.Warn("namespace search failed", "namespace", step.Namespace, "error", err)
				return
			}
			mu.Lock()
			for _, m := range matches {
				merged = append(merged, weightedMatch{match: m, score: float64(m.Score) * step.Weight})
			}
			mu.Unlock()
		}(step)
	}
	wg.Wait()

	if len(merged) == 0 {
		return router.ToolResult{ToolName: planner.ToolVectorSearch}, nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].score > merged[j].score
	})
	if len(merged) > t.topK {
		merged = merged[:t.topK]
	}

	snippets := make([]string, 0, len(merged))
	seen := make(map[string]bool, len(merged))
	for _, wm := range merged {
		body := strings.TrimSpace(wm.match.Text)
		if body == "" || seen[body] {
			continue
		}
		seen[body] = true
		snippets = append(snippets, body+"\nCitation: "+wm.match.Citation.Markdown())
	}
	if len(snippets) == 0 {
		return router.ToolResult{ToolName: planner.ToolVectorSearch}, nil
	}

	return router.ToolResult{
		ToolName: planner.ToolVectorSearch,
		Success:  true,
		Content:  strings.Join(snippets, snippetSeparator),
	}, nil
}
