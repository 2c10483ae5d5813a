// Package kg defines the knowledge-graph collaborator ports: a structured
// query port returning normalized facts, and a model-backed generator that
// turns a natural-language question into a read-only structured query.
package kg

import (
	"context"
	"fmt"

	"github.com/medlexica/regagent/vector"
)

// Fact is the single normalized shape every graph result takes, regardless
// of the backend's native record type. The orchestration layer never branches
// on graph driver shapes.
type Fact struct {
	Subject   string          `json:"subject"`
	Predicate string          `json:"predicate"`
	Object    string          `json:"object"`
	Citation  vector.Citation `json:"citation"`
}

// String renders the fact as one citable evidence line.
func (f Fact) String() string {
	line := fmt.Sprintf("%s -[%s]-> %s", f.Subject, f.Predicate, f.Object)
	if f.Citation.DocumentID != "" || f.Citation.SourceURL != "" {
		line += "\nCitation: " + f.Citation.Markdown()
	}
	return line
}

// QueryPort is the graph store collaborator.
type QueryPort interface {
	// Query executes a read-only structured query and returns the matching
	// facts. An empty slice means no matching paths.
	Query(ctx context.Context, structuredQuery string) ([]Fact, error)

	// Schema returns a text description of the live graph schema (node
	// labels, relationship types) suitable for inclusion in a prompt.
	Schema(ctx context.Context) (string, error)
}
