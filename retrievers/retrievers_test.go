package retrievers

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/medlexica/regagent/kg"
	"github.com/medlexica/regagent/llm"
	"github.com/medlexica/regagent/planner"
	"github.com/medlexica/regagent/vector"
)

type stubSearchPort struct {
	byNamespace map[string][]vector.Match
	err         error
	calls       []string
}

func (s *stubSearchPort) Search(ctx context.Context, query, namespace string, topK int, filter []string) ([]vector.Match, error) {
	s.calls = append(s.calls, namespace)
	if s.err != nil {
		return nil, s.err
	}
	return s.byNamespace[namespace], nil
}

type stubGraphPort struct {
	facts  []kg.Fact
	schema string
	err    error
	calls  int
}

func (s *stubGraphPort) Query(ctx context.Context, structuredQuery string) ([]kg.Fact, error) {
	s.calls++
	return s.facts, s.err
}

func (s *stubGraphPort) Schema(ctx context.Context) (string, error) {
	return s.schema, nil
}

type stubLLM struct {
	response string
	err      error
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func testOpts() llm.Options {
	return llm.Options{Timeout: time.Second, MaxRetries: 0, BaseDelay: time.Millisecond}
}

func TestVectorToolFansOutAcrossPersonaNamespaces(t *testing.T) {
	port := &stubSearchPort{byNamespace: map[string][]vector.Match{
		"pbac-clinical": {{
			Text:     "Esketamine showed response at week 4.",
			Score:    0.9,
			Citation: vector.Citation{DocumentID: "July-2025-PBAC", Pages: []int{12}, SourceURL: "https://example.org/a"},
		}},
		"pbac-general": {{
			Text:     "The committee deferred its decision.",
			Score:    0.8,
			Citation: vector.Citation{DocumentID: "July-2025-PBAC", Pages: []int{3}, SourceURL: "https://example.org/a"},
		}},
	}}
	tool := NewVectorTool(port)

	ctx := planner.ContextWithPersona(context.Background(), planner.PersonaClinicalAnalyst)
	res, err := tool.Run(ctx, "esketamine efficacy", &planner.QueryMetadata{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}
	if len(port.calls) != 2 {
		t.Fatalf("expected both namespaces queried, got %v", port.calls)
	}
	if !strings.Contains(res.Content, "\n---\n") {
		t.Fatalf("expected snippet separator, got %q", res.Content)
	}
	if !strings.Contains(res.Content, "Citation: [Source: July-2025-PBAC, Page: 12](https://example.org/a)") {
		t.Fatalf("expected inline citation, got %q", res.Content)
	}
}

func TestVectorToolWeightedMergeOrder(t *testing.T) {
	// The general namespace has the higher raw score but the lower weight,
	// so the clinical match must come first.
	port := &stubSearchPort{byNamespace: map[string][]vector.Match{
		"pbac-clinical": {{Text: "clinical evidence", Score: 0.7, Citation: vector.Citation{DocumentID: "A"}}},
		"pbac-general":  {{Text: "general evidence", Score: 0.9, Citation: vector.Citation{DocumentID: "B"}}},
	}}
	tool := NewVectorTool(port)

	ctx := planner.ContextWithPersona(context.Background(), planner.PersonaClinicalAnalyst)
	res, _ := tool.Run(ctx, "q", nil)
	first := strings.Split(res.Content, "\n---\n")[0]
	if !strings.Contains(first, "clinical evidence") {
		t.Fatalf("expected weighted order, got %q", res.Content)
	}
}

func TestVectorToolNoMatchesIsFailure(t *testing.T) {
	tool := NewVectorTool(&stubSearchPort{byNamespace: map[string][]vector.Match{}})

	res, err := tool.Run(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Success || res.Content != "" {
		t.Fatalf("expected empty failed result, got %+v", res)
	}
}

func TestVectorToolSearchErrorIsFailure(t *testing.T) {
	tool := NewVectorTool(&stubSearchPort{err: errors.New("index unavailable")})

	res, err := tool.Run(context.Background(), "q", nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Success {
		t.Fatal("expected failed result when every namespace errors")
	}
}

func TestNamespaceMapFallsBackToDefault(t *testing.T) {
	m := DefaultNamespaceMap()

	plan := m.Plan(planner.Persona("data_scientist"))
	if len(plan) != 1 || plan[0].Namespace != "pbac-general" {
		t.Fatalf("expected default plan, got %v", plan)
	}
}

func TestGraphToolSkipsWhenNotSuitable(t *testing.T) {
	port := &stubGraphPort{}
	tool := NewGraphTool(port, kg.NewCypherGenerator(&stubLLM{response: "MATCH p=() RETURN p"}, testOpts()))

	res, err := tool.Run(context.Background(), "q", &planner.QueryMetadata{GraphSuitable: false})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Success || port.calls != 0 {
		t.Fatalf("expected skip without a database call, got %+v calls=%d", res, port.calls)
	}
}

func TestGraphToolNoneSentinelIsFailure(t *testing.T) {
	port := &stubGraphPort{schema: "Node 'Entity'"}
	tool := NewGraphTool(port, kg.NewCypherGenerator(&stubLLM{response: "NONE"}, testOpts()))

	res, err := tool.Run(context.Background(), "q", &planner.QueryMetadata{GraphSuitable: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if res.Success || port.calls != 0 {
		t.Fatal("expected failed result without querying")
	}
}

func TestGraphToolSerializesFacts(t *testing.T) {
	port := &stubGraphPort{
		schema: "Node 'Entity'",
		facts: []kg.Fact{
			{Subject: "Esketamine", Predicate: "HASSPONSOR", Object: "Janssen-Cilag Pty Ltd",
				Citation: vector.Citation{DocumentID: "July-2025-PBAC", Pages: []int{2}, SourceURL: "https://example.org/a"}},
			{Subject: "Esketamine", Predicate: "TREATS", Object: "Treatment-resistant depression",
				Citation: vector.Citation{DocumentID: "July-2025-PBAC", Pages: []int{2}, SourceURL: "https://example.org/a"}},
		},
	}
	tool := NewGraphTool(port, kg.NewCypherGenerator(&stubLLM{
		response: "MATCH p=(d)-[:HASSPONSOR]->(s) RETURN p",
	}, testOpts()))

	res, err := tool.Run(context.Background(), "Who sponsors Esketamine?", &planner.QueryMetadata{GraphSuitable: true})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if !res.Success {
		t.Fatal("expected success")
	}
	lines := strings.Split(res.Content, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected two facts with citation lines, got %q", res.Content)
	}
	if !strings.HasPrefix(lines[0], "Esketamine -[HASSPONSOR]-> Janssen-Cilag Pty Ltd") {
		t.Fatalf("unexpected fact rendering: %q", lines[0])
	}
}
