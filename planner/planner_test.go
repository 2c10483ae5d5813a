package planner

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/medlexica/regagent/llm"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func testOpts() llm.Options {
	return llm.Options{Timeout: time.Second, MaxRetries: 0, BaseDelay: time.Millisecond}
}

func TestRewriteSkipsStandaloneQueries(t *testing.T) {
	client := &stubLLM{response: "should never be used"}
	r := NewRewriter(client, testOpts())

	history := []string{"user: Who is the sponsor for Esketamine?", "assistant: Janssen-Cilag Pty Ltd."}
	queries := []string{
		"What is the dosage form for Fruquintinib?",
		"Who is the sponsor for Esketamine?",
		"Compare Drug A and Drug B outcomes",
	}
	for _, q := range queries {
		if got := r.Rewrite(context.Background(), q, history); got != q {
			t.Fatalf("standalone query %q was rewritten to %q", q, got)
		}
	}
	if client.calls != 0 {
		t.Fatalf("expected no model calls for standalone queries, got %d", client.calls)
	}
}

func TestRewriteEmptyHistory(t *testing.T) {
	client := &stubLLM{response: "rewritten"}
	r := NewRewriter(client, testOpts())

	if got := r.Rewrite(context.Background(), "what is its use?", nil); got != "what is its use?" {
		t.Fatalf("expected original query with empty history, got %q", got)
	}
	if client.calls != 0 {
		t.Fatalf("expected no model calls with empty history, got %d", client.calls)
	}
}

func TestRewriteResolvesAnaphora(t *testing.T) {
	client := &stubLLM{response: "What is the use of Esketamine?\n"}
	r := NewRewriter(client, testOpts())

	got := r.Rewrite(context.Background(), "what is its use?", []string{"user: Who is the sponsor for Esketamine?"})
	if got != "What is the use of Esketamine?" {
		t.Fatalf("unexpected rewrite: %q", got)
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 model call, got %d", client.calls)
	}
}

func TestRewriteFallsBackOnFailure(t *testing.T) {
	client := &stubLLM{err: fmt.Errorf("%w: overloaded", llm.ErrTransient)}
	r := NewRewriter(client, testOpts())

	q := "what about its side effects?"
	if got := r.Rewrite(context.Background(), q, []string{"user: Tell me about Esketamine"}); got != q {
		t.Fatalf("expected original query on model failure, got %q", got)
	}
}

func TestPersonaClassifierValidKey(t *testing.T) {
	client := &stubLLM{response: "`clinical_analyst`"}
	pc := NewPersonaClassifier(client, testOpts())

	persona, ok := pc.Classify(context.Background(), "What are the side effects of Drug X?")
	if !ok || persona != PersonaClinicalAnalyst {
		t.Fatalf("expected clinical_analyst, got %q ok=%v", persona, ok)
	}
}

func TestPersonaClassifierInvalidKeyFallsBack(t *testing.T) {
	client := &stubLLM{response: "data_scientist"}
	pc := NewPersonaClassifier(client, testOpts())

	persona, ok := pc.Classify(context.Background(), "anything")
	if !ok {
		t.Fatal("invalid key should be recovered locally, not surfaced as failure")
	}
	if persona != DefaultPersona {
		t.Fatalf("expected default persona, got %q", persona)
	}
}

func TestPersonaClassifierModelFailure(t *testing.T) {
	client := &stubLLM{err: fmt.Errorf("%w: 503", llm.ErrTransient)}
	pc := NewPersonaClassifier(client, testOpts())

	if _, ok := pc.Classify(context.Background(), "anything"); ok {
		t.Fatal("expected ok=false on exhausted model call")
	}
}

func TestClassifierParsesFencedJSON(t *testing.T) {
	client := &stubLLM{response: "```json\n{\"intent\":\"specific_fact_lookup\",\"keywords\":[\"Esketamine\",\"sponsor\"],\"themes\":[\"regulatory\"],\"question_is_graph_suitable\":true}\n```"}
	c := NewClassifier(client, testOpts())

	meta := c.Classify(context.Background(), "Who is the sponsor for Esketamine?")
	if meta == nil {
		t.Fatal("expected metadata, got nil")
	}
	if meta.Intent != IntentSpecificFactLookup || !meta.GraphSuitable {
		t.Fatalf("unexpected metadata: %#v", meta)
	}
}

func TestClassifierNormalizesComparisonIntent(t *testing.T) {
	client := &stubLLM{response: `{"intent":"comparison","keywords":["Drug A","Drug B"],"question_is_graph_suitable":false}`}
	c := NewClassifier(client, testOpts())

	meta := c.Classify(context.Background(), "Compare Drug A and Drug B")
	if meta == nil {
		t.Fatal("expected metadata, got nil")
	}
	if meta.Intent != IntentComparativeAnalysis {
		t.Fatalf("expected comparative_analysis, got %q", meta.Intent)
	}
}

func TestClassifierUnknownIntentLabel(t *testing.T) {
	client := &stubLLM{response: `{"intent":"weird_label","keywords":[],"question_is_graph_suitable":false}`}
	c := NewClassifier(client, testOpts())

	meta := c.Classify(context.Background(), "something")
	if meta == nil || meta.Intent != IntentUnknown {
		t.Fatalf("expected unknown intent, got %#v", meta)
	}
}

func TestClassifierMalformedOutput(t *testing.T) {
	client := &stubLLM{response: "I cannot classify that."}
	c := NewClassifier(client, testOpts())

	if meta := c.Classify(context.Background(), "something"); meta != nil {
		t.Fatalf("expected nil on malformed output, got %#v", meta)
	}
}

func TestPlanCoverageBound(t *testing.T) {
	p := NewToolPlanner(nil, 0.85)

	for _, persona := range KnownPersonas {
		for _, intent := range []Intent{IntentSpecificFactLookup, IntentSimpleSummary, IntentComparativeAnalysis, IntentGeneralQA, IntentUnknown} {
			meta := &QueryMetadata{Intent: intent}
			plan := p.Plan(meta, persona)

			total := 0.0
			for i, item := range plan {
				if item.EstimatedCoverage <= 0.1 {
					t.Fatalf("persona=%s intent=%s: item %d below score floor: %#v", persona, intent, i, item)
				}
				if i < len(plan)-1 && total+item.EstimatedCoverage >= 0.85 {
					t.Fatalf("persona=%s intent=%s: plan kept adding tools after reaching threshold", persona, intent)
				}
				total += item.EstimatedCoverage
			}
		}
	}
}

func TestPlanRanksGraphFirstForFactLookup(t *testing.T) {
	p := NewToolPlanner(nil, 0.85)
	meta := &QueryMetadata{Intent: IntentSpecificFactLookup, GraphSuitable: true}

	plan := p.Plan(meta, PersonaRegulatorySpecialist)
	if len(plan) == 0 {
		t.Fatal("expected non-empty plan")
	}
	if plan[0].ToolName != ToolGraphQuery {
		t.Fatalf("expected graph tool first for fact lookup, got %q", plan[0].ToolName)
	}
	if plan[0].EstimatedCoverage != 0.9 {
		t.Fatalf("expected rounded coverage 0.9, got %v", plan[0].EstimatedCoverage)
	}
}

func TestPlanUnknownPersonaFallsBackToDefault(t *testing.T) {
	p := NewToolPlanner(nil, 0.85)
	meta := &QueryMetadata{Intent: IntentGeneralQA}

	plan := p.Plan(meta, Persona("data_scientist"))
	if len(plan) == 0 {
		t.Fatal("expected plan from default weight table")
	}
}

func TestPlanEmptyWhenNoTableApplies(t *testing.T) {
	p := NewToolPlanner(WeightTable{}, 0.85)
	meta := &QueryMetadata{Intent: IntentGeneralQA}

	if plan := p.Plan(meta, PersonaClinicalAnalyst); len(plan) != 0 {
		t.Fatalf("expected empty plan without any table, got %#v", plan)
	}
}

func TestPlanDropsNegligibleTools(t *testing.T) {
	weights := WeightTable{
		"default": {
			{Tool: ToolVectorSearch, Weight: 0.1},
			{Tool: ToolGraphQuery, Weight: 0.05},
		},
	}
	p := NewToolPlanner(weights, 0.85)
	meta := &QueryMetadata{Intent: IntentUnknown} // every tool gets the 0.5 default suitability

	if plan := p.Plan(meta, Persona("anyone")); len(plan) != 0 {
		t.Fatalf("expected empty plan when nothing clears the floor, got %#v", plan)
	}
}

func TestPlanStableTieBreak(t *testing.T) {
	weights := WeightTable{
		"default": {
			{Tool: "alpha", Weight: 0.8},
			{Tool: "beta", Weight: 0.8},
		},
	}
	p := NewToolPlanner(weights, 2.0)
	meta := &QueryMetadata{Intent: IntentUnknown}

	plan := p.Plan(meta, Persona("anyone"))
	if len(plan) != 2 || plan[0].ToolName != "alpha" || plan[1].ToolName != "beta" {
		t.Fatalf("expected table order preserved on ties, got %#v", plan)
	}
}

func TestDecomposeDegradesOnFailure(t *testing.T) {
	client := &stubLLM{err: fmt.Errorf("%w: overloaded", llm.ErrTransient)}
	d := NewDecomposer(client, testOpts())

	plan := d.Decompose(context.Background(), "Compare A and B", nil)
	if plan.RequiresDecomposition {
		t.Fatal("expected single-step degradation on failure")
	}
	if len(plan.SubQuestions) != 1 || plan.SubQuestions[0] != "Compare A and B" {
		t.Fatalf("expected original query as the only step, got %#v", plan.SubQuestions)
	}
}

func TestDecomposeParsesPlan(t *testing.T) {
	client := &stubLLM{response: `{"requires_decomposition":true,"plan":["What is the indication for Drug A?","What is the indication for Drug B?","Compare the indications for both drugs"]}`}
	d := NewDecomposer(client, testOpts())

	plan := d.Decompose(context.Background(), "Compare indications of Drug A and Drug B", nil)
	if !plan.RequiresDecomposition || len(plan.SubQuestions) != 3 {
		t.Fatalf("unexpected plan: %#v", plan)
	}

	retrieval, logic := SplitSteps(plan)
	if len(retrieval) != 2 {
		t.Fatalf("expected 2 retrieval steps, got %#v", retrieval)
	}
	if logic != "Compare the indications for both drugs" {
		t.Fatalf("unexpected logic instruction: %q", logic)
	}
}

func TestSplitStepsAllLogic(t *testing.T) {
	plan := Plan{RequiresDecomposition: true, SubQuestions: []string{"Identify the common conditions treated by both drugs"}}

	retrieval, logic := SplitSteps(plan)
	if len(retrieval) != 1 {
		t.Fatalf("expected the logic-only plan to run as retrieval, got %#v", retrieval)
	}
	if logic == "" {
		t.Fatal("expected logic instruction to be preserved")
	}
}

func TestPersonaDisplayName(t *testing.T) {
	if got := PersonaClinicalAnalyst.DisplayName(); got != "Clinical Analyst" {
		t.Fatalf("unexpected display name: %q", got)
	}
}
