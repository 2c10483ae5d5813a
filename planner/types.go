// Package planner holds the query-understanding stages that run before any
// retrieval: conversational rewrite, persona and intent classification, tool
// planning and multi-step decomposition.
package planner

import "strings"

// Intent classifies what the user is trying to get out of the corpus.
type Intent string

const (
	IntentSpecificFactLookup  Intent = "specific_fact_lookup"
	IntentSimpleSummary       Intent = "simple_summary"
	IntentComparativeAnalysis Intent = "comparative_analysis"
	IntentGeneralQA           Intent = "general_qa"
	IntentUnknown             Intent = "unknown"
)

// normalizeIntent maps model output onto the closed intent vocabulary. The
// model occasionally emits "comparison" for comparative questions; that label
// is folded into the canonical value before validation.
func normalizeIntent(raw string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(raw))) {
	case IntentSpecificFactLookup:
		return IntentSpecificFactLookup
	case IntentSimpleSummary:
		return IntentSimpleSummary
	case IntentComparativeAnalysis, Intent("comparison"):
		return IntentComparativeAnalysis
	case IntentGeneralQA:
		return IntentGeneralQA
	default:
		return IntentUnknown
	}
}

// QueryMetadata is the structured interpretation of one (sub-)query. It is
// produced once by Classifier and treated as immutable afterwards.
type QueryMetadata struct {
	Intent        Intent   `json:"intent"`
	Keywords      []string `json:"keywords"`
	Themes        []string `json:"themes,omitempty"`
	GraphSuitable bool     `json:"question_is_graph_suitable"`
}

// Persona is a named professional viewpoint that biases tool preference and
// answer framing.
type Persona string

const (
	PersonaClinicalAnalyst      Persona = "clinical_analyst"
	PersonaHealthEconomist      Persona = "health_economist"
	PersonaRegulatorySpecialist Persona = "regulatory_specialist"

	// PersonaAutomatic asks the agent to pick a persona itself and disclose
	// the choice in the answer.
	PersonaAutomatic Persona = "automatic"
)

// DefaultPersona is the documented fallback when classification cannot
// produce a confident persona.
const DefaultPersona = PersonaRegulatorySpecialist

// KnownPersonas lists the closed persona set, excluding the automatic
// sentinel.
var KnownPersonas = []Persona{
	PersonaClinicalAnalyst,
	PersonaHealthEconomist,
	PersonaRegulatorySpecialist,
}

// Valid reports whether p is a member of the closed persona set.
func (p Persona) Valid() bool {
	for _, known := range KnownPersonas {
		if p == known {
			return true
		}
	}
	return false
}

// DisplayName renders the persona key for user-facing text, e.g.
// "clinical_analyst" -> "Clinical Analyst".
func (p Persona) DisplayName() string {
	words := strings.Split(string(p), "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// ToolPlanItem is one entry in the ranked tool sequence the planner emits.
// EstimatedCoverage is an additive heuristic used only to bound fan-out; it
// is never renormalized.
type ToolPlanItem struct {
	ToolName          string  `json:"tool_name"`
	EstimatedCoverage float64 `json:"estimated_coverage"`
}

// Plan is the decomposition output. When RequiresDecomposition is false,
// SubQuestions holds exactly the rewritten query.
type Plan struct {
	RequiresDecomposition bool     `json:"requires_decomposition"`
	SubQuestions          []string `json:"plan"`
}
