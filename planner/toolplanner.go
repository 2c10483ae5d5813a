package planner

import (
	"log/slog"
	"math"
	"sort"

	"github.com/medlexica/regagent/pkg/logging"
)

// Tool names understood by the default tables. The router owns the actual
// implementations; the planner only ranks names.
const (
	ToolVectorSearch = "vector_search"
	ToolGraphQuery   = "graph_query"
)

// ToolWeight is one persona preference entry. Table order matters: it breaks
// ties between equally scored tools.
type ToolWeight struct {
	Tool   string  `yaml:"tool"`
	Weight float64 `yaml:"weight"`
}

// WeightTable maps a persona key (or "default") to its ordered tool
// preferences.
type WeightTable map[string][]ToolWeight

// DefaultWeightTable reflects the production persona routing config.
func DefaultWeightTable() WeightTable {
	return WeightTable{
		string(PersonaClinicalAnalyst):      {{Tool: ToolVectorSearch, Weight: 1.0}, {Tool: ToolGraphQuery, Weight: 0.7}},
		string(PersonaHealthEconomist):      {{Tool: ToolVectorSearch, Weight: 0.95}, {Tool: ToolGraphQuery, Weight: 0.55}},
		string(PersonaRegulatorySpecialist): {{Tool: ToolGraphQuery, Weight: 1.0}, {Tool: ToolVectorSearch, Weight: 0.8}},
		"default":                           {{Tool: ToolVectorSearch, Weight: 0.9}, {Tool: ToolGraphQuery, Weight: 0.9}},
	}
}

// intentSuitability scores how well each tool serves each intent. Tools not
// listed for an intent get defaultSuitability.
var intentSuitability = map[Intent]map[string]float64{
	IntentSpecificFactLookup:  {ToolGraphQuery: 0.9, ToolVectorSearch: 0.6},
	IntentSimpleSummary:       {ToolVectorSearch: 0.85, ToolGraphQuery: 0.4},
	IntentComparativeAnalysis: {ToolVectorSearch: 0.8, ToolGraphQuery: 0.6},
	IntentGeneralQA:           {ToolVectorSearch: 0.7, ToolGraphQuery: 0.5},
}

const (
	defaultSuitability = 0.5

	// scoreFloor drops tools whose contribution would be negligible.
	scoreFloor = 0.1

	// DefaultCoverageThreshold bounds cumulative estimated coverage; once a
	// plan reaches it, no further tools are added.
	DefaultCoverageThreshold = 0.85
)

// ToolPlanner combines persona preference weights with intent suitability
// into a ranked, budget-bounded tool sequence.
type ToolPlanner struct {
	weights   WeightTable
	threshold float64
	logger    *slog.Logger
}

// NewToolPlanner builds a planner over the given weight table. A nil table
// uses the defaults; a threshold <= 0 uses DefaultCoverageThreshold.
func NewToolPlanner(weights WeightTable, coverageThreshold float64) *ToolPlanner {
	if weights == nil {
		weights = DefaultWeightTable()
	}
	if coverageThreshold <= 0 {
		coverageThreshold = DefaultCoverageThreshold
	}
	return &ToolPlanner{
		weights:   weights,
		threshold: coverageThreshold,
		logger:    logging.WithComponent("tool_planner"),
	}
}

// Plan returns the ranked tool sequence for the metadata/persona pair. The
// plan is empty when no weight table applies or no tool clears the score
// floor; the agent reports "no configured strategy" in that case.
func (p *ToolPlanner) Plan(meta *QueryMetadata, persona Persona) []ToolPlanItem {
	prefs, ok := p.weights[string(persona)]
	if !ok {
		p.logger.Warn("persona has no weight table, falling back to default", "persona", string(persona))
		prefs, ok = p.weights["default"]
		if !ok {
			p.logger.Error("no default weight table configured, returning empty plan")
			return nil
		}
	}

	suitability := intentSuitability[meta.Intent]

	type scored struct {
		tool  string
		score float64
	}
	candidates := make([]scored, 0, len(prefs))
	for _, pref := range prefs {
		suit, ok := suitability[pref.Tool]
		if !ok {
			suit = defaultSuitability
		}
		candidates = append(candidates, scored{tool: pref.Tool, score: pref.Weight * suit})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	var plan []ToolPlanItem
	total := 0.0
	for _, cand := range candidates {
		if cand.score <= scoreFloor {
			continue
		}
		coverage := math.Round(cand.score*100) / 100
		plan = append(plan, ToolPlanItem{ToolName: cand.tool, EstimatedCoverage: coverage})
		total += coverage
		if total >= p.threshold {
			break
		}
	}

	p.logger.Info("tool plan built",
		"intent", string(meta.Intent),
		"persona", string(persona),
		"tools", len(plan),
		"coverage", total,
	)
	return plan
}

// Contains reports whether the plan includes the named tool.
func Contains(plan []ToolPlanItem, tool string) bool {
	for _, item := range plan {
		if item.ToolName == tool {
			return true
		}
	}
	return false
}
