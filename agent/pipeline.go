package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/medlexica/regagent/flow"
	"github.com/medlexica/regagent/planner"
	"github.com/medlexica/regagent/router"
)

// runState carries intermediate pipeline results between steps.
type runState struct {
	query            string
	requestedPersona string
	history          []string

	rewritten string
	persona   planner.Persona
	plan      planner.Plan

	meta        *planner.QueryMetadata
	toolPlan    []planner.ToolPlanItem
	toolResults []router.ToolResult

	answer string
}

const (
	stepRewrite   = "rewrite"
	stepPersona   = "persona"
	stepDecompose = "decompose"
	stepRoute     = "route"
	stepSingle    = "single"
	stepMulti     = "multi"
	stepFinish    = "finish"
)

func (a *Agent) pipeline() *flow.Flow[*runState] {
	f := flow.New[*runState]()

	f.AddStep(stepRewrite, func(ctx context.Context, st *runState) (*runState, error) {
		st.rewritten = a.rewriter.Rewrite(ctx, st.query, st.history)
		return st, nil
	}, stepPersona)

	f.AddStep(stepPersona, func(ctx context.Context, st *runState) (*runState, error) {
		classified, ok := a.personaClassifier.Classify(ctx, st.rewritten)
		if !ok {
			a.logger.Warn("persona classification failed, using default", "persona", planner.DefaultPersona)
			classified = planner.DefaultPersona
		}
		if st.requestedPersona == PersonaAutomatic {
			st.persona = classified
		} else {
			st.persona = planner.Persona(st.requestedPersona)
		}
		return st, nil
	}, stepDecompose)

	f.AddStep(stepDecompose, func(ctx context.Context, st *runState) (*runState, error) {
		st.plan = a.decomposer.Decompose(ctx, st.rewritten, st.history)
		return st, nil
	}, stepRoute)

	f.AddCondition(stepRoute, func(ctx context.Context, st *runState) (string, error) {
		if !st.plan.RequiresDecomposition || len(st.plan.SubQuestions) <= 1 {
			return stepSingle, nil
		}
		return stepMulti, nil
	}, map[string]string{stepSingle: stepSingle, stepMulti: stepMulti})

	f.AddStep(stepSingle, func(ctx context.Context, st *runState) (*runState, error) {
		a.logger.Info("executing single-step plan", "query", st.plan.SubQuestions[0])
		res, err := a.singleStep(ctx, st.plan.SubQuestions[0], st.persona)
		st.meta = res.meta
		st.toolPlan = res.toolPlan
		st.toolResults = res.toolResults
		st.answer = res.answer
		return st, err
	}, stepFinish)

	f.AddStep(stepMulti, a.multiStep, stepFinish)

	f.AddStep(stepFinish, func(ctx context.Context, st *runState) (*runState, error) {
		if st.requestedPersona == PersonaAutomatic {
			st.answer = fmt.Sprintf("Acting as a **%s**, here is what I found:\n\n%s", st.persona.DisplayName(), st.answer)
		}
		return st, nil
	}, flow.End)

	f.SetStart(stepRewrite)
	return f
}

// stepResult is what one retrieval-and-synthesis pass produces.
type stepResult struct {
	answer      string
	meta        *planner.QueryMetadata
	toolPlan    []planner.ToolPlanItem
	toolResults []router.ToolResult
}

// singleStep answers one self-contained question: classify, plan tools,
// execute them conditionally, rerank the evidence, and synthesize a cited
// answer. A definitive knowledge graph answer bypasses vector search and
// reranking entirely.
func (a *Agent) singleStep(ctx context.Context, query string, persona planner.Persona) (stepResult, error) {
	var res stepResult

	res.meta = a.classifier.Classify(ctx, query)
	if res.meta == nil {
		res.answer = msgUnderstandFailed
		return res, nil
	}

	res.toolPlan = a.toolPlanner.Plan(res.meta, persona)
	if len(res.toolPlan) == 0 {
		res.answer = msgNoStrategy
		return res, nil
	}

	ctx = planner.ContextWithPersona(ctx, persona)

	graphDone := false
	if res.meta.GraphSuitable && planner.Contains(res.toolPlan, planner.ToolGraphQuery) {
		graphResult := a.executePlanned(ctx, planner.ToolGraphQuery, query, res.meta, res.toolPlan)
		res.toolResults = append(res.toolResults, graphResult)
		if graphResult.Success && len(strings.TrimSpace(graphResult.Content)) > graphAnswerMinLen {
			a.logger.Info("knowledge graph gave a definitive answer, skipping vector search and reranking")
			graphDone = true
		}
	}
	if !graphDone && planner.Contains(res.toolPlan, planner.ToolVectorSearch) {
		vectorResult := a.executePlanned(ctx, planner.ToolVectorSearch, query, res.meta, res.toolPlan)
		res.toolResults = append(res.toolResults, vectorResult)
	}

	var docs []string
	for _, tr := range res.toolResults {
		if !tr.Success || strings.TrimSpace(tr.Content) == "" {
			continue
		}
		splitter := "\n"
		if tr.ToolName == planner.ToolVectorSearch {
			splitter = "\n---\n"
		}
		for _, doc := range strings.Split(tr.Content, splitter) {
			if strings.TrimSpace(doc) != "" {
				docs = append(docs, doc)
			}
		}
	}
	if len(docs) == 0 {
		res.answer = msgNothingFound
		return res, nil
	}

	ranked := docs
	if !graphDone {
		var err error
		ranked, err = a.reranker.Rerank(ctx, query, docs)
		if err != nil {
			a.logger.Warn("reranking failed, keeping retrieval order", "error", err)
			ranked = docs
		}
	}
	if len(ranked) == 0 {
		res.answer = msgNothingRelevant
		return res, nil
	}

	evidence, citationLinks := splitCitations(ranked)
	evidenceBlock := formatEvidence(evidence)
	if a.tok != nil {
		evidenceBlock = a.tok.Truncate(evidenceBlock, a.evidenceBudget)
	}

	var prompt string
	if res.meta.Intent == planner.IntentSimpleSummary {
		prompt = strings.ReplaceAll(summarizationPrompt, "{{context}}", evidenceBlock)
	} else {
		prompt = strings.ReplaceAll(directSynthesisPrompt, "{{question}}", query)
		prompt = strings.ReplaceAll(prompt, "{{context}}", evidenceBlock)
	}

	answer, err := a.generate(ctx, a.synthesisModel, prompt)
	if err != nil {
		return res, fmt.Errorf("synthesis failed: %w", err)
	}

	res.answer = strings.TrimSpace(answer)
	if res.meta.Intent != planner.IntentSimpleSummary {
		res.answer = appendReferences(res.answer, citationLinks)
	}
	return res, nil
}

// multiStep researches every retrieval sub-question concurrently, collects
// the observations in plan order, and reasons over the combined scratchpad
// with the larger model.
func (a *Agent) multiStep(ctx context.Context, st *runState) (*runState, error) {
	a.logger.Info("executing multi-step plan", "query", st.rewritten, "steps", len(st.plan.SubQuestions))

	retrieval, logicInstruction := planner.SplitSteps(st.plan)

	results := make([]stepResult, len(retrieval))
	errs := make([]error, len(retrieval))
	var wg sync.WaitGroup
	for i, subQ := range retrieval {
		wg.Add(1)
		go func(i int, subQ string) {
			defer wg.Done()
			results[i], errs[i] = a.singleStep(ctx, subQ, st.persona)
		}(i, subQ)
	}
	wg.Wait()

	scratchpad := make([]string, 0, len(retrieval)+1)
	for i, subQ := range retrieval {
		if errs[i] != nil {
			return st, errs[i]
		}
		scratchpad = append(scratchpad, fmt.Sprintf("Observation for the question '%s':\n%s", subQ, results[i].answer))
		if st.meta == nil {
			st.meta = results[i].meta
			st.toolPlan = results[i].toolPlan
		}
		st.toolResults = append(st.toolResults, results[i].toolResults...)
	}
	if logicInstruction != "" && !containsStep(retrieval, logicInstruction) {
		scratchpad = append(scratchpad, "Final Instruction: "+logicInstruction)
	}

	prompt := strings.ReplaceAll(reasoningSynthesisPrompt, "{{question}}", st.rewritten)
	prompt = strings.ReplaceAll(prompt, "{{scratchpad}}", strings.Join(scratchpad, "\n\n---\n\n"))

	answer, err := a.generate(ctx, a.model, prompt)
	if err != nil {
		return st, fmt.Errorf("reasoning synthesis failed: %w", err)
	}
	st.answer = strings.TrimSpace(answer)
	return st, nil
}

// executePlanned runs a tool and stamps the planner's coverage estimate
// onto the result so trace records show what the plan expected.
func (a *Agent) executePlanned(ctx context.Context, tool, query string, meta *planner.QueryMetadata, plan []planner.ToolPlanItem) router.ToolResult {
	result := a.router.Execute(ctx, tool, query, meta)
	for _, item := range plan {
		if item.ToolName == tool {
			result.EstimatedCoverage = item.EstimatedCoverage
			break
		}
	}
	return result
}

// splitCitations separates each evidence snippet into its body and its
// trailing citation link, keeping the two lists index-aligned.
func splitCitations(docs []string) (evidence, citationLinks []string) {
	evidence = make([]string, len(docs))
	citationLinks = make([]string, len(docs))
	for i, doc := range docs {
		body, link, found := strings.Cut(doc, "\nCitation: ")
		evidence[i] = body
		if found {
			citationLinks[i] = link
		}
	}
	return evidence, citationLinks
}

func formatEvidence(evidence []string) string {
	blocks := make([]string, len(evidence))
	for i, text := range evidence {
		blocks[i] = fmt.Sprintf("EVIDENCE [%d]:\n%s", i+1, text)
	}
	return strings.Join(blocks, "\n\n")
}

func containsStep(steps []string, step string) bool {
	for _, s := range steps {
		if s == step {
			return true
		}
	}
	return false
}
