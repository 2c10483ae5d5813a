// Package agent orchestrates the full question answering pipeline: query
// rewriting, persona and intent classification, decomposition, budgeted
// tool planning, conditional tool execution, evidence reranking, and
// cited synthesis.
package agent

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/medlexica/regagent/llm"
	"github.com/medlexica/regagent/pkg/logging"
	"github.com/medlexica/regagent/planner"
	"github.com/medlexica/regagent/reranker"
	"github.com/medlexica/regagent/router"
	"github.com/medlexica/regagent/tokenizer"
	"github.com/medlexica/regagent/trace"
)

// PersonaAutomatic asks the pipeline to pick the persona itself.
const PersonaAutomatic = "automatic"

// Fixed user-facing responses for degraded outcomes.
const (
	msgUnderstandFailed = "I had trouble understanding the query."
	msgNoStrategy       = "I don't have a strategy for this query."
	msgNothingFound     = "I searched but could not find any relevant details."
	msgNothingRelevant  = "I found some information, but it did not seem relevant."
	msgHighTraffic      = "I'm sorry, the AI models I rely on are currently experiencing high traffic. Please try your question again in a few moments."
	msgCriticalError    = "I encountered a critical error processing your request. Please check the system logs for more details."
)

// A graph answer shorter than this is treated as noise rather than a
// definitive result.
const graphAnswerMinLen = 10

// Agent runs the question answering pipeline.
type Agent struct {
	model          llm.Client
	synthesisModel llm.Client
	router         *router.Router

	rewriter          *planner.Rewriter
	personaClassifier *planner.PersonaClassifier
	classifier        *planner.Classifier
	decomposer        *planner.Decomposer
	toolPlanner       *planner.ToolPlanner
	reranker          reranker.Reranker

	traceSink      trace.Sink
	tok            *tokenizer.Tokenizer
	evidenceBudget int

	llmOpts llm.Options
	logger  *slog.Logger
	tracer  oteltrace.Tracer
}

// Option customises an Agent.
type Option func(*Agent)

// WithReranker overrides the evidence reranking strategy.
func WithReranker(r reranker.Reranker) Option {
	return func(a *Agent) {
		if r != nil {
			a.reranker = r
		}
	}
}

// WithTraceSink sets where per-run trace records go.
func WithTraceSink(s trace.Sink) Option {
	return func(a *Agent) {
		if s != nil {
			a.traceSink = s
		}
	}
}

// WithWeightTable overrides the persona weight table for tool planning.
func WithWeightTable(w planner.WeightTable) Option {
	return func(a *Agent) {
		if len(w) > 0 {
			a.toolPlanner = planner.NewToolPlanner(w, planner.DefaultCoverageThreshold)
		}
	}
}

// WithCoverageThreshold sets the planner's coverage stopping point.
func WithCoverageThreshold(threshold float64) Option {
	return func(a *Agent) {
		a.toolPlanner = planner.NewToolPlanner(planner.DefaultWeightTable(), threshold)
	}
}

// WithToolPlanner replaces the tool planner wholesale.
func WithToolPlanner(tp *planner.ToolPlanner) Option {
	return func(a *Agent) {
		if tp != nil {
			a.toolPlanner = tp
		}
	}
}

// WithTokenBudget enables evidence truncation to budget tokens.
func WithTokenBudget(tok *tokenizer.Tokenizer, budget int) Option {
	return func(a *Agent) {
		if tok != nil && budget > 0 {
			a.tok = tok
			a.evidenceBudget = budget
		}
	}
}

// WithLLMOptions sets retry and timeout behavior for every model call.
func WithLLMOptions(opts llm.Options) Option {
	return func(a *Agent) {
		a.llmOpts = opts
	}
}

// New builds an Agent. model handles multi-step reasoning synthesis;
// synthesisModel handles classification, planning, and direct synthesis.
func New(model, synthesisModel llm.Client, rt *router.Router, opts ...Option) *Agent {
	a := &Agent{
		model:          model,
		synthesisModel: synthesisModel,
		router:         rt,
		llmOpts:        llm.DefaultOptions(),
		traceSink:      trace.NopSink{},
		logger:         logging.WithComponent("agent"),
		tracer:         otel.Tracer("regagent/agent"),
	}
	for _, opt := range opts {
		opt(a)
	}

	a.rewriter = planner.NewRewriter(synthesisModel, a.llmOpts)
	a.personaClassifier = planner.NewPersonaClassifier(synthesisModel, a.llmOpts)
	a.classifier = planner.NewClassifier(synthesisModel, a.llmOpts)
	a.decomposer = planner.NewDecomposer(synthesisModel, a.llmOpts)
	if a.toolPlanner == nil {
		a.toolPlanner = planner.NewToolPlanner(planner.DefaultWeightTable(), planner.DefaultCoverageThreshold)
	}
	if a.reranker == nil {
		a.reranker = reranker.NewLLMReranker(synthesisModel, a.llmOpts)
	}
	return a
}

// Run answers one query. persona is either a persona key or
// PersonaAutomatic; history is the prior conversation transcript, one
// line per turn. Run never returns an error: every failure mode maps to
// a fixed user-facing message, and exactly one trace record is written
// per call.
func (a *Agent) Run(ctx context.Context, query, persona string, history []string) (answer string) {
	start := time.Now()
	st := &runState{
		query:            query,
		requestedPersona: persona,
		history:          history,
	}

	ctx, span := a.tracer.Start(ctx, "agent.run",
		oteltrace.WithAttributes(attribute.String("persona.requested", persona)))
	defer span.End()

	defer func() {
		resolved := st.persona
		if resolved == "" {
			resolved = planner.Persona(persona)
		}
		a.traceSink.Append(trace.NewRecord(query, resolved, st.meta, st.toolPlan, st.toolResults, answer, time.Since(start)))
	}()
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("panic during agent run", "panic", r)
			answer = msgCriticalError
		}
	}()

	out, err := a.pipeline().Run(ctx, st)
	if err != nil {
		if llm.IsTransient(err) {
			a.logger.Error("model capacity exhausted", "error", err)
			return msgHighTraffic
		}
		a.logger.Error("agent run failed", "error", err)
		return msgCriticalError
	}

	span.SetAttributes(attribute.String("persona.resolved", string(out.persona)))
	return out.answer
}

func (a *Agent) generate(ctx context.Context, client llm.Client, prompt string) (string, error) {
	return llm.Generate(ctx, client, prompt, a.llmOpts)
}
