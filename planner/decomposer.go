package planner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/medlexica/regagent/llm"
	"github.com/medlexica/regagent/pkg/logging"
	"github.com/medlexica/regagent/pkg/modeljson"
)

// logicKeywords mark a decomposition sub-question as a combining instruction
// rather than a retrieval step.
var logicKeywords = []string{"identify", "compare", "contrast", "common", "difference", "both"}

// Decomposer decides whether a query needs splitting into independent
// retrieval sub-questions plus a final combining instruction.
type Decomposer struct {
	llm    llm.Client
	opts   llm.Options
	logger *slog.Logger
}

// NewDecomposer creates a decomposer backed by the given model.
func NewDecomposer(client llm.Client, opts llm.Options) *Decomposer {
	return &Decomposer{
		llm:    client,
		opts:   opts,
		logger: logging.WithComponent("decomposer"),
	}
}

// Decompose returns the execution plan for the query. Decomposition failure
// never blocks answering: any model or parse problem degrades to the
// single-step plan containing only the original query.
func (d *Decomposer) Decompose(ctx context.Context, query string, history []string) Plan {
	single := Plan{RequiresDecomposition: false, SubQuestions: []string{query}}

	prompt := strings.ReplaceAll(decompositionPrompt, "{{chat_history}}", strings.Join(history, "\n- "))
	prompt = strings.ReplaceAll(prompt, "{{question}}", query)

	raw, err := llm.Generate(ctx, d.llm, prompt, d.opts)
	if err != nil {
		d.logger.Warn("decomposition failed, degrading to single-step plan", "error", err)
		return single
	}

	parsed, err := modeljson.Decode[Plan](raw)
	if err != nil {
		d.logger.Warn("decomposition output unparseable, degrading to single-step plan", "error", err)
		return single
	}
	if len(parsed.SubQuestions) == 0 {
		return single
	}
	d.logger.Info("decomposition plan produced",
		"requires_decomposition", parsed.RequiresDecomposition,
		"steps", len(parsed.SubQuestions),
	)
	return *parsed
}

// SplitSteps separates a decomposition plan into retrieval steps and an
// optional final combining instruction. A sub-question containing a
// comparison keyword is treated as the logic instruction; if that
// classification would leave no retrieval steps at all, every sub-question is
// executed as retrieval instead.
func SplitSteps(plan Plan) (retrieval []string, logicInstruction string) {
	for _, sub := range plan.SubQuestions {
		if isLogicInstruction(sub) {
			logicInstruction = sub
		} else {
			retrieval = append(retrieval, sub)
		}
	}
	if len(retrieval) == 0 && logicInstruction != "" {
		return plan.SubQuestions, logicInstruction
	}
	return retrieval, logicInstruction
}

func isLogicInstruction(question string) bool {
	lower := strings.ToLower(question)
	for _, kw := range logicKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
