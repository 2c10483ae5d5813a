package planner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/medlexica/regagent/llm"
	"github.com/medlexica/regagent/pkg/logging"
)

// anaphoraTriggers are the words whose presence suggests the query leans on
// earlier conversation turns. A query containing none of them is already
// standalone and skips the model call entirely.
var anaphoraTriggers = map[string]struct{}{
	"it": {}, "its": {}, "they": {}, "them": {},
	"that": {}, "those": {}, "this": {}, "these": {},
}

// Rewriter resolves conversational coreference in the latest user utterance.
type Rewriter struct {
	llm    llm.Client
	opts   llm.Options
	logger *slog.Logger
}

// NewRewriter creates a rewriter backed by the given model client.
func NewRewriter(client llm.Client, opts llm.Options) *Rewriter {
	return &Rewriter{
		llm:    client,
		opts:   opts,
		logger: logging.WithComponent("query_rewriter"),
	}
}

// Rewrite returns a standalone version of query. It never fails: on empty
// history, on a standalone query, or on any model problem the original query
// comes back unchanged.
func (r *Rewriter) Rewrite(ctx context.Context, query string, history []string) string {
	if len(history) == 0 || r.llm == nil {
		return query
	}
	if !containsAnaphora(query) {
		r.logger.Debug("query already standalone, skipping rewrite", "query", query)
		return query
	}

	prompt := strings.ReplaceAll(rewritePrompt, "{{chat_history}}", strings.Join(history, "\n  - "))
	prompt = strings.ReplaceAll(prompt, "{{question}}", query)

	rewritten, err := llm.Generate(ctx, r.llm, prompt, r.opts)
	if err != nil {
		r.logger.Error("query rewrite failed, using original query", "error", err)
		return query
	}
	if rewritten == "" {
		r.logger.Warn("query rewrite produced empty text, using original query")
		return query
	}
	r.logger.Info("query rewritten", "original", query, "rewritten", rewritten)
	return rewritten
}

func containsAnaphora(query string) bool {
	for _, word := range strings.Fields(strings.ToLower(query)) {
		word = strings.Trim(word, ".,;:!?\"'()")
		if _, ok := anaphoraTriggers[word]; ok {
			return true
		}
	}
	return false
}
