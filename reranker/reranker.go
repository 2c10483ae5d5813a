// Package reranker orders retrieved evidence snippets by relevance to a
// query before synthesis. Two strategies are provided: an LLM judge that
// returns a ranked index list, and a cross-encoder HTTP service client.
// Both degrade gracefully; a reranking failure never loses evidence.
package reranker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/medlexica/regagent/llm"
	"github.com/medlexica/regagent/pkg/logging"
	"github.com/medlexica/regagent/pkg/modeljson"
)

// DefaultKeep is how many snippets survive reranking when the strategy
// cannot produce an ordering.
const DefaultKeep = 5

// Reranker orders docs by descending relevance to query. Implementations
// must return a subset (possibly reordered) of the input and never fail
// in a way that discards all evidence.
type Reranker interface {
	Rerank(ctx context.Context, query string, docs []string) ([]string, error)
}

const rankPrompt = `You are a relevance judge for pharmaceutical and regulatory evidence.
Given a question and a numbered list of documents, return a JSON array of
document indices ordered from most to least relevant. Include only documents
that help answer the question. Return ONLY the JSON array.

Question: {{question}}

Documents:
{{documents}}`

// LLMReranker asks a judge model for a ranked index list.
type LLMReranker struct {
	client llm.Client
	opts   llm.Options
	keep   int
	logger *slog.Logger
}

// LLMOption customises an LLMReranker.
type LLMOption func(*LLMReranker)

// WithKeep sets how many documents are kept when the judge fails.
func WithKeep(n int) LLMOption {
	return func(r *LLMReranker) {
		if n > 0 {
			r.keep = n
		}
	}
}

// NewLLMReranker builds a judge-model reranker.
func NewLLMReranker(client llm.Client, opts llm.Options, options ...LLMOption) *LLMReranker {
	r := &LLMReranker{
		client: client,
		opts:   opts,
		keep:   DefaultKeep,
		logger: logging.WithComponent("reranker"),
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Rerank returns docs ordered by the judge model. Out-of-range indices in
// the model output are dropped. On any failure the first keep documents
// are returned in their original order.
func (r *LLMReranker) Rerank(ctx context.Context, query string, docs []string) ([]string, error) {
	if len(docs) <= 1 {
		return docs, nil
	}

	var b strings.Builder
	for i, doc := range docs {
		fmt.Fprintf(&b, "DOCUMENT[%d]:\n%s\n\n", i, doc)
	}
	prompt := strings.ReplaceAll(rankPrompt, "{{question}}", query)
	prompt = strings.ReplaceAll(prompt, "{{documents}}", b.String())

	raw, err := llm.Generate(ctx, r.client, prompt, r.opts)
	if err != nil {
		r.logger.Warn("rerank model failed, keeping original order", "error", err)
		return r.truncate(docs), nil
	}

	indices, err := modeljson.Decode[[]int](raw)
	if err != nil {
		r.logger.Warn("rerank output not a JSON index list", "error", err)
		return r.truncate(docs), nil
	}

	ranked := make([]string, 0, len(*indices))
	seen := make(map[int]bool, len(*indices))
	for _, idx := range *indices {
		if idx < 0 || idx >= len(docs) || seen[idx] {
			continue
		}
		seen[idx] = true
		ranked = append(ranked, docs[idx])
	}
	if len(ranked) == 0 {
		return r.truncate(docs), nil
	}
	return ranked, nil
}

func (r *LLMReranker) truncate(docs []string) []string {
	if len(docs) > r.keep {
		return docs[:r.keep]
	}
	return docs
}
