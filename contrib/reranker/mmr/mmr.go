// Package mmr reranks evidence with Max Marginal Relevance, trading
// relevance against redundancy so near-duplicate chunks from overlapping
// namespaces do not crowd out distinct evidence.
package mmr

import (
	"context"
	"math"

	"github.com/medlexica/regagent/reranker"
	"github.com/medlexica/regagent/vector"
)

// Reranker implements reranker.Reranker using embedding similarity.
type Reranker struct {
	embedder vector.Embedder
	lambda   float32
	keep     int
}

// Option customises the MMR reranker.
type Option func(*Reranker)

// WithLambda sets the relevance weight between 0 and 1; the remainder
// penalises similarity to already selected documents (default 0.7).
func WithLambda(lambda float32) Option {
	return func(r *Reranker) {
		if lambda > 0 && lambda <= 1 {
			r.lambda = lambda
		}
	}
}

// WithKeep caps how many documents survive reranking.
func WithKeep(n int) Option {
	return func(r *Reranker) {
		if n > 0 {
			r.keep = n
		}
	}
}

// New creates an MMR reranker over the given embedder.
func New(embedder vector.Embedder, opts ...Option) *Reranker {
	r := &Reranker{
		embedder: embedder,
		lambda:   0.7,
		keep:     reranker.DefaultKeep,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rerank implements reranker.Reranker. Embedding failures degrade to
// returning the first keep documents unchanged.
func (r *Reranker) Rerank(ctx context.Context, query string, docs []string) ([]string, error) {
	if len(docs) <= 1 {
		return docs, nil
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return head(docs, r.keep), nil
	}
	docVecs, err := r.embedder.EmbedBatch(ctx, docs)
	if err != nil || len(docVecs) != len(docs) {
		return head(docs, r.keep), nil
	}

	type candidate struct {
		index     int
		relevance float32
	}
	remaining := make([]candidate, len(docs))
	for i := range docs {
		remaining[i] = candidate{index: i, relevance: vector.CosineSimilarity(queryVec, docVecs[i])}
	}

	var selected []string
	var selectedVecs [][]float32
	for len(remaining) > 0 && len(selected) < r.keep {
		bestPos := -1
		bestScore := float32(math.Inf(-1))
		for pos, cand := range remaining {
			var redundancy float32
			for _, picked := range selectedVecs {
				if sim := vector.CosineSimilarity(docVecs[cand.index], picked); sim > redundancy {
					redundancy = sim
				}
			}
			score := r.lambda*cand.relevance - (1-r.lambda)*redundancy
			if score > bestScore {
				bestScore = score
				bestPos = pos
			}
		}
		if bestPos == -1 {
			break
		}
		best := remaining[bestPos]
		selected = append(selected, docs[best.index])
		selectedVecs = append(selectedVecs, docVecs[best.index])
		remaining = append(remaining[:bestPos], remaining[bestPos+1:]...)
	}
	return selected, nil
}

func head(docs []string, n int) []string {
	if len(docs) <= n {
		return docs
	}
	return docs[:n]
}
