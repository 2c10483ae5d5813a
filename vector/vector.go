// Package vector defines the ports for semantic search over the document
// corpus: an embedding client and a namespace-aware similarity search store.
package vector

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Citation locates the document span a matched chunk came from.
type Citation struct {
	DocumentID string `json:"document_id"`
	Pages      []int  `json:"page_numbers,omitempty"`
	SourceURL  string `json:"source_url,omitempty"`
}

// Markdown renders the citation as the inline markup convention retrieval
// tools embed in evidence, e.g. "[Source: Doc-1, Page: 2](https://...)".
func (c Citation) Markdown() string {
	label := fmt.Sprintf("Source: %s", c.DocumentID)
	if len(c.Pages) > 0 {
		pages := make([]string, len(c.Pages))
		for i, p := range c.Pages {
			pages[i] = fmt.Sprintf("%d", p)
		}
		label += fmt.Sprintf(", Page: %s", strings.Join(pages, ","))
	}
	if c.SourceURL == "" {
		return "[" + label + "]"
	}
	return fmt.Sprintf("[%s](%s)", label, c.SourceURL)
}

// Match is one similarity-search hit.
type Match struct {
	Text     string
	Score    float32
	Citation Citation
}

// SearchPort is the vector index collaborator. Implementations are expected
// to be safe for concurrent use and to treat namespace as a hard partition.
type SearchPort interface {
	// Search returns the topK most similar chunks to the query within the
	// namespace. filter, when non-empty, restricts matches to chunks tagged
	// with at least one of the given theme tags.
	Search(ctx context.Context, query, namespace string, topK int, filter []string) ([]Match, error)
}

// Embedder converts text to vector embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// CosineSimilarity computes the cosine similarity between two vectors of the
// same dimension; mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float32
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / float32(math.Sqrt(float64(normA))*math.Sqrt(float64(normB)))
}
