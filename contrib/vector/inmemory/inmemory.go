// Package inmemory is a map-backed corpus index for examples and tests.
// It implements the same Upsert/Search surface as the pgvector store
// without requiring a database.
package inmemory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/medlexica/regagent/vector"
)

// Chunk is one ingested corpus fragment.
type Chunk struct {
	ID        string
	Namespace string
	Text      string
	Tags      []string
	Citation  vector.Citation
}

type entry struct {
	chunk     Chunk
	embedding []float32
}

// Store keeps embedded chunks in memory, partitioned by namespace.
type Store struct {
	mu       sync.RWMutex
	embedder vector.Embedder
	entries  map[string]map[string]entry
}

// New creates an empty Store using the given embedder.
func New(embedder vector.Embedder) *Store {
	return &Store{
		embedder: embedder,
		entries:  make(map[string]map[string]entry),
	}
}

// Upsert embeds and stores the chunks, replacing entries with the same ID
// within a namespace.
func (s *Store) Upsert(ctx context.Context, chunks ...Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		if c.ID == "" {
			return fmt.Errorf("chunk %d has no ID", i)
		}
		texts[i] = c.Text
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return fmt.Errorf("expected %d embeddings, got %d", len(chunks), len(embeddings))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range chunks {
		ns := s.entries[c.Namespace]
		if ns == nil {
			ns = make(map[string]entry)
			s.entries[c.Namespace] = ns
		}
		ns[c.ID] = entry{chunk: c, embedding: embeddings[i]}
	}
	return nil
}

// Search implements vector.SearchPort.
func (s *Store) Search(ctx context.Context, query, namespace string, topK int, filter []string) ([]vector.Match, error) {
	if topK <= 0 {
		topK = 10
	}
	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := make([]vector.Match, 0, len(s.entries[namespace]))
	for _, e := range s.entries[namespace] {
		if !matchesFilter(e.chunk.Tags, filter) {
			continue
		}
		matches = append(matches, vector.Match{
			Text:     e.chunk.Text,
			Score:    vector.CosineSimilarity(queryVec, e.embedding),
			Citation: e.chunk.Citation,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Count returns the number of chunks stored in the namespace.
func (s *Store) Count(namespace string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries[namespace])
}

func matchesFilter(tags, filter []string) bool {
	if len(filter) == 0 {
		return true
	}
	for _, f := range filter {
		for _, t := range tags {
			if t == f {
				return true
			}
		}
	}
	return false
}
