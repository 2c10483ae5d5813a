// Package hybrid blends semantic vector search with a lightweight BM25
// keyword index. Committee papers are dense with exact drug names and
// programme codes that keyword matching catches even when embeddings
// drift, so blended scores recover lexical hits pure vector search ranks
// low.
package hybrid

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/medlexica/regagent/contrib/vector/inmemory"
	"github.com/medlexica/regagent/vector"
)

// Option customises the hybrid store.
type Option func(*Store)

// WithWeights sets the contribution of vector vs keyword scores
// (defaults 0.7/0.3).
func WithWeights(vectorWeight, keywordWeight float32) Option {
	return func(s *Store) {
		if vectorWeight >= 0 && keywordWeight >= 0 {
			s.vectorWeight = vectorWeight
			s.keywordWeight = keywordWeight
		}
	}
}

// WithKeywordTopK caps how many keyword hits merge into the result
// (default 6).
func WithKeywordTopK(k int) Option {
	return func(s *Store) {
		if k > 0 {
			s.keywordTopK = k
		}
	}
}

// Store implements vector.SearchPort over a vector index and a BM25
// index kept in lockstep by Upsert.
type Store struct {
	inner         *inmemory.Store
	vectorWeight  float32
	keywordWeight float32
	keywordTopK   int

	mu      sync.RWMutex
	indexes map[string]*bm25Index
	chunks  map[string]map[string]inmemory.Chunk
}

// New creates a hybrid store over the given embedder.
func New(embedder vector.Embedder, opts ...Option) *Store {
	s := &Store{
		inner:         inmemory.New(embedder),
		vectorWeight:  0.7,
		keywordWeight: 0.3,
		keywordTopK:   6,
		indexes:       make(map[string]*bm25Index),
		chunks:        make(map[string]map[string]inmemory.Chunk),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Upsert adds the chunks to both the vector and the keyword index.
func (s *Store) Upsert(ctx context.Context, chunks ...inmemory.Chunk) error {
	if err := s.inner.Upsert(ctx, chunks...); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range chunks {
		idx := s.indexes[c.Namespace]
		if idx == nil {
			idx = newBM25()
			s.indexes[c.Namespace] = idx
		}
		ns := s.chunks[c.Namespace]
		if ns == nil {
			ns = make(map[string]inmemory.Chunk)
			s.chunks[c.Namespace] = ns
		}
		if _, exists := ns[c.ID]; !exists {
			idx.add(c.ID, c.Text)
		}
		ns[c.ID] = c
	}
	return nil
}

// Search implements vector.SearchPort with blended scores.
func (s *Store) Search(ctx context.Context, query, namespace string, topK int, filter []string) ([]vector.Match, error) {
	if topK <= 0 {
		topK = 10
	}
	vecMatches, err := s.inner.Search(ctx, query, namespace, topK, filter)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	idx := s.indexes[namespace]
	ns := s.chunks[namespace]
	s.mu.RUnlock()

	type blended struct {
		match vector.Match
		score float32
	}
	merged := make(map[string]blended)
	for _, m := range vecMatches {
		merged[m.Text] = blended{match: m, score: m.Score * s.vectorWeight}
	}
	if idx != nil {
		for _, hit := range idx.search(query, s.keywordTopK) {
			chunk, ok := ns[hit.id]
			if !ok || !matchesFilter(chunk.Tags, filter) {
				continue
			}
			entry, ok := merged[chunk.Text]
			if !ok {
				entry = blended{match: vector.Match{Text: chunk.Text, Citation: chunk.Citation}}
			}
			entry.score += hit.score * s.keywordWeight
			merged[chunk.Text] = entry
		}
	}

	out := make([]vector.Match, 0, len(merged))
	for _, b := range merged {
		b.match.Score = b.score
		out = append(out, b.match)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
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

type bm25Index struct {
	docFreq  map[string]int
	postings map[string]map[string]int
	lengths  map[string]int
	total    int
	count    int
	k1       float64
	b        float64
}

var termRegex = regexp.MustCompile(`\p{L}[\p{L}\p{M}]*|\p{N}+`)

func newBM25() *bm25Index {
	return &bm25Index{
		docFreq:  make(map[string]int),
		postings: make(map[string]map[string]int),
		lengths:  make(map[string]int),
		k1:       1.6,
		b:        0.75,
	}
}

func (x *bm25Index) add(id, text string) {
	terms := tokenize(text)
	if len(terms) == 0 {
		return
	}
	x.count++
	x.lengths[id] = len(terms)
	x.total += len(terms)

	seen := make(map[string]struct{})
	for _, term := range terms {
		if x.postings[term] == nil {
			x.postings[term] = make(map[string]int)
		}
		x.postings[term][id]++
		if _, ok := seen[term]; !ok {
			x.docFreq[term]++
			seen[term] = struct{}{}
		}
	}
}

type keywordHit struct {
	id    string
	score float32
}

func (x *bm25Index) search(query string, limit int) []keywordHit {
	terms := tokenize(query)
	if len(terms) == 0 || x.count == 0 {
		return nil
	}
	avgLen := float64(x.total) / float64(x.count)
	scores := make(map[string]float64)
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		postings := x.postings[term]
		if len(postings) == 0 {
			continue
		}
		df := float64(x.docFreq[term])
		idf := math.Log((float64(x.count)-df+0.5)/(df+0.5) + 1)
		for id, tf := range postings {
			docLen := float64(x.lengths[id])
			num := float64(tf) * (x.k1 + 1)
			den := float64(tf) + x.k1*(1-x.b+x.b*(docLen/avgLen))
			scores[id] += idf * (num / den)
		}
	}
	hits := make([]keywordHit, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, keywordHit{id: id, score: float32(score)})
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

func tokenize(text string) []string {
	return termRegex.FindAllString(strings.ToLower(text), -1)
}
