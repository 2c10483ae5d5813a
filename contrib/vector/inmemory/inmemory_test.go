package inmemory

import (
	"context"
	"testing"

	"github.com/medlexica/regagent/vector"
)

// hashEmbedder maps fixed strings to fixed vectors so similarity ordering
// is deterministic.
type hashEmbedder struct {
	vectors map[string][]float32
}

func (e *hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func (e *hashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (e *hashEmbedder) Dimension() int { return 3 }

func testStore(t *testing.T) *Store {
	t.Helper()
	store := New(&hashEmbedder{vectors: map[string][]float32{
		"efficacy evidence": {1, 0, 0},
		"cost data":         {0, 1, 0},
		"efficacy?":         {0.9, 0.1, 0},
	}})
	err := store.Upsert(context.Background(),
		Chunk{
			ID: "c1", Namespace: "pbac-clinical", Text: "efficacy evidence",
			Tags:     []string{"clinical_evidence"},
			Citation: vector.Citation{DocumentID: "Doc-1", Pages: []int{3}},
		},
		Chunk{
			ID: "c2", Namespace: "pbac-clinical", Text: "cost data",
			Tags:     []string{"cost_effectiveness"},
			Citation: vector.Citation{DocumentID: "Doc-2"},
		},
		Chunk{
			ID: "c3", Namespace: "pbac-economic", Text: "cost data",
			Citation: vector.Citation{DocumentID: "Doc-3"},
		},
	)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	return store
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	store := testStore(t)

	matches, err := store.Search(context.Background(), "efficacy?", "pbac-clinical", 5, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Text != "efficacy evidence" {
		t.Errorf("top match = %q, want efficacy evidence", matches[0].Text)
	}
	if matches[0].Score <= matches[1].Score {
		t.Errorf("matches not ordered by score: %v >= %v expected", matches[0].Score, matches[1].Score)
	}
	if matches[0].Citation.DocumentID != "Doc-1" {
		t.Errorf("citation lost: %+v", matches[0].Citation)
	}
}

func TestSearchRespectsNamespace(t *testing.T) {
	store := testStore(t)

	matches, err := store.Search(context.Background(), "cost data", "pbac-economic", 5, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Citation.DocumentID != "Doc-3" {
		t.Fatalf("expected only the economic namespace chunk, got %+v", matches)
	}
}

func TestSearchTagFilter(t *testing.T) {
	store := testStore(t)

	matches, err := store.Search(context.Background(), "efficacy?", "pbac-clinical", 5, []string{"cost_effectiveness"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Text != "cost data" {
		t.Fatalf("tag filter not applied: %+v", matches)
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	store := testStore(t)

	err := store.Upsert(context.Background(), Chunk{
		ID: "c1", Namespace: "pbac-clinical", Text: "cost data",
	})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if got := store.Count("pbac-clinical"); got != 2 {
		t.Errorf("Count = %d, want 2 after replace", got)
	}
}
