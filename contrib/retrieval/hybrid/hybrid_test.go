package hybrid

import (
	"context"
	"testing"

	"github.com/medlexica/regagent/contrib/vector/inmemory"
	"github.com/medlexica/regagent/vector"
)

// flatEmbedder gives every text the same vector so vector scores tie and
// keyword scores decide the ordering.
type flatEmbedder struct{}

func (flatEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0, 0}, nil
}

func (flatEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

func (flatEmbedder) Dimension() int { return 3 }

func seed(t *testing.T, s *Store) {
	t.Helper()
	err := s.Upsert(context.Background(),
		inmemory.Chunk{
			ID: "c1", Namespace: "pbac-general",
			Text:     "The sponsor for esketamine nasal spray is Janssen-Cilag.",
			Citation: vector.Citation{DocumentID: "Doc-1"},
		},
		inmemory.Chunk{
			ID: "c2", Namespace: "pbac-general",
			Text:     "The committee deferred its decision pending further analysis.",
			Citation: vector.Citation{DocumentID: "Doc-2"},
		},
		inmemory.Chunk{
			ID: "c3", Namespace: "pbac-general",
			Text: "General background on the benefits scheme listing process.",
			Tags: []string{"process"},
		},
	)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
}

func TestSearchKeywordBoostBreaksVectorTie(t *testing.T) {
	s := New(flatEmbedder{})
	seed(t, s)

	matches, err := s.Search(context.Background(), "esketamine sponsor", "pbac-general", 3, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no matches")
	}
	if matches[0].Citation.DocumentID != "Doc-1" {
		t.Errorf("top match = %+v, want the chunk naming esketamine and its sponsor", matches[0])
	}
}

func TestSearchUnknownNamespaceEmpty(t *testing.T) {
	s := New(flatEmbedder{})
	seed(t, s)

	matches, err := s.Search(context.Background(), "esketamine", "pbac-clinical", 3, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches outside the namespace, got %v", matches)
	}
}

func TestSearchTagFilterAppliesToKeywordHits(t *testing.T) {
	s := New(flatEmbedder{})
	seed(t, s)

	matches, err := s.Search(context.Background(), "listing process", "pbac-general", 3, []string{"process"})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for _, m := range matches {
		if m.Citation.DocumentID == "Doc-1" || m.Citation.DocumentID == "Doc-2" {
			t.Errorf("untagged chunk leaked through filter: %+v", m)
		}
	}
}

func TestSearchRespectsTopK(t *testing.T) {
	s := New(flatEmbedder{})
	seed(t, s)

	matches, err := s.Search(context.Background(), "committee", "pbac-general", 1, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(matches))
	}
}
