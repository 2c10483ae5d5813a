package reranker

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/medlexica/regagent/llm"
)

type stubLLM struct {
	response string
	err      error
	calls    int
}

func (s *stubLLM) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls++
	return s.response, s.err
}

func testOpts() llm.Options {
	return llm.Options{Timeout: time.Second, MaxRetries: 0, BaseDelay: time.Millisecond}
}

func TestLLMRerankOrdersByIndices(t *testing.T) {
	r := NewLLMReranker(&stubLLM{response: "[2, 0]"}, testOpts())

	got, err := r.Rerank(context.Background(), "q", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Rerank error: %v", err)
	}
	if len(got) != 2 || got[0] != "c" || got[1] != "a" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestLLMRerankDropsOutOfRange(t *testing.T) {
	r := NewLLMReranker(&stubLLM{response: "[5, 1, -1, 1]"}, testOpts())

	got, err := r.Rerank(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Rerank error: %v", err)
	}
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected only in-range unique index kept, got %v", got)
	}
}

func TestLLMRerankFailureKeepsFirstFive(t *testing.T) {
	client := &stubLLM{err: llm.ErrUnexpected}
	r := NewLLMReranker(client, testOpts())

	docs := []string{"a", "b", "c", "d", "e", "f", "g"}
	got, err := r.Rerank(context.Background(), "q", docs)
	if err != nil {
		t.Fatalf("Rerank error: %v", err)
	}
	if len(got) != DefaultKeep {
		t.Fatalf("expected %d docs, got %d", DefaultKeep, len(got))
	}
	for i, doc := range got {
		if doc != docs[i] {
			t.Fatalf("order changed on fallback: %v", got)
		}
	}
}

func TestLLMRerankMalformedOutputFallsBack(t *testing.T) {
	r := NewLLMReranker(&stubLLM{response: "the best document is number two"}, testOpts())

	got, err := r.Rerank(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Rerank error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" {
		t.Fatalf("expected original order, got %v", got)
	}
}

func TestLLMRerankSingleDocSkipsModel(t *testing.T) {
	client := &stubLLM{response: "[0]"}
	r := NewLLMReranker(client, testOpts())

	got, _ := r.Rerank(context.Background(), "q", []string{"only"})
	if len(got) != 1 || client.calls != 0 {
		t.Fatalf("expected passthrough without a model call")
	}
}

func TestCrossEncoderRanksByScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"index":0,"score":0.2},{"index":1,"score":0.9}]}`))
	}))
	defer srv.Close()

	ce := NewCrossEncoder("key", WithEndpoint(srv.URL), WithMinScore(0.5))
	got, err := ce.Rerank(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Rerank error: %v", err)
	}
	if len(got) != 1 || got[0] != "b" {
		t.Fatalf("expected low scores filtered, got %v", got)
	}
}

func TestCrossEncoderServiceFailureKeepsInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ce := NewCrossEncoder("key", WithEndpoint(srv.URL))
	got, err := ce.Rerank(context.Background(), "q", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Rerank error: %v", err)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("expected input unchanged, got %v", got)
	}
}
