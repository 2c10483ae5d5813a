package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type scriptedClient struct {
	calls     int
	responses []string
	errs      []error
}

func (s *scriptedClient) Generate(ctx context.Context, prompt string) (string, error) {
	idx := s.calls
	s.calls++
	if idx >= len(s.responses) {
		idx = len(s.responses) - 1
	}
	return s.responses[idx], s.errs[idx]
}

func TestGenerateRetriesTransient(t *testing.T) {
	client := &scriptedClient{
		responses: []string{"", "", "  recovered  "},
		errs:      []error{fmt.Errorf("%w: 503", ErrTransient), fmt.Errorf("%w: 503", ErrTransient), nil},
	}
	opts := Options{Timeout: time.Second, MaxRetries: 2, BaseDelay: time.Millisecond}

	got, err := Generate(context.Background(), client, "q", opts)
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "recovered" {
		t.Fatalf("expected trimmed response, got %q", got)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", client.calls)
	}
}

func TestGenerateStopsOnUnexpected(t *testing.T) {
	client := &scriptedClient{
		responses: []string{""},
		errs:      []error{fmt.Errorf("%w: bad request", ErrUnexpected)},
	}
	opts := Options{Timeout: time.Second, MaxRetries: 3, BaseDelay: time.Millisecond}

	_, err := Generate(context.Background(), client, "q", opts)
	if !errors.Is(err, ErrUnexpected) {
		t.Fatalf("expected ErrUnexpected, got %v", err)
	}
	if client.calls != 1 {
		t.Fatalf("expected a single attempt, got %d", client.calls)
	}
}

func TestGenerateExhaustsRetryBudget(t *testing.T) {
	client := &scriptedClient{
		responses: []string{"", "", ""},
		errs:      []error{ErrTransient, ErrTransient, ErrTransient},
	}
	opts := Options{Timeout: time.Second, MaxRetries: 2, BaseDelay: time.Millisecond}

	_, err := Generate(context.Background(), client, "q", opts)
	if !IsTransient(err) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if client.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", client.calls)
	}
}

func TestGenerateNilClient(t *testing.T) {
	_, err := Generate(context.Background(), nil, "q", Options{})
	if !errors.Is(err, ErrUnexpected) {
		t.Fatalf("expected ErrUnexpected for nil client, got %v", err)
	}
}
