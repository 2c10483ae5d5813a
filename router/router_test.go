package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/medlexica/regagent/planner"
)

func TestExecuteUnknownTool(t *testing.T) {
	r := New()

	res := r.Execute(context.Background(), "pdf_live", "q", &planner.QueryMetadata{})
	if res.Success {
		t.Fatal("expected failure for unregistered tool")
	}
	if res.Content != "[Error: Tool not implemented]" {
		t.Fatalf("unexpected content: %q", res.Content)
	}
	if res.ToolName != "pdf_live" {
		t.Fatalf("unexpected tool name: %q", res.ToolName)
	}
}

func TestExecuteAbsorbsErrors(t *testing.T) {
	r := New()
	r.Register("broken", func(ctx context.Context, q string, m *planner.QueryMetadata) (ToolResult, error) {
		return ToolResult{}, errors.New("backend unreachable")
	})

	res := r.Execute(context.Background(), "broken", "q", &planner.QueryMetadata{})
	if res.Success {
		t.Fatal("expected failed result")
	}
	if !strings.Contains(res.Content, "backend unreachable") {
		t.Fatalf("expected error description in content, got %q", res.Content)
	}
}

func TestExecuteAbsorbsPanics(t *testing.T) {
	r := New()
	r.Register("panicky", func(ctx context.Context, q string, m *planner.QueryMetadata) (ToolResult, error) {
		panic("nil driver")
	})

	res := r.Execute(context.Background(), "panicky", "q", &planner.QueryMetadata{})
	if res.Success {
		t.Fatal("expected failed result from panicking tool")
	}
	if !strings.Contains(res.Content, "nil driver") {
		t.Fatalf("expected panic description in content, got %q", res.Content)
	}
}

func TestExecuteSuccessStampsName(t *testing.T) {
	r := New()
	r.Register("vector_search", func(ctx context.Context, q string, m *planner.QueryMetadata) (ToolResult, error) {
		return ToolResult{Success: true, Content: "snippet"}, nil
	})

	res := r.Execute(context.Background(), "vector_search", "q", &planner.QueryMetadata{})
	if !res.Success || res.ToolName != "vector_search" || res.Content != "snippet" {
		t.Fatalf("unexpected result: %#v", res)
	}
}
