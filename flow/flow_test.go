package flow

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type pipeState struct {
	log []string
	n   int
}

func TestRunLinearFlow(t *testing.T) {
	f := New[pipeState]()
	f.AddStep("first", func(ctx context.Context, s pipeState) (pipeState, error) {
		s.log = append(s.log, "first")
		return s, nil
	}, "second")
	f.AddStep("second", func(ctx context.Context, s pipeState) (pipeState, error) {
		s.log = append(s.log, "second")
		return s, nil
	}, End)
	f.SetStart("first")

	out, err := f.Run(context.Background(), pipeState{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if strings.Join(out.log, ",") != "first,second" {
		t.Fatalf("unexpected order: %v", out.log)
	}
}

func TestRunConditionBranch(t *testing.T) {
	f := New[pipeState]()
	f.AddStep("classify", func(ctx context.Context, s pipeState) (pipeState, error) {
		s.n = 1
		return s, nil
	}, "route")
	f.AddCondition("route", func(ctx context.Context, s pipeState) (string, error) {
		if s.n == 1 {
			return "single", nil
		}
		return "multi", nil
	}, map[string]string{"single": "single", "multi": "multi"})
	f.AddStep("single", func(ctx context.Context, s pipeState) (pipeState, error) {
		s.log = append(s.log, "single")
		return s, nil
	}, End)
	f.AddStep("multi", func(ctx context.Context, s pipeState) (pipeState, error) {
		s.log = append(s.log, "multi")
		return s, nil
	}, End)
	f.SetStart("classify")

	out, err := f.Run(context.Background(), pipeState{})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(out.log) != 1 || out.log[0] != "single" {
		t.Fatalf("wrong branch taken: %v", out.log)
	}
}

func TestRunUnknownBranchFails(t *testing.T) {
	f := New[pipeState]()
	f.AddCondition("route", func(ctx context.Context, s pipeState) (string, error) {
		return "nowhere", nil
	}, map[string]string{"somewhere": End})
	f.SetStart("route")

	if _, err := f.Run(context.Background(), pipeState{}); err == nil {
		t.Fatal("expected unknown branch error")
	}
}

func TestRunStepErrorStops(t *testing.T) {
	wantErr := errors.New("boom")
	f := New[pipeState]()
	f.AddStep("bad", func(ctx context.Context, s pipeState) (pipeState, error) {
		return s, wantErr
	}, End)
	f.SetStart("bad")

	if _, err := f.Run(context.Background(), pipeState{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped step error, got %v", err)
	}
}

func TestRunDetectsLoops(t *testing.T) {
	f := New[pipeState]()
	f.AddStep("spin", func(ctx context.Context, s pipeState) (pipeState, error) {
		return s, nil
	}, "spin")
	f.SetStart("spin")

	if _, err := f.Run(context.Background(), pipeState{}); err == nil || !strings.Contains(err.Error(), "infinite loop") {
		t.Fatalf("expected loop detection, got %v", err)
	}
}

func TestRunHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := New[pipeState]()
	f.AddStep("never", func(ctx context.Context, s pipeState) (pipeState, error) {
		t.Fatal("step ran after cancellation")
		return s, nil
	}, End)
	f.SetStart("never")

	if _, err := f.Run(ctx, pipeState{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}
