// Package flow is a small state-machine engine for sequential pipelines
// with conditional branches. Steps transform a typed state value; a
// condition picks the next step by name. There is no parallel fan-out at
// the engine level, steps run their own goroutines when they need them.
package flow

import (
	"context"
	"fmt"
)

// End is the terminal transition target. Reaching it stops the run.
const End = "end"

// StepFunc executes one pipeline step and returns the updated state.
type StepFunc[S any] func(context.Context, S) (S, error)

// ConditionFunc inspects state and returns the label of the branch to take.
type ConditionFunc[S any] func(context.Context, S) (string, error)

type node[S any] struct {
	name     string
	run      StepFunc[S]
	cond     ConditionFunc[S]
	branches map[string]string
	next     string
}

// Flow is a directed pipeline of named steps over state type S.
type Flow[S any] struct {
	nodes     map[string]*node[S]
	start     string
	maxVisits int
}

// New creates an empty flow.
func New[S any]() *Flow[S] {
	return &Flow[S]{
		nodes:     make(map[string]*node[S]),
		maxVisits: 10,
	}
}

// AddStep registers a step that always transitions to next. Wiring errors
// are programmer mistakes and panic at construction time.
func (f *Flow[S]) AddStep(name string, fn StepFunc[S], next string) {
	if name == "" {
		panic("step name cannot be empty")
	}
	if fn == nil {
		panic(fmt.Sprintf("step %s must have a non-nil function", name))
	}
	if next == "" {
		panic(fmt.Sprintf("step %s must name a next step", name))
	}
	if _, exists := f.nodes[name]; exists {
		panic(fmt.Sprintf("step %s already exists", name))
	}
	f.nodes[name] = &node[S]{name: name, run: fn, next: next}
}

// AddCondition registers a branch point. The condition's returned label is
// looked up in branches to pick the next step.
func (f *Flow[S]) AddCondition(name string, cond ConditionFunc[S], branches map[string]string) {
	if name == "" {
		panic("condition name cannot be empty")
	}
	if cond == nil {
		panic(fmt.Sprintf("condition %s must have a non-nil function", name))
	}
	if len(branches) == 0 {
		panic(fmt.Sprintf("condition %s must have branches", name))
	}
	if _, exists := f.nodes[name]; exists {
		panic(fmt.Sprintf("step %s already exists", name))
	}
	f.nodes[name] = &node[S]{name: name, cond: cond, branches: branches}
}

// SetStart names the entry step.
func (f *Flow[S]) SetStart(name string) {
	if _, exists := f.nodes[name]; !exists {
		panic(fmt.Sprintf("step %s not found", name))
	}
	f.start = name
}

// Run drives the flow from the start step until End, returning the final
// state. A step revisited more than maxVisits times aborts the run.
func (f *Flow[S]) Run(ctx context.Context, initial S) (S, error) {
	state := initial
	if f.start == "" {
		return state, fmt.Errorf("start step not set")
	}

	visited := make(map[string]int)
	current := f.start
	for current != End {
		if err := ctx.Err(); err != nil {
			return state, err
		}

		n, exists := f.nodes[current]
		if !exists {
			return state, fmt.Errorf("step %s not found", current)
		}
		visited[current]++
		if visited[current] > f.maxVisits {
			return state, fmt.Errorf("infinite loop detected at step %s", current)
		}

		if n.cond != nil {
			label, err := n.cond(ctx, state)
			if err != nil {
				return state, fmt.Errorf("error evaluating condition at step %s: %w", n.name, err)
			}
			next, ok := n.branches[label]
			if !ok {
				return state, fmt.Errorf("condition %s returned unknown branch %q", n.name, label)
			}
			current = next
			continue
		}

		var err error
		state, err = n.run(ctx, state)
		if err != nil {
			return state, fmt.Errorf("error executing step %s: %w", n.name, err)
		}
		current = n.next
	}
	return state, nil
}
