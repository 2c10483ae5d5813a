// Package session keeps the rolling conversation history that feeds the
// query rewriter and decomposer. The history is a bounded list of turns,
// oldest first.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Turn is one exchange in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Roles recorded in conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// History stores conversation turns for one session.
type History interface {
	Turns(ctx context.Context) ([]Turn, error)
	Append(ctx context.Context, turns ...Turn) error
}

// Format renders turns as the line-per-turn transcript the planner prompts
// expect. An empty history renders as the empty string.
func Format(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = fmt.Sprintf("%s: %s", t.Role, t.Content)
	}
	return strings.Join(lines, "\n")
}

// Lines renders turns as individual transcript lines, oldest first.
func Lines(turns []Turn) []string {
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = fmt.Sprintf("%s: %s", t.Role, t.Content)
	}
	return lines
}

// InMemoryHistory is a process-local History with a turn cap. Once the cap
// is reached the oldest turns are evicted.
type InMemoryHistory struct {
	mu       sync.RWMutex
	turns    []Turn
	maxTurns int
}

// NewInMemoryHistory creates a history bounded to maxTurns entries.
// A non-positive maxTurns means unbounded.
func NewInMemoryHistory(maxTurns int) *InMemoryHistory {
	return &InMemoryHistory{maxTurns: maxTurns}
}

// Turns implements History.
func (h *InMemoryHistory) Turns(ctx context.Context) ([]Turn, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out, nil
}

// Append implements History.
func (h *InMemoryHistory) Append(ctx context.Context, turns ...Turn) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns, turns...)
	if h.maxTurns > 0 && len(h.turns) > h.maxTurns {
		h.turns = h.turns[len(h.turns)-h.maxTurns:]
	}
	return nil
}
