// Package modeljson extracts structured payloads from free-form model output.
//
// Generative models asked for JSON reply in one of three shapes: a fenced
// ```json code block, raw JSON text, or prose that happens to contain a JSON
// value. Decode walks that fallback chain so every caller that parses model
// output shares one tolerant path.
package modeljson

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decode tries to unmarshal the raw model output into T after stripping fences
// and locating the first JSON value in the text.
func Decode[T any](raw string) (*T, error) {
	clean := Sanitize(raw)
	var out T
	if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("decode model JSON: %w", err)
	}
	return &out, nil
}

// Sanitize returns the most plausible JSON payload inside raw: the contents of
// a fenced code block if present, otherwise the first balanced JSON object or
// array, otherwise the trimmed input.
func Sanitize(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = trimmed[3:]
		trimmed = strings.TrimPrefix(trimmed, "json")
		trimmed = strings.TrimPrefix(trimmed, "JSON")
		if idx := strings.Index(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		return strings.TrimSpace(trimmed)
	}
	if json.Valid([]byte(trimmed)) {
		return trimmed
	}
	if block := firstJSONValue(trimmed); block != "" {
		return block
	}
	return trimmed
}

// firstJSONValue scans for the first balanced {...} or [...] region that
// parses as JSON. Candidate start positions are tried in order, so prose
// containing a stray brace before the real payload does not end the search.
func firstJSONValue(text string) string {
	for start := 0; start < len(text); start++ {
		open := text[start]
		if open != '{' && open != '[' {
			continue
		}
		if candidate := balancedFrom(text, start, open); candidate != "" {
			return candidate
		}
	}
	return ""
}

func balancedFrom(text string, start int, open byte) string {
	var close byte = '}'
	if open == '[' {
		close = ']'
	}
	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == open:
			depth++
		case c == close:
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate
				}
				return ""
			}
		}
	}
	return ""
}
