// Package tokenizer counts and truncates text by model tokens so the
// synthesis prompt stays inside the model's context budget.
package tokenizer

import (
	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer wraps a tiktoken encoding.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

// New resolves an encoding by model name, falling back to treating the
// name as an encoding name (for example "cl100k_base").
func New(name string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, err
		}
	}
	return &Tokenizer{enc: enc}, nil
}

// CountTokens returns the number of tokens in text.
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.enc.Encode(text, nil, nil))
}

// Truncate returns text cut to at most budget tokens. Text within the
// budget is returned unchanged.
func (t *Tokenizer) Truncate(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	ids := t.enc.Encode(text, nil, nil)
	if len(ids) <= budget {
		return text
	}
	return t.enc.Decode(ids[:budget])
}
