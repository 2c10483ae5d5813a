package planner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/medlexica/regagent/llm"
	"github.com/medlexica/regagent/pkg/logging"
	"github.com/medlexica/regagent/pkg/modeljson"
)

// rawMetadata mirrors the JSON shape the classification prompt asks for,
// before intent normalization.
type rawMetadata struct {
	Intent        string   `json:"intent"`
	Keywords      []string `json:"keywords"`
	Themes        []string `json:"themes"`
	GraphSuitable bool     `json:"question_is_graph_suitable"`
}

// Classifier extracts structured metadata from a query.
type Classifier struct {
	llm    llm.Client
	opts   llm.Options
	logger *slog.Logger
}

// NewClassifier creates a query classifier backed by the given model.
func NewClassifier(client llm.Client, opts llm.Options) *Classifier {
	return &Classifier{
		llm:    client,
		opts:   opts,
		logger: logging.WithComponent("query_classifier"),
	}
}

// Classify returns the query's metadata, or nil when the model call or the
// output parse fails. A nil result is the single signal the agent uses to
// report "I had trouble understanding the query" and end the step.
func (c *Classifier) Classify(ctx context.Context, query string) *QueryMetadata {
	prompt := strings.ReplaceAll(classificationPrompt, "{{question}}", query)

	raw, err := llm.Generate(ctx, c.llm, prompt, c.opts)
	if err != nil {
		c.logger.Error("query classification failed", "error", err)
		return nil
	}

	parsed, err := modeljson.Decode[rawMetadata](raw)
	if err != nil {
		c.logger.Warn("query classification output unparseable", "error", err, "raw", raw)
		return nil
	}

	meta := &QueryMetadata{
		Intent:        normalizeIntent(parsed.Intent),
		Keywords:      parsed.Keywords,
		Themes:        parsed.Themes,
		GraphSuitable: parsed.GraphSuitable,
	}
	c.logger.Info("query classified",
		"intent", string(meta.Intent),
		"keywords", meta.Keywords,
		"graph_suitable", meta.GraphSuitable,
	)
	return meta
}
