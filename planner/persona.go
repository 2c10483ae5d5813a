package planner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/medlexica/regagent/llm"
	"github.com/medlexica/regagent/pkg/logging"
)

// PersonaClassifier maps a standalone query to the closed persona set.
type PersonaClassifier struct {
	llm    llm.Client
	opts   llm.Options
	logger *slog.Logger
}

// NewPersonaClassifier creates a persona classifier backed by the given model.
func NewPersonaClassifier(client llm.Client, opts llm.Options) *PersonaClassifier {
	return &PersonaClassifier{
		llm:    client,
		opts:   opts,
		logger: logging.WithComponent("persona_classifier"),
	}
}

// Classify returns the best-fitting persona for the query. An invalid model
// token is recovered locally with the default persona (ok=true); only an
// exhausted model call reports ok=false so the caller can apply its own
// default-and-continue policy.
func (c *PersonaClassifier) Classify(ctx context.Context, query string) (Persona, bool) {
	prompt := strings.ReplaceAll(personaPrompt, "{{question}}", query)

	raw, err := llm.Generate(ctx, c.llm, prompt, c.opts)
	if err != nil {
		c.logger.Error("persona classification failed", "error", err)
		return "", false
	}

	key := Persona(strings.Trim(strings.ToLower(raw), "`\" \n"))
	if !key.Valid() {
		c.logger.Warn("persona classification returned invalid key, falling back to default",
			"key", string(key), "default", string(DefaultPersona))
		return DefaultPersona, true
	}
	c.logger.Info("query classified for persona", "persona", string(key))
	return key, true
}
