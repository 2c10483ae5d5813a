package kg

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/medlexica/regagent/llm"
	"github.com/medlexica/regagent/pkg/logging"
)

// ErrNotAnswerable is returned when the model judges the question cannot be
// answered from the graph schema. Callers treat it as "graph tool has nothing
// to offer", not as a failure of the generation itself.
var ErrNotAnswerable = errors.New("question not answerable from graph schema")

const cypherPrompt = `You are an expert Neo4j Cypher query developer. Convert the user's question into a single, valid, read-only Cypher query based on the provided graph schema.

Live graph schema:
{{schema}}

CRITICAL instructions:
1. Query against the 'name_normalized' property for all WHERE clauses, with the user's input lowercased. Example: WHERE a.name_normalized = 'abaloparatide'.
2. The query MUST be read-only (MATCH and RETURN only). Never use CREATE, MERGE, SET or DELETE.
3. If possible, return a path p using RETURN p to show the full context of the connection.
4. If the question cannot be answered with the given schema, or is not a question for a graph database, return the single word: NONE.
5. Output ONLY the Cypher query or the word NONE. No explanations, no markdown fences.

Example question: "What company sponsors Abaloparatide?"
Example valid query: MATCH p=(drug:Entity)-[:HASSPONSOR]->(sponsor:Entity) WHERE drug.name_normalized = 'abaloparatide' RETURN p

Question: {{question}}`

// CypherGenerator produces read-only structured queries from natural
// language, grounded on the live graph schema.
type CypherGenerator struct {
	llm    llm.Client
	opts   llm.Options
	logger *slog.Logger
}

// NewCypherGenerator creates a generator backed by the given model.
func NewCypherGenerator(client llm.Client, opts llm.Options) *CypherGenerator {
	return &CypherGenerator{
		llm:    client,
		opts:   opts,
		logger: logging.WithComponent("cypher_generator"),
	}
}

// Generate returns a structured query for the question, ErrNotAnswerable
// when the model emits the NONE sentinel, or the model error.
func (g *CypherGenerator) Generate(ctx context.Context, question, schema string) (string, error) {
	prompt := strings.ReplaceAll(cypherPrompt, "{{schema}}", schema)
	prompt = strings.ReplaceAll(prompt, "{{question}}", question)

	raw, err := llm.Generate(ctx, g.llm, prompt, g.opts)
	if err != nil {
		return "", err
	}

	query := strings.Trim(raw, "` \n")
	query = strings.TrimPrefix(query, "cypher\n")
	if strings.EqualFold(strings.TrimSpace(query), "NONE") || strings.TrimSpace(query) == "" {
		g.logger.Info("question judged not graph-answerable", "question", question)
		return "", ErrNotAnswerable
	}
	if !isReadOnly(query) {
		g.logger.Warn("generated query rejected as non-read-only", "query", query)
		return "", ErrNotAnswerable
	}
	return query, nil
}

// isReadOnly rejects queries containing write clauses. The graph port is a
// read path; a hallucinated mutation must never reach the store.
func isReadOnly(query string) bool {
	upper := strings.ToUpper(query)
	for _, clause := range []string{"CREATE ", "MERGE ", "DELETE ", "SET ", "DROP ", "REMOVE "} {
		if strings.Contains(upper, clause) {
			return false
		}
	}
	return true
}
