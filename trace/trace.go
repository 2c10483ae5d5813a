// Package trace records one structured observability record per answered
// query. Sinks are fire and forget: a sink failure is logged and never
// affects the caller's result.
package trace

import (
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/medlexica/regagent/pkg/logging"
	"github.com/medlexica/regagent/planner"
	"github.com/medlexica/regagent/router"
)

const previewLimit = 200

// Record captures everything a pipeline run decided and produced.
type Record struct {
	ID            string                 `json:"id" bson:"_id"`
	Timestamp     string                 `json:"timestamp" bson:"timestamp"`
	Query         string                 `json:"query" bson:"query"`
	Persona       string                 `json:"persona" bson:"persona"`
	Intent        string                 `json:"intent" bson:"intent"`
	GraphSuitable string                 `json:"graph_suitable" bson:"graph_suitable"`
	ToolPlan      []planner.ToolPlanItem `json:"tool_plan" bson:"tool_plan"`
	ToolResults   []router.ToolResult    `json:"tool_results" bson:"tool_results"`
	AnswerPreview string                 `json:"final_answer_preview" bson:"final_answer_preview"`
	LatencySec    float64                `json:"total_latency_sec" bson:"total_latency_sec"`
}

// NewRecord assembles a Record from a finished run. A nil metadata means
// classification failed before the pipeline could proceed.
func NewRecord(query string, persona planner.Persona, meta *planner.QueryMetadata, plan []planner.ToolPlanItem, results []router.ToolResult, answer string, latency time.Duration) Record {
	rec := Record{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		Query:         query,
		Persona:       string(persona),
		Intent:        "classification_failed",
		GraphSuitable: "unknown",
		ToolPlan:      plan,
		ToolResults:   results,
		AnswerPreview: "N/A",
		LatencySec:    math.Round(latency.Seconds()*1000) / 1000,
	}
	if meta != nil {
		rec.Intent = string(meta.Intent)
		if meta.GraphSuitable {
			rec.GraphSuitable = "true"
		} else {
			rec.GraphSuitable = "false"
		}
	}
	if answer != "" {
		if len(answer) > previewLimit {
			rec.AnswerPreview = answer[:previewLimit] + "..."
		} else {
			rec.AnswerPreview = answer
		}
	}
	return rec
}

// Sink persists records. Append must not block the caller on failure.
type Sink interface {
	Append(rec Record)
}

// MultiSink fans a record out to several sinks.
type MultiSink []Sink

// Append implements Sink.
func (m MultiSink) Append(rec Record) {
	for _, s := range m {
		s.Append(rec)
	}
}

// NopSink discards records.
type NopSink struct{}

// Append implements Sink.
func (NopSink) Append(Record) {}

func traceLogger() *slog.Logger {
	return logging.WithComponent("trace")
}
