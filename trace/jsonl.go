package trace

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
)

// DefaultTracePath is where the CLI writes its trace log.
const DefaultTracePath = "trace_logs.jsonl"

// JSONLSink appends one JSON line per record to a local file.
type JSONLSink struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewJSONLSink builds a file sink. The file is created on first append.
func NewJSONLSink(path string) *JSONLSink {
	if path == "" {
		path = DefaultTracePath
	}
	return &JSONLSink{path: path, logger: traceLogger()}
}

// Append implements Sink.
func (s *JSONLSink) Append(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(rec)
	if err != nil {
		s.logger.Error("failed to encode trace record", "error", err)
		return
	}
	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		s.logger.Error("failed to open trace log", "path", s.path, "error", err)
		return
	}
	defer f.Close()
	if _, err := f.Write(append(data, '\n')); err != nil {
		s.logger.Error("failed to write trace record", "path", s.path, "error", err)
	}
}
