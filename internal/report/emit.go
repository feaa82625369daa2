package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// EmitSink writes additional structured outputs.
//
// Formats:
//   - json: aggregates target summaries and writes a single JSON array on Close
//   - ndjson: streams Event values (one JSON object per line)
type EmitSink struct {
	writer    io.Writer
	format    string // "json" | "ndjson"
	mu        sync.Mutex
	summaries []Summary
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{writer: w, format: format}, nil
}

type flusher interface {
	Flush() error
}

func (s *EmitSink) flush() error {
	if f, ok := s.writer.(flusher); ok {
		return f.Flush()
	}
	return nil
}

func (s *EmitSink) WriteEvent(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "ndjson" {
		// The JSON array only holds target summaries.
		return nil
	}
	return s.encodeLine(ev)
}

func (s *EmitSink) WriteSummary(sum Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == "json" {
		s.summaries = append(s.summaries, sum)
		return nil
	}
	return s.encodeLine(eventFromSummary(sum))
}

func (s *EmitSink) encodeLine(ev Event) error {
	if err := json.NewEncoder(s.writer).Encode(ev); err != nil {
		return err
	}
	return s.flush()
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format != "json" {
		return nil
	}
	encoder := json.NewEncoder(s.writer)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.summaries); err != nil {
		return err
	}
	return s.flush()
}
