package fad

import (
	"encoding/json"
	"fmt"
	"os"
)

// Sink receives match records in emission order. Implementations must be
// append-only and order-preserving.
type Sink interface {
	Emit(record MatchRecord) error
}

// Collector is an in-memory sink.
type Collector struct {
	Records []MatchRecord
}

func (c *Collector) Emit(record MatchRecord) error {
	c.Records = append(c.Records, record)
	return nil
}

// JSONFileSink accumulates records and writes them as a single JSON array
// when closed. Records keep their emission order in the output file.
type JSONFileSink struct {
	path    string
	records []MatchRecord
}

func NewJSONFileSink(path string) *JSONFileSink {
	return &JSONFileSink{path: path}
}

func (s *JSONFileSink) Emit(record MatchRecord) error {
	s.records = append(s.records, record)
	return nil
}

func (s *JSONFileSink) Count() int {
	return len(s.records)
}

// Close writes the accumulated records to disk. An empty scan still
// produces a file containing an empty array.
func (s *JSONFileSink) Close() error {
	records := s.records
	if records == nil {
		records = []MatchRecord{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling %d match records: %w", len(records), err)
	}

	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("error writing match records to %s: %w", s.path, err)
	}

	return nil
}
