package fad

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestJSONFileSinkWritesRecordsInOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.json")
	sink := NewJSONFileSink(path)

	for i := 0; i < 3; i++ {
		record := MatchRecord{BlockNumber: 100 + i, InnerCall: "system.remark"}
		if err := sink.Emit(record); err != nil {
			t.Fatalf("Emit returned an error: %v", err)
		}
	}
	if sink.Count() != 3 {
		t.Errorf("Expected 3 records, got %d", sink.Count())
	}

	if err := sink.Close(); err != nil {
		t.Fatalf("Close returned an error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	var records []MatchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("Output file is not a JSON array: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records in the file, got %d", len(records))
	}
	for i, record := range records {
		if record.BlockNumber != 100+i {
			t.Errorf("Record %d has block number %d, expected %d", i, record.BlockNumber, 100+i)
		}
	}
}

func TestJSONFileSinkEmptyScan(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matches.json")
	sink := NewJSONFileSink(path)

	if err := sink.Close(); err != nil {
		t.Fatalf("Close returned an error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output file: %v", err)
	}
	var records []MatchRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("Output file is not a JSON array: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected an empty array, got %d records", len(records))
	}
}
