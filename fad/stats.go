package fad

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// ScanSummary is the JSON summary written at the end of a scan.
type ScanSummary struct {
	StartBlock            int            `json:"startBlock"`
	EndBlock              int            `json:"endBlock"`
	BlocksScanned         int            `json:"blocksScanned"`
	ExtrinsicsScanned     int            `json:"extrinsicsScanned"`
	TotalMatches          int            `json:"totalMatches"`
	UniqueDerivedAccounts []string       `json:"uniqueDerivedAccounts"`
	InnerCalls            map[string]int `json:"innerCalls"`
	MalformedCalls        int            `json:"malformedCalls"`
	StartedAt             time.Time      `json:"startedAt"`
	FinishedAt            time.Time      `json:"finishedAt"`
	ElapsedSeconds        float64        `json:"elapsedSeconds"`
}

// NewScanSummary folds the counters into a summary. Derived accounts are
// sorted so the output is reproducible run to run.
func NewScanSummary(counters *ScanCounters, network, startBlock, endBlock, blocks, extrinsics int, startedAt time.Time) ScanSummary {
	finished := time.Now()

	unique := make([]string, 0, len(counters.UniqueDerived))
	for account := range counters.UniqueDerived {
		unique = append(unique, account.SS58(network))
	}
	sort.Strings(unique)

	return ScanSummary{
		StartBlock:            startBlock,
		EndBlock:              endBlock,
		BlocksScanned:         blocks,
		ExtrinsicsScanned:     extrinsics,
		TotalMatches:          counters.Total,
		UniqueDerivedAccounts: unique,
		InnerCalls:            counters.InnerCalls,
		MalformedCalls:        counters.Malformed,
		StartedAt:             startedAt,
		FinishedAt:            finished,
		ElapsedSeconds:        finished.Sub(startedAt).Seconds(),
	}
}

// WriteSummary writes the summary as an indented JSON object.
func WriteSummary(path string, summary ScanSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling scan summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing scan summary to %s: %w", path, err)
	}
	return nil
}
