package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/eugypalu/findAsDerivative/fad"
)

// parseFlags builds the configuration from the command line. A -conf TOML
// file supplies the base values; flags set explicitly on the command line
// win over the file.
func parseFlags(args []string) (fad.Config, error) {
	defaults := fad.DefaultConfig()

	fs := flag.NewFlagSet("fadscan", flag.ContinueOnError)
	configFile := fs.String("conf", "", "toml configuration file")
	sidecarURL := fs.String("sidecar", "", "Sidecar URL")
	nodeWSURL := fs.String("node", "", "Node WebSocket URL (optional, used before the sidecar)")
	startRange := fs.Int("start", defaults.StartRange, "First block of the range")
	endRange := fs.Int("end", defaults.EndRange, "Last block of the range, -1 for the chain head")
	batchSize := fs.Int("batch", defaults.BatchSize, "Number of blocks to fetch per batch")
	maxDepth := fs.Int("depth", defaults.MaxDepth, "Maximum nesting depth followed inside batch calls")
	network := fs.Int("network", defaults.Network, "SS58 network prefix for printed addresses")
	matchesFile := fs.String("o", defaults.MatchesFile, "Output file for match records")
	summaryFile := fs.String("summary", defaults.SummaryFile, "Output file for the scan summary")

	if err := fs.Parse(args); err != nil {
		return fad.Config{}, err
	}

	config := defaults
	if *configFile != "" {
		loaded, err := fad.LoadConfig(*configFile)
		if err != nil {
			return fad.Config{}, fmt.Errorf("loading %s: %w", *configFile, err)
		}
		config = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sidecar":
			config.SidecarURL = *sidecarURL
		case "node":
			config.NodeWSURL = *nodeWSURL
		case "start":
			config.StartRange = *startRange
		case "end":
			config.EndRange = *endRange
		case "batch":
			config.BatchSize = *batchSize
		case "depth":
			config.MaxDepth = *maxDepth
		case "network":
			config.Network = *network
		case "o":
			config.MatchesFile = *matchesFile
		case "summary":
			config.SummaryFile = *summaryFile
		}
	})

	return config, nil
}

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	config, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if err := fad.ValidateConfig(config); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	reader := config.NewChainReader()
	if err := reader.Ping(); err != nil {
		log.Fatalf("Chain reader test failed: %v", err)
	}
	log.Println("Successfully connected to the chain reader")

	endRange := config.EndRange
	if endRange == -1 {
		headBlockID, err := reader.GetChainHeadID()
		if err != nil {
			log.Fatalf("Failed to fetch head block: %v", err)
		}
		log.Printf("Current head block is %d", headBlockID)
		endRange = headBlockID
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fad.SetupSignalHandler(cancel)

	matcher := fad.NewMatcher(config.Network)
	matcher.MaxDepth = config.MaxDepth
	sink := fad.NewJSONFileSink(config.MatchesFile)

	scanner := fad.NewScanner(reader, sink, matcher, config.Retry, config.BatchSize)

	log.Printf("Scanning blocks %d to %d for utility.asDerivative calls", config.StartRange, endRange)
	start := time.Now()

	summary, err := scanner.Scan(ctx, config.StartRange, endRange)
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	if err := sink.Close(); err != nil {
		log.Fatalf("Failed to write match records: %v", err)
	}
	if err := fad.WriteSummary(config.SummaryFile, summary); err != nil {
		log.Fatalf("Failed to write scan summary: %v", err)
	}

	log.Printf("Found %d matches (%d unique derived accounts) in %d blocks in %v",
		summary.TotalMatches, len(summary.UniqueDerivedAccounts), summary.BlocksScanned, time.Since(start))
	log.Printf("Match records written to %s, summary to %s", config.MatchesFile, config.SummaryFile)

	rs := reader.GetStats().BucketsStats[0]
	log.Printf("Chain reader: %d calls, %d failures, latency avg %v min %v max %v",
		rs.Count, rs.Failures, rs.Avg, rs.Min, rs.Max)
	log.Println("All tasks completed")
}
