package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/eugypalu/findAsDerivative/fad"
)

type probeOptions struct {
	config  fad.Config
	address string
	count   int
	outFile string
}

// parseFlags builds the probe options. Connection settings can come from a
// -conf TOML file; flags set explicitly on the command line win over it.
func parseFlags(args []string) (probeOptions, error) {
	defaults := fad.DefaultConfig()

	fs := flag.NewFlagSet("fadprobe", flag.ContinueOnError)
	configFile := fs.String("conf", "", "toml configuration file")
	address := fs.String("address", "", "parent account (SS58 address or 0x-prefixed public key)")
	sidecarURL := fs.String("sidecar", "", "Sidecar URL")
	network := fs.Int("network", defaults.Network, "SS58 network prefix")
	count := fs.Int("count", 256, "number of derivation indices to probe, starting at 0")
	workers := fs.Int("workers", defaults.MaxWorkers, "number of concurrent balance lookups")
	outFile := fs.String("o", "derived_balances.json", "output file for derived accounts with balance")

	if err := fs.Parse(args); err != nil {
		return probeOptions{}, err
	}

	config := defaults
	if *configFile != "" {
		loaded, err := fad.LoadConfig(*configFile)
		if err != nil {
			return probeOptions{}, fmt.Errorf("loading %s: %w", *configFile, err)
		}
		config = loaded
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "sidecar":
			config.SidecarURL = *sidecarURL
		case "network":
			config.Network = *network
		case "workers":
			config.MaxWorkers = *workers
		}
	})

	return probeOptions{
		config:  config,
		address: *address,
		count:   *count,
		outFile: *outFile,
	}, nil
}

func main() {
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if opts.address == "" {
		log.Fatal("Please provide a parent address")
	}
	if opts.config.SidecarURL == "" {
		log.Fatal("Please provide a sidecar URL")
	}
	if opts.count < 1 || opts.count > 256 {
		log.Fatal("Count must be between 1 and 256")
	}
	if opts.config.MaxWorkers <= 0 {
		log.Fatal("Max workers must be greater than 0")
	}

	var parent []byte
	if strings.HasPrefix(opts.address, "0x") {
		parent = fad.HexToBytes(opts.address)
	} else {
		raw, err := fad.SS58Decode(opts.address, opts.config.Network)
		if err != nil {
			log.Fatalf("Invalid parent address: %v", err)
		}
		parent = raw
	}

	reader := fad.NewSidecar(opts.config.SidecarURL)
	if err := reader.Ping(); err != nil {
		log.Fatalf("Sidecar service test failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fad.SetupSignalHandler(cancel)

	indices := make([]uint32, 0, opts.count)
	for i := 0; i < opts.count; i++ {
		indices = append(indices, uint32(i))
	}

	log.Printf("Probing %d derived accounts of %s with %d workers",
		len(indices), opts.address, opts.config.MaxWorkers)

	hits, err := fad.ProbeDerivedAccounts(ctx, reader, parent, opts.config.Network,
		indices, opts.config.MaxWorkers, opts.config.Retry)
	if err != nil {
		log.Fatalf("Probe failed: %v", err)
	}

	for _, hit := range hits {
		fmt.Printf("index %3d  %s  free=%s reserved=%s\n", hit.Index, hit.DerivedAccount, hit.Free, hit.Reserved)
	}
	log.Printf("%d of %d derived accounts hold a non-zero balance", len(hits), len(indices))

	if err := fad.WriteDerivedBalances(opts.outFile, hits); err != nil {
		log.Fatalf("Failed to write results: %v", err)
	}
	log.Printf("Results written to %s", opts.outFile)
}
