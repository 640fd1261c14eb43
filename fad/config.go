package fad

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config is the runtime configuration of the scanner and prober.
type Config struct {
	StartRange int
	EndRange   int // -1 means "up to the chain head"

	SidecarURL string
	NodeWSURL  string // optional; enables the RPC reader with sidecar fallback
	Network    int    // SS58 network prefix

	BatchSize  int
	MaxWorkers int
	MaxDepth   int

	MatchesFile string
	SummaryFile string

	Retry RetryConfig
}

func DefaultConfig() Config {
	return Config{
		StartRange:  1,
		EndRange:    -1,
		Network:     42,
		BatchSize:   50,
		MaxWorkers:  4,
		MaxDepth:    DefaultMaxDepth,
		MatchesFile: "asderivative_matches.json",
		SummaryFile: "scan_summary.json",
		Retry:       DefaultRetryConfig(),
	}
}

func ValidateConfig(config Config) error {
	if config.SidecarURL == "" && config.NodeWSURL == "" {
		return fmt.Errorf("a sidecar URL or a node WebSocket URL is required")
	}
	if config.EndRange != -1 && config.StartRange > config.EndRange {
		return fmt.Errorf("start range must be less than or equal to end range")
	}
	if config.BatchSize <= 0 {
		return fmt.Errorf("batch size must be greater than 0")
	}
	if config.MaxWorkers <= 0 {
		return fmt.Errorf("max workers must be greater than 0")
	}
	if config.MaxDepth <= 0 {
		return fmt.Errorf("max depth must be greater than 0")
	}
	if config.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry attempts must be greater than 0")
	}
	return nil
}

// NewChainReader builds the reader the config asks for: RPC with sidecar
// fallback when both URLs are set, otherwise whichever single one is.
func (c Config) NewChainReader() ChainReader {
	switch {
	case c.NodeWSURL != "" && c.SidecarURL != "":
		return NewFallbackChainReader(c.NodeWSURL, c.SidecarURL)
	case c.NodeWSURL != "":
		return NewSubstrateRPCReader(c.NodeWSURL)
	default:
		return NewSidecar(c.SidecarURL)
	}
}

type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	x, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(x)
	return nil
}

// FileConfig is the TOML representation of Config.
type FileConfig struct {
	ChainReader struct {
		SidecarURL string `toml:"sidecar_url"`
		NodeWSURL  string `toml:"node_ws_url"`
		Network    int    `toml:"network"`
	} `toml:"chainreader"`
	Scan struct {
		StartRange int `toml:"start_range"`
		EndRange   int `toml:"end_range"`
		BatchSize  int `toml:"batch_size"`
		MaxWorkers int `toml:"max_workers"`
		MaxDepth   int `toml:"max_depth"`
	} `toml:"scan"`
	Retry struct {
		MaxAttempts  int      `toml:"max_attempts"`
		InitialDelay Duration `toml:"initial_delay"`
		MaxDelay     Duration `toml:"max_delay"`
		Multiplier   float64  `toml:"multiplier"`
	} `toml:"retry"`
	Output struct {
		MatchesFile string `toml:"matches_file"`
		SummaryFile string `toml:"summary_file"`
	} `toml:"output"`
}

// LoadConfig reads a TOML configuration file on top of the defaults.
func LoadConfig(file string) (Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(file)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	var fc FileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.SidecarURL = fc.ChainReader.SidecarURL
	config.NodeWSURL = fc.ChainReader.NodeWSURL
	if fc.ChainReader.Network != 0 {
		config.Network = fc.ChainReader.Network
	}
	if fc.Scan.StartRange != 0 {
		config.StartRange = fc.Scan.StartRange
	}
	if fc.Scan.EndRange != 0 {
		config.EndRange = fc.Scan.EndRange
	}
	if fc.Scan.BatchSize != 0 {
		config.BatchSize = fc.Scan.BatchSize
	}
	if fc.Scan.MaxWorkers != 0 {
		config.MaxWorkers = fc.Scan.MaxWorkers
	}
	if fc.Scan.MaxDepth != 0 {
		config.MaxDepth = fc.Scan.MaxDepth
	}
	if fc.Retry.MaxAttempts != 0 {
		config.Retry.MaxAttempts = fc.Retry.MaxAttempts
	}
	if fc.Retry.InitialDelay != 0 {
		config.Retry.InitialDelay = time.Duration(fc.Retry.InitialDelay)
	}
	if fc.Retry.MaxDelay != 0 {
		config.Retry.MaxDelay = time.Duration(fc.Retry.MaxDelay)
	}
	if fc.Retry.Multiplier != 0 {
		config.Retry.Multiplier = fc.Retry.Multiplier
	}
	if fc.Output.MatchesFile != "" {
		config.MatchesFile = fc.Output.MatchesFile
	}
	if fc.Output.SummaryFile != "" {
		config.SummaryFile = fc.Output.SummaryFile
	}

	return config, nil
}
