package fad

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChainReader fetches blocks from a Substrate-style chain. Retry policy
// belongs to the caller, not to implementations.
type ChainReader interface {
	GetChainHeadID() (int, error)
	FetchBlockRange(ctx context.Context, blockIDs []int) ([]BlockData, error)
	FetchBlock(ctx context.Context, id int) (BlockData, error)
	Ping() error
	GetStats() *MetricsStats
}

// BalanceReader exposes account balance lookups for the prober.
type BalanceReader interface {
	GetAccountBalance(ctx context.Context, address string) (AccountBalance, error)
}

// AccountBalance is the subset of the sidecar balance-info payload the
// prober cares about.
type AccountBalance struct {
	Address  string `json:"address"`
	Nonce    string `json:"nonce"`
	Free     string `json:"free"`
	Reserved string `json:"reserved"`
}

// Sidecar implements ChainReader and BalanceReader against the Substrate
// API Sidecar REST service.
type Sidecar struct {
	url     string
	metrics *Metrics
}

func NewSidecar(url string) *Sidecar {
	return &Sidecar{
		url:     url,
		metrics: NewMetrics("Sidecar"),
	}
}

func (s *Sidecar) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error calling sidecar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sidecar API returned status code %d for %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	return body, nil
}

// GetChainHeadID fetches the current head block number.
func (s *Sidecar) GetChainHeadID() (int, error) {
	start := time.Now()
	var callErr error
	defer func() {
		s.metrics.RecordLatency(start, 1, callErr)
	}()

	body, err := s.get(context.Background(), fmt.Sprintf("%s/blocks/head", s.url))
	if err != nil {
		callErr = err
		return -1, fmt.Errorf("error fetching head block: %w", err)
	}

	var block BlockData
	if err := json.Unmarshal(body, &block); err != nil {
		callErr = err
		return -1, fmt.Errorf("error parsing head block response: %w", err)
	}

	id, err := block.Number()
	if err != nil {
		callErr = err
		return -1, err
	}
	return id, nil
}

// FetchBlock fetches a single block by number.
func (s *Sidecar) FetchBlock(ctx context.Context, id int) (BlockData, error) {
	start := time.Now()
	var callErr error
	defer func() {
		s.metrics.RecordLatency(start, 1, callErr)
	}()

	body, err := s.get(ctx, fmt.Sprintf("%s/blocks/%d", s.url, id))
	if err != nil {
		callErr = err
		return BlockData{}, fmt.Errorf("error fetching block %d: %w", id, err)
	}

	var block BlockData
	if err := json.Unmarshal(body, &block); err != nil {
		callErr = err
		return BlockData{}, fmt.Errorf("error parsing response for block %d: %w", id, err)
	}

	return block, nil
}

// FetchBlockRange fetches the given block numbers. Sequential runs use the
// sidecar range query, anything else falls back to per-block fetches.
func (s *Sidecar) FetchBlockRange(ctx context.Context, blockIDs []int) ([]BlockData, error) {
	if len(blockIDs) == 0 {
		return []BlockData{}, nil
	}

	isSequential := true
	for i := 1; i < len(blockIDs); i++ {
		if blockIDs[i] != blockIDs[i-1]+1 {
			isSequential = false
			break
		}
	}

	if !isSequential || len(blockIDs) == 1 {
		blocks := make([]BlockData, 0, len(blockIDs))
		for _, id := range blockIDs {
			block, err := s.FetchBlock(ctx, id)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, block)
		}
		return blocks, nil
	}

	start := time.Now()
	var callErr error
	defer func() {
		s.metrics.RecordLatency(start, len(blockIDs), callErr)
	}()

	url := fmt.Sprintf("%s/blocks?range=%d-%d", s.url, blockIDs[0], blockIDs[len(blockIDs)-1])
	body, err := s.get(ctx, url)
	if err != nil {
		callErr = err
		return nil, fmt.Errorf("error fetching block range: %w", err)
	}

	var blocks []BlockData
	if err := json.Unmarshal(body, &blocks); err != nil {
		callErr = err
		return nil, fmt.Errorf("error parsing block range response: %w", err)
	}

	return blocks, nil
}

// GetAccountBalance fetches the balance info of an account.
func (s *Sidecar) GetAccountBalance(ctx context.Context, address string) (AccountBalance, error) {
	start := time.Now()
	var callErr error
	defer func() {
		s.metrics.RecordLatency(start, 1, callErr)
	}()

	body, err := s.get(ctx, fmt.Sprintf("%s/accounts/%s/balance-info", s.url, address))
	if err != nil {
		callErr = err
		return AccountBalance{}, fmt.Errorf("error fetching balance for %s: %w", address, err)
	}

	var balance AccountBalance
	if err := json.Unmarshal(body, &balance); err != nil {
		callErr = err
		return AccountBalance{}, fmt.Errorf("error parsing balance response for %s: %w", address, err)
	}
	balance.Address = address

	return balance, nil
}

// Ping tests if the sidecar service is reachable.
func (s *Sidecar) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := s.get(ctx, s.url); err != nil {
		return fmt.Errorf("error connecting to sidecar service: %w", err)
	}
	return nil
}

func (s *Sidecar) GetStats() *MetricsStats {
	return s.metrics.GetStats()
}
