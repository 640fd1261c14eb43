package fad

import (
	"context"
	"fmt"
	"log"
)

// FallbackChainReader tries the primary reader first and falls back to the
// secondary on failure. The usual pairing is SubstrateRPC with a sidecar
// behind it.
type FallbackChainReader struct {
	primary   ChainReader
	secondary ChainReader
}

func NewFallbackChainReader(wsURL, httpURL string) *FallbackChainReader {
	return &FallbackChainReader{
		primary:   NewSubstrateRPCReader(wsURL),
		secondary: NewSidecar(httpURL),
	}
}

func (f *FallbackChainReader) GetChainHeadID() (int, error) {
	headID, err := f.primary.GetChainHeadID()
	if err == nil {
		return headID, nil
	}
	log.Printf("Primary reader failed GetChainHeadID: %v, falling back", err)

	headID, err = f.secondary.GetChainHeadID()
	if err != nil {
		return -1, fmt.Errorf("both primary and secondary readers failed: %w", err)
	}
	return headID, nil
}

func (f *FallbackChainReader) FetchBlock(ctx context.Context, id int) (BlockData, error) {
	block, err := f.primary.FetchBlock(ctx, id)
	if err == nil {
		return block, nil
	}
	log.Printf("Primary reader failed FetchBlock(%d): %v, falling back", id, err)

	block, err = f.secondary.FetchBlock(ctx, id)
	if err != nil {
		return BlockData{}, fmt.Errorf("both primary and secondary readers failed for block %d: %w", id, err)
	}
	return block, nil
}

func (f *FallbackChainReader) FetchBlockRange(ctx context.Context, blockIDs []int) ([]BlockData, error) {
	blocks, err := f.primary.FetchBlockRange(ctx, blockIDs)
	if err == nil {
		return blocks, nil
	}
	log.Printf("Primary reader failed FetchBlockRange: %v, falling back", err)

	blocks, err = f.secondary.FetchBlockRange(ctx, blockIDs)
	if err != nil {
		return nil, fmt.Errorf("both primary and secondary readers failed for block range: %w", err)
	}
	return blocks, nil
}

func (f *FallbackChainReader) Ping() error {
	if err := f.primary.Ping(); err == nil {
		return nil
	}
	if err := f.secondary.Ping(); err != nil {
		return fmt.Errorf("both primary and secondary readers failed ping: %w", err)
	}
	return nil
}

func (f *FallbackChainReader) GetStats() *MetricsStats {
	return f.primary.GetStats()
}
