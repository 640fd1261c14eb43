package fad

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"os"
	"sort"
	"sync"
)

// DerivedBalance is one derived account holding a non-zero free balance.
type DerivedBalance struct {
	Index          uint32 `json:"derivativeIndex"`
	DerivedAccount string `json:"derivedAccount"`
	DerivedHex     string `json:"derivedAccountHex"`
	Free           string `json:"free"`
	Reserved       string `json:"reserved"`
}

// ProbeDerivedAccounts derives the sub-account of parent for every given
// index and queries its balance, keeping only accounts with a non-zero free
// balance. Lookups fan out over a bounded number of workers; the result is
// sorted by index so output files are reproducible.
func ProbeDerivedAccounts(
	ctx context.Context,
	reader BalanceReader,
	parent []byte,
	network int,
	indices []uint32,
	workers int,
	retry RetryConfig,
) ([]DerivedBalance, error) {
	if len(parent) != AccountIDLength {
		return nil, fmt.Errorf("%w: parent must be exactly %d bytes, got %d",
			ErrInvalidAccountFormat, AccountIDLength, len(parent))
	}
	if workers <= 0 {
		workers = 4
	}

	indexCh := make(chan uint32, len(indices))
	for _, index := range indices {
		indexCh <- index
	}
	close(indexCh)

	var mutex sync.Mutex
	var hits []DerivedBalance
	var wg sync.WaitGroup

	for worker := 0; worker < workers; worker++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for index := range indexCh {
				select {
				case <-ctx.Done():
					return
				default:
				}

				derived, err := DeriveChild(parent, index)
				if err != nil {
					log.Printf("Worker %d: error deriving index %d: %v", workerID, index, err)
					continue
				}
				address := derived.SS58(network)

				var balance AccountBalance
				operation := fmt.Sprintf("fetch balance of %s", address)
				err = WithRetry(ctx, retry, operation, func() error {
					var fetchErr error
					balance, fetchErr = reader.GetAccountBalance(ctx, address)
					return fetchErr
				})
				if err != nil {
					log.Printf("Worker %d: skipping index %d: %v", workerID, index, err)
					continue
				}

				free, ok := new(big.Int).SetString(balance.Free, 10)
				if !ok || free.Sign() == 0 {
					continue
				}

				mutex.Lock()
				hits = append(hits, DerivedBalance{
					Index:          index,
					DerivedAccount: address,
					DerivedHex:     derived.Hex(),
					Free:           balance.Free,
					Reserved:       balance.Reserved,
				})
				mutex.Unlock()
			}
		}(worker)
	}

	wg.Wait()

	sort.Slice(hits, func(i, j int) bool { return hits[i].Index < hits[j].Index })
	return hits, nil
}

// WriteDerivedBalances writes the probe result as an indented JSON array.
func WriteDerivedBalances(path string, balances []DerivedBalance) error {
	if balances == nil {
		balances = []DerivedBalance{}
	}
	data, err := json.MarshalIndent(balances, "", "  ")
	if err != nil {
		return fmt.Errorf("error marshaling derived balances: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing derived balances to %s: %w", path, err)
	}
	return nil
}
