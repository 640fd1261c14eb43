package fad

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultMaxDepth bounds the call-tree traversal. Nested batches deeper
// than this are treated as malformed instead of being followed.
const DefaultMaxDepth = 16

// MatchRecord is emitted for every asDerivative call found, including ones
// nested inside batches at any depth.
type MatchRecord struct {
	BlockNumber     int             `json:"blockNumber"`
	ExtrinsicIndex  int             `json:"extrinsicIndex"`
	SignerAccount   string          `json:"signerAccount"`
	DerivativeIndex uint32          `json:"derivativeIndex"`
	DerivedAccount  string          `json:"derivedAccount"`
	DerivedHex      string          `json:"derivedAccountHex"`
	InnerCall       string          `json:"innerCall"`
	InnerCallArgs   json.RawMessage `json:"innerCallArgs,omitempty"`
}

// ScanCounters accumulates match statistics across a whole scan. A single
// caller mutates it sequentially; it is never ambient state.
type ScanCounters struct {
	Total         int
	Malformed     int
	UniqueDerived map[AccountID]struct{}
	InnerCalls    map[string]int
}

func NewScanCounters() *ScanCounters {
	return &ScanCounters{
		UniqueDerived: make(map[AccountID]struct{}),
		InnerCalls:    make(map[string]int),
	}
}

// Matcher walks decoded call trees looking for utility.asDerivative,
// descending into utility.batch and utility.batchAll. Only those two
// batching primitives are recognized; nested calls run under the same
// origin as the enclosing extrinsic.
type Matcher struct {
	MaxDepth int
	Network  int // SS58 network prefix for emitted addresses
}

func NewMatcher(network int) *Matcher {
	return &Matcher{
		MaxDepth: DefaultMaxDepth,
		Network:  network,
	}
}

type matchFrame struct {
	call  *Call
	depth int
}

// ScanExtrinsic inspects one extrinsic's call tree and emits a MatchRecord
// to the sink for every derivative call found. Pure traversal: no network
// access, no retries. Emission follows array order at every depth.
func (m *Matcher) ScanExtrinsic(ext Extrinsic, blockNumber, extrinsicIndex int, counters *ScanCounters, sink Sink) error {
	signer, err := m.decodeSigner(ext.Signer)
	if err != nil {
		return fmt.Errorf("block %d extrinsic %d: %w", blockNumber, extrinsicIndex, err)
	}

	stack := []matchFrame{{call: &ext.Call, depth: 0}}
	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		call := frame.call

		switch {
		case call.IsDerivative():
			if call.Malformed || ext.Signer == "" {
				// no inner call to dispatch, or unsigned origin
				counters.Malformed++
				continue
			}

			derived, err := DeriveChild(signer, call.Index)
			if err != nil {
				return fmt.Errorf("block %d extrinsic %d: deriving for signer %s: %w",
					blockNumber, extrinsicIndex, ext.Signer, err)
			}

			counters.Total++
			counters.UniqueDerived[derived] = struct{}{}
			counters.InnerCalls[call.Inner.Name()]++

			record := MatchRecord{
				BlockNumber:     blockNumber,
				ExtrinsicIndex:  extrinsicIndex,
				SignerAccount:   ext.Signer,
				DerivativeIndex: call.Index & 0xff,
				DerivedAccount:  derived.SS58(m.Network),
				DerivedHex:      derived.Hex(),
				InnerCall:       call.Inner.Name(),
				InnerCallArgs:   call.Inner.Args,
			}
			if err := sink.Emit(record); err != nil {
				return fmt.Errorf("emitting match at block %d extrinsic %d: %w", blockNumber, extrinsicIndex, err)
			}

		case call.IsBatch():
			if call.Malformed {
				counters.Malformed++
				continue
			}
			if frame.depth+1 > m.maxDepth() {
				// pathological nesting, skip the whole subtree
				counters.Malformed++
				continue
			}
			// push in reverse so the stack pops nested calls in array order
			for i := len(call.Calls) - 1; i >= 0; i-- {
				stack = append(stack, matchFrame{call: &call.Calls[i], depth: frame.depth + 1})
			}
		}
	}

	return nil
}

func (m *Matcher) maxDepth() int {
	if m.MaxDepth > 0 {
		return m.MaxDepth
	}
	return DefaultMaxDepth
}

// decodeSigner turns the signer as reported by the node (SS58 address or
// 0x-prefixed public key) into raw bytes. Unsigned extrinsics yield nil.
func (m *Matcher) decodeSigner(signer string) ([]byte, error) {
	if signer == "" {
		return nil, nil
	}
	if strings.HasPrefix(signer, "0x") {
		return HexToBytes(signer), nil
	}
	raw, err := SS58Decode(signer, m.Network)
	if err != nil {
		return nil, fmt.Errorf("decoding signer: %w", err)
	}
	return raw, nil
}
