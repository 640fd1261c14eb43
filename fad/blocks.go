package fad

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// BlockData represents a block as returned by the Substrate API Sidecar.
type BlockData struct {
	ID             string          `json:"number"`
	Hash           string          `json:"hash"`
	ParentHash     string          `json:"parentHash"`
	StateRoot      string          `json:"stateRoot"`
	ExtrinsicsRoot string          `json:"extrinsicsRoot"`
	AuthorID       string          `json:"authorId"`
	Finalized      bool            `json:"finalized"`
	Logs           json.RawMessage `json:"logs"`
	Extrinsics     json.RawMessage `json:"extrinsics"`
}

// Number converts the block ID to an integer block number.
func (b BlockData) Number() (int, error) {
	n, err := strconv.Atoi(b.ID)
	if err != nil {
		return 0, fmt.Errorf("error parsing block number %q: %w", b.ID, err)
	}
	return n, nil
}

const (
	UtilityPallet      = "utility"
	AsDerivativeMethod = "asDerivative"
	BatchMethod        = "batch"
	BatchAllMethod     = "batchAll"

	maxCallDecodeDepth = 64
)

// Call is one dispatchable operation extracted from an extrinsic, decoded
// once at the fetching boundary. Arguments of the tracked utility methods
// are lifted into typed fields; everything else keeps only the raw args.
type Call struct {
	Pallet string
	Method string

	// asDerivative arguments
	Index uint32
	Inner *Call

	// batch / batchAll argument; nil with Malformed set when the node
	// returned something that is not a sequence of calls
	Calls []Call

	// Malformed marks a call whose arguments did not have the shape its
	// method requires. The matcher skips these instead of failing.
	Malformed bool

	Args json.RawMessage
}

// IsBatch reports whether the call is one of the two batching primitives
// the matcher descends into.
func (c *Call) IsBatch() bool {
	return c.Pallet == UtilityPallet && (c.Method == BatchMethod || c.Method == BatchAllMethod)
}

// IsDerivative reports whether the call is the tracked derivative dispatch.
func (c *Call) IsDerivative() bool {
	return c.Pallet == UtilityPallet && c.Method == AsDerivativeMethod
}

// Name returns the "pallet.method" form used in records and tallies.
func (c *Call) Name() string {
	return c.Pallet + "." + c.Method
}

// Extrinsic is one entry of a block's extrinsic list.
type Extrinsic struct {
	Signer string // SS58 or 0x-hex; empty for unsigned extrinsics
	Call   Call
}

// DecodeExtrinsics parses the raw sidecar extrinsic array into typed
// extrinsics. Block data is attacker-influenced, so unexpected shapes
// degrade into malformed calls rather than errors.
func DecodeExtrinsics(raw json.RawMessage) ([]Extrinsic, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	parsed := gjson.ParseBytes(raw)
	if !parsed.IsArray() {
		return nil, fmt.Errorf("extrinsics field is not an array")
	}

	items := parsed.Array()
	extrinsics := make([]Extrinsic, 0, len(items))
	for _, item := range items {
		signer := item.Get("signature.signer.id").String()
		if signer == "" {
			// older sidecar versions return the signer as a plain string
			signer = item.Get("signature.signer").String()
		}
		extrinsics = append(extrinsics, Extrinsic{
			Signer: signer,
			Call:   decodeCall(item, 0),
		})
	}

	return extrinsics, nil
}

func decodeCall(v gjson.Result, depth int) Call {
	c := Call{
		Pallet: v.Get("method.pallet").String(),
		Method: v.Get("method.method").String(),
	}

	args := v.Get("args")
	if args.Exists() {
		c.Args = json.RawMessage(args.Raw)
	}

	if depth >= maxCallDecodeDepth {
		c.Malformed = true
		return c
	}

	switch {
	case c.IsDerivative():
		c.Index = uint32(args.Get("index").Uint())
		if inner := args.Get("call"); inner.IsObject() {
			ic := decodeCall(inner, depth+1)
			c.Inner = &ic
		} else {
			c.Malformed = true
		}
	case c.IsBatch():
		calls := args.Get("calls")
		if !calls.IsArray() {
			c.Malformed = true
			break
		}
		nested := calls.Array()
		c.Calls = make([]Call, 0, len(nested))
		for _, sub := range nested {
			c.Calls = append(c.Calls, decodeCall(sub, depth+1))
		}
	}

	return c
}
