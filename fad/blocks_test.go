package fad

import (
	"encoding/json"
	"testing"
)

func TestBlockDataNumber(t *testing.T) {
	block := BlockData{ID: "1234567"}
	n, err := block.Number()
	if err != nil {
		t.Fatalf("Number returned an error: %v", err)
	}
	if n != 1234567 {
		t.Errorf("Expected 1234567, got %d", n)
	}

	block = BlockData{ID: "0xdeadbeef"}
	if _, err := block.Number(); err == nil {
		t.Error("Expected an error for a non-decimal block ID")
	}
}

func TestDecodeExtrinsicsSidecarShape(t *testing.T) {
	raw := json.RawMessage(`[
		{
			"signature": {"signer": {"id": "` + aliceSS58 + `"}},
			"method": {"pallet": "utility", "method": "asDerivative"},
			"args": {
				"index": "5",
				"call": {
					"method": {"pallet": "system", "method": "remark"},
					"args": {"remark": "0x6869"}
				}
			}
		},
		{
			"method": {"pallet": "timestamp", "method": "set"},
			"args": {"now": "1700000000000"}
		}
	]`)

	extrinsics, err := DecodeExtrinsics(raw)
	if err != nil {
		t.Fatalf("DecodeExtrinsics returned an error: %v", err)
	}
	if len(extrinsics) != 2 {
		t.Fatalf("Expected 2 extrinsics, got %d", len(extrinsics))
	}

	first := extrinsics[0]
	if first.Signer != aliceSS58 {
		t.Errorf("Expected signer %s, got %s", aliceSS58, first.Signer)
	}
	if !first.Call.IsDerivative() {
		t.Errorf("Expected utility.asDerivative, got %s", first.Call.Name())
	}
	if first.Call.Index != 5 {
		t.Errorf("Expected derivation index 5, got %d", first.Call.Index)
	}
	if first.Call.Inner == nil {
		t.Fatal("Expected a decoded inner call")
	}
	if first.Call.Inner.Name() != "system.remark" {
		t.Errorf("Expected inner call system.remark, got %s", first.Call.Inner.Name())
	}
	if first.Call.Malformed {
		t.Error("Well-formed call flagged as malformed")
	}

	second := extrinsics[1]
	if second.Signer != "" {
		t.Errorf("Unsigned extrinsic has signer %q", second.Signer)
	}
	if second.Call.Name() != "timestamp.set" {
		t.Errorf("Expected timestamp.set, got %s", second.Call.Name())
	}
}

func TestDecodeExtrinsicsPlainStringSigner(t *testing.T) {
	raw := json.RawMessage(`[
		{
			"signature": {"signer": "` + aliceSS58 + `"},
			"method": {"pallet": "balances", "method": "transfer"},
			"args": {}
		}
	]`)

	extrinsics, err := DecodeExtrinsics(raw)
	if err != nil {
		t.Fatalf("DecodeExtrinsics returned an error: %v", err)
	}
	if extrinsics[0].Signer != aliceSS58 {
		t.Errorf("Expected signer %s, got %s", aliceSS58, extrinsics[0].Signer)
	}
}

func TestDecodeExtrinsicsMalformedShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "Batch calls not an array",
			raw: `[{
				"signature": {"signer": {"id": "` + aliceSS58 + `"}},
				"method": {"pallet": "utility", "method": "batch"},
				"args": {"calls": "oops"}
			}]`,
		},
		{
			name: "Batch calls missing",
			raw: `[{
				"signature": {"signer": {"id": "` + aliceSS58 + `"}},
				"method": {"pallet": "utility", "method": "batchAll"},
				"args": {}
			}]`,
		},
		{
			name: "Derivative inner call not an object",
			raw: `[{
				"signature": {"signer": {"id": "` + aliceSS58 + `"}},
				"method": {"pallet": "utility", "method": "asDerivative"},
				"args": {"index": "0", "call": 42}
			}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extrinsics, err := DecodeExtrinsics(json.RawMessage(tt.raw))
			if err != nil {
				t.Fatalf("DecodeExtrinsics returned an error: %v", err)
			}
			if len(extrinsics) != 1 {
				t.Fatalf("Expected 1 extrinsic, got %d", len(extrinsics))
			}
			if !extrinsics[0].Call.Malformed {
				t.Error("Expected the call to be flagged as malformed")
			}
		})
	}
}

func TestDecodeExtrinsicsEmptyBatch(t *testing.T) {
	raw := json.RawMessage(`[{
		"signature": {"signer": {"id": "` + aliceSS58 + `"}},
		"method": {"pallet": "utility", "method": "batch"},
		"args": {"calls": []}
	}]`)

	extrinsics, err := DecodeExtrinsics(raw)
	if err != nil {
		t.Fatalf("DecodeExtrinsics returned an error: %v", err)
	}
	call := extrinsics[0].Call
	if call.Malformed {
		t.Error("Empty batch flagged as malformed")
	}
	if len(call.Calls) != 0 {
		t.Errorf("Expected no nested calls, got %d", len(call.Calls))
	}
}

func TestDecodeExtrinsicsNotAnArray(t *testing.T) {
	if _, err := DecodeExtrinsics(json.RawMessage(`{"oops": true}`)); err == nil {
		t.Error("Expected an error for a non-array extrinsics field")
	}

	extrinsics, err := DecodeExtrinsics(nil)
	if err != nil {
		t.Fatalf("DecodeExtrinsics(nil) returned an error: %v", err)
	}
	if extrinsics != nil {
		t.Errorf("Expected nil for empty input, got %v", extrinsics)
	}
}
