package fad

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/huandu/xstrings"
	substrate "github.com/itering/substrate-api-rpc"
	"github.com/itering/substrate-api-rpc/metadata"
	"github.com/itering/substrate-api-rpc/model"
	rpc "github.com/itering/substrate-api-rpc/rpc"
	"github.com/itering/substrate-api-rpc/websocket"
)

// SubstrateRPCReader implements ChainReader over a node WebSocket using the
// substrate-api-rpc library, as an alternative to the HTTP sidecar. Decoded
// extrinsics are normalized to the sidecar JSON shape so the rest of the
// pipeline has a single input format.
type SubstrateRPCReader struct {
	wsURL       string
	metadatas   map[int]*metadata.Instant
	runtimes    map[string]RuntimeVersion
	metrics     *Metrics
	initialized bool
}

// RuntimeVersion represents the runtime version information.
type RuntimeVersion struct {
	SpecName           string `json:"specName"`
	SpecVersion        int    `json:"specVersion"`
	ImplName           string `json:"implName"`
	TransactionVersion int    `json:"transactionVersion"`
}

// EncodedHeader represents the block header as received via RPC.
type EncodedHeader struct {
	Number         string `json:"number"`
	ParentHash     string `json:"parentHash"`
	StateRoot      string `json:"stateRoot"`
	ExtrinsicsRoot string `json:"extrinsicsRoot"`
}

// EncodedBlock represents a block received via RPC.
type EncodedBlock struct {
	Block struct {
		Header     EncodedHeader `json:"header"`
		Extrinsics []string      `json:"extrinsics"`
	} `json:"block"`
}

func NewSubstrateRPCReader(wsURL string) *SubstrateRPCReader {
	return &SubstrateRPCReader{
		wsURL:     wsURL,
		metadatas: make(map[int]*metadata.Instant),
		runtimes:  make(map[string]RuntimeVersion),
		metrics:   NewMetrics("SubstrateRPC"),
	}
}

// initialize connects to the WebSocket and fetches runtime and metadata.
func (r *SubstrateRPCReader) initialize(blockID int) error {
	if r.initialized {
		return nil
	}

	websocket.SetEndpoint(r.wsURL)

	blockHash, err := rpc.GetChainGetBlockHash(nil, blockID)
	if err != nil {
		return fmt.Errorf("failed to get block %d hash: %w", blockID, err)
	}

	runtime, err := r.getRuntime(blockID, blockHash)
	if err != nil {
		return err
	}
	r.runtimes["chain"] = runtime

	meta, err := r.getMetadata(runtime.SpecVersion, blockHash)
	if err != nil {
		return err
	}
	r.metadatas[runtime.SpecVersion] = meta
	r.initialized = true

	return nil
}

func (r *SubstrateRPCReader) getRuntime(blockID int, blockHash string) (RuntimeVersion, error) {
	var result model.JsonRpcResult
	request := rpc.ChainGetRuntimeVersion(blockID, blockHash)
	if err := websocket.SendWsRequest(nil, &result, request); err != nil {
		return RuntimeVersion{}, fmt.Errorf("failed to send runtime version request: %w", err)
	}
	if result.Error != nil {
		return RuntimeVersion{}, fmt.Errorf("RPC error fetching runtime version: %v", result.Error)
	}
	if result.Result == nil {
		return RuntimeVersion{}, fmt.Errorf("received nil result for runtime version")
	}

	resultBytes, err := json.Marshal(result.Result)
	if err != nil {
		return RuntimeVersion{}, fmt.Errorf("failed to marshal runtime version result: %w", err)
	}

	var runtimeVersion RuntimeVersion
	if err := json.Unmarshal(resultBytes, &runtimeVersion); err != nil {
		return RuntimeVersion{}, fmt.Errorf("failed to unmarshal runtime version: %w", err)
	}
	if runtimeVersion.SpecVersion == 0 {
		return RuntimeVersion{}, fmt.Errorf("received runtime version with specVersion 0")
	}

	return runtimeVersion, nil
}

func (r *SubstrateRPCReader) getMetadata(specVersion int, blockHash string) (*metadata.Instant, error) {
	rawMetadata, err := rpc.GetMetadataByHash(nil, blockHash)
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata by hash %s: %w", blockHash, err)
	}
	if rawMetadata == "" {
		return nil, fmt.Errorf("received empty metadata for hash %s", blockHash)
	}

	meta := metadata.RegNewMetadataType(specVersion, rawMetadata)
	if meta == nil {
		return nil, fmt.Errorf("failed to process metadata for spec %d", specVersion)
	}

	return meta, nil
}

// GetChainHeadID implements ChainReader.
func (r *SubstrateRPCReader) GetChainHeadID() (int, error) {
	start := time.Now()
	var callErr error
	defer func() {
		r.metrics.RecordLatency(start, 1, callErr)
	}()

	if err := r.initialize(1); err != nil {
		callErr = err
		return -1, fmt.Errorf("failed to initialize: %w", err)
	}

	// -1 resolves to the latest block
	blockHash, err := rpc.GetChainGetBlockHash(nil, -1)
	if err != nil {
		callErr = err
		return -1, fmt.Errorf("failed to get head block hash: %w", err)
	}

	encodedBlock, err := r.fetchBlockDetails(blockHash)
	if err != nil {
		callErr = err
		return -1, err
	}

	blockNum, err := strconv.ParseInt(encodedBlock.Block.Header.Number, 0, 64)
	if err != nil {
		callErr = err
		return -1, fmt.Errorf("failed to parse head block number: %w", err)
	}

	return int(blockNum), nil
}

// FetchBlock implements ChainReader.
func (r *SubstrateRPCReader) FetchBlock(ctx context.Context, id int) (BlockData, error) {
	start := time.Now()
	var callErr error
	defer func() {
		r.metrics.RecordLatency(start, 1, callErr)
	}()

	if err := r.initialize(id); err != nil {
		callErr = err
		return BlockData{}, fmt.Errorf("failed to initialize: %w", err)
	}

	hash, err := rpc.GetChainGetBlockHash(nil, id)
	if err != nil {
		callErr = err
		return BlockData{}, fmt.Errorf("failed to get block %d hash: %w", id, err)
	}

	encodedBlock, err := r.fetchBlockDetails(hash)
	if err != nil {
		callErr = err
		return BlockData{}, fmt.Errorf("error fetching block details for %d: %w", id, err)
	}

	runtimeInfo, ok := r.runtimes["chain"]
	if !ok {
		callErr = fmt.Errorf("runtime info not found for block %d", id)
		return BlockData{}, callErr
	}
	meta, ok := r.metadatas[runtimeInfo.SpecVersion]
	if !ok {
		callErr = fmt.Errorf("metadata for spec version %d not found", runtimeInfo.SpecVersion)
		return BlockData{}, callErr
	}

	decoded, err := substrate.DecodeExtrinsic(encodedBlock.Block.Extrinsics, meta, runtimeInfo.SpecVersion)
	if err != nil {
		callErr = err
		return BlockData{}, fmt.Errorf("failed to decode extrinsics of block %d: %w", id, err)
	}

	block := BlockData{
		ID:             strconv.Itoa(id),
		Hash:           hash,
		ParentHash:     encodedBlock.Block.Header.ParentHash,
		StateRoot:      encodedBlock.Block.Header.StateRoot,
		ExtrinsicsRoot: encodedBlock.Block.Header.ExtrinsicsRoot,
		Finalized:      true,
		Logs:           json.RawMessage("[]"),
		Extrinsics:     normalizeExtrinsics(decoded),
	}

	return block, nil
}

// FetchBlockRange implements ChainReader.
func (r *SubstrateRPCReader) FetchBlockRange(ctx context.Context, blockIDs []int) ([]BlockData, error) {
	if len(blockIDs) == 0 {
		return []BlockData{}, nil
	}

	start := time.Now()
	var callErr error
	defer func() {
		r.metrics.RecordLatency(start, len(blockIDs), callErr)
	}()

	blocks := make([]BlockData, 0, len(blockIDs))
	for _, id := range blockIDs {
		select {
		case <-ctx.Done():
			callErr = ctx.Err()
			return blocks, ctx.Err()
		default:
			block, err := r.FetchBlock(ctx, id)
			if err != nil {
				callErr = err
				return nil, fmt.Errorf("error fetching block %d: %w", id, err)
			}
			blocks = append(blocks, block)
		}
	}

	return blocks, nil
}

// Ping implements ChainReader.
func (r *SubstrateRPCReader) Ping() error {
	_, err := r.GetChainHeadID()
	return err
}

// GetStats implements ChainReader.
func (r *SubstrateRPCReader) GetStats() *MetricsStats {
	return r.metrics.GetStats()
}

func (r *SubstrateRPCReader) fetchBlockDetails(blockHash string) (EncodedBlock, error) {
	request := rpc.ChainGetBlock(rand.Intn(10000), blockHash)
	var result model.JsonRpcResult
	if err := websocket.SendWsRequest(nil, &result, request); err != nil {
		return EncodedBlock{}, fmt.Errorf("failed to send block request: %w", err)
	}
	if result.Error != nil {
		return EncodedBlock{}, fmt.Errorf("RPC error fetching block: %v", result.Error)
	}
	if result.Result == nil {
		return EncodedBlock{}, fmt.Errorf("received nil result for block")
	}

	resultBytes, err := json.Marshal(result.Result)
	if err != nil {
		return EncodedBlock{}, fmt.Errorf("failed to marshal block result: %w", err)
	}

	var block EncodedBlock
	if err := json.Unmarshal(resultBytes, &block); err != nil {
		return EncodedBlock{}, fmt.Errorf("failed to unmarshal block: %w", err)
	}

	return block, nil
}

// normalizeExtrinsics rewrites SCALE-decoded extrinsics into the sidecar
// JSON shape consumed by DecodeExtrinsics: call_module/call_function become
// method.pallet/method.method and the params list becomes an args object.
func normalizeExtrinsics(decoded []map[string]interface{}) json.RawMessage {
	normalized := make([]map[string]interface{}, 0, len(decoded))
	for _, extrinsic := range decoded {
		item := normalizeCall(extrinsic)

		signer, _ := extrinsic["address"].(string)
		if signer == "" {
			signer, _ = extrinsic["account_id"].(string)
		}
		if signer != "" {
			item["signature"] = map[string]interface{}{
				"signer": map[string]interface{}{"id": AddHex(signer)},
			}
		}

		normalized = append(normalized, item)
	}

	out, err := json.Marshal(normalized)
	if err != nil {
		return json.RawMessage("[]")
	}
	return out
}

func normalizeCall(call map[string]interface{}) map[string]interface{} {
	pallet, _ := call["call_module"].(string)
	method, _ := call["call_function"].(string)

	args := make(map[string]interface{})
	if params, ok := call["params"].([]interface{}); ok {
		for _, p := range params {
			param, ok := p.(map[string]interface{})
			if !ok {
				continue
			}
			name, _ := param["name"].(string)
			if name == "" {
				continue
			}
			args[name] = normalizeParamValue(param["value"])
		}
	}

	return map[string]interface{}{
		"method": map[string]interface{}{
			"pallet": xstrings.FirstRuneToLower(xstrings.ToCamelCase(pallet)),
			"method": xstrings.FirstRuneToLower(xstrings.ToCamelCase(method)),
		},
		"args": args,
	}
}

func normalizeParamValue(value interface{}) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		if _, ok := v["call_module"]; ok {
			return normalizeCall(v)
		}
		return v
	case []interface{}:
		out := make([]interface{}, 0, len(v))
		for _, item := range v {
			out = append(out, normalizeParamValue(item))
		}
		return out
	default:
		return value
	}
}
