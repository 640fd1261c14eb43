package fad

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
)

func newSidecarTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/":
			fmt.Fprint(w, `{"name": "sidecar"}`)
		case r.URL.Path == "/blocks/head":
			fmt.Fprint(w, sidecarBlockJSON(9999, "[]"))
		case strings.HasPrefix(r.URL.Path, "/blocks/"):
			id, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/blocks/"))
			if err != nil {
				http.NotFound(w, r)
				return
			}
			fmt.Fprint(w, sidecarBlockJSON(id, "[]"))
		case r.URL.Path == "/blocks":
			var first, last int
			if _, err := fmt.Sscanf(r.URL.Query().Get("range"), "%d-%d", &first, &last); err != nil {
				http.NotFound(w, r)
				return
			}
			blocks := make([]string, 0, last-first+1)
			for id := first; id <= last; id++ {
				blocks = append(blocks, sidecarBlockJSON(id, "[]"))
			}
			fmt.Fprint(w, "["+strings.Join(blocks, ",")+"]")
		case strings.HasSuffix(r.URL.Path, "/balance-info"):
			fmt.Fprint(w, `{"nonce": "3", "free": "1000000000000", "reserved": "0"}`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestSidecarPing(t *testing.T) {
	server := newSidecarTestServer(t)
	defer server.Close()

	if err := NewSidecar(server.URL).Ping(); err != nil {
		t.Errorf("Ping returned an error: %v", err)
	}
}

func TestSidecarPingFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	if err := NewSidecar(server.URL).Ping(); err == nil {
		t.Error("Expected Ping to fail")
	}
}

func TestSidecarGetChainHeadID(t *testing.T) {
	server := newSidecarTestServer(t)
	defer server.Close()

	head, err := NewSidecar(server.URL).GetChainHeadID()
	if err != nil {
		t.Fatalf("GetChainHeadID returned an error: %v", err)
	}
	if head != 9999 {
		t.Errorf("Expected head 9999, got %d", head)
	}
}

func TestSidecarFetchBlock(t *testing.T) {
	server := newSidecarTestServer(t)
	defer server.Close()

	block, err := NewSidecar(server.URL).FetchBlock(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchBlock returned an error: %v", err)
	}
	if block.ID != "42" {
		t.Errorf("Expected block 42, got %s", block.ID)
	}
	if !block.Finalized {
		t.Error("Expected a finalized block")
	}
}

func TestSidecarFetchBlockRangeSequential(t *testing.T) {
	server := newSidecarTestServer(t)
	defer server.Close()

	blocks, err := NewSidecar(server.URL).FetchBlockRange(context.Background(), []int{10, 11, 12})
	if err != nil {
		t.Fatalf("FetchBlockRange returned an error: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d", len(blocks))
	}
}

func TestSidecarFetchBlockRangeSparse(t *testing.T) {
	server := newSidecarTestServer(t)
	defer server.Close()

	// non-sequential IDs take the per-block path
	blocks, err := NewSidecar(server.URL).FetchBlockRange(context.Background(), []int{10, 20, 30})
	if err != nil {
		t.Fatalf("FetchBlockRange returned an error: %v", err)
	}
	if len(blocks) != 3 {
		t.Fatalf("Expected 3 blocks, got %d", len(blocks))
	}
	if blocks[1].ID != "20" {
		t.Errorf("Expected block 20, got %s", blocks[1].ID)
	}
}

func TestSidecarFetchBlockRangeEmpty(t *testing.T) {
	blocks, err := NewSidecar("http://unused").FetchBlockRange(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchBlockRange returned an error: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("Expected no blocks, got %d", len(blocks))
	}
}

func TestSidecarGetAccountBalance(t *testing.T) {
	server := newSidecarTestServer(t)
	defer server.Close()

	balance, err := NewSidecar(server.URL).GetAccountBalance(context.Background(), aliceSS58)
	if err != nil {
		t.Fatalf("GetAccountBalance returned an error: %v", err)
	}
	if balance.Address != aliceSS58 {
		t.Errorf("Expected address %s, got %s", aliceSS58, balance.Address)
	}
	if balance.Free != "1000000000000" {
		t.Errorf("Expected free balance 1000000000000, got %s", balance.Free)
	}
}

func TestSidecarRecordsMetrics(t *testing.T) {
	server := newSidecarTestServer(t)
	defer server.Close()

	sidecar := NewSidecar(server.URL)
	if _, err := sidecar.FetchBlock(context.Background(), 1); err != nil {
		t.Fatalf("FetchBlock returned an error: %v", err)
	}
	if _, err := sidecar.FetchBlockRange(context.Background(), []int{2, 3}); err != nil {
		t.Fatalf("FetchBlockRange returned an error: %v", err)
	}

	stats := sidecar.GetStats()
	if stats.BucketsStats[0].Count != 3 {
		t.Errorf("Expected 3 recorded calls, got %d", stats.BucketsStats[0].Count)
	}
}
