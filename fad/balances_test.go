package fad

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProbeDerivedAccounts(t *testing.T) {
	parent := HexToBytes(aliceHex)

	funded, err := DeriveChild(parent, 3)
	if err != nil {
		t.Fatalf("DeriveChild returned an error: %v", err)
	}
	fundedAddress := funded.SS58(42)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/balance-info") {
			http.NotFound(w, r)
			return
		}
		address := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/accounts/"), "/balance-info")
		free := "0"
		if address == fundedAddress {
			free = "5000000000"
		}
		fmt.Fprintf(w, `{"nonce": "0", "free": "%s", "reserved": "0"}`, free)
	}))
	defer server.Close()

	indices := []uint32{0, 1, 2, 3, 4, 5, 6, 7}
	hits, err := ProbeDerivedAccounts(context.Background(), NewSidecar(server.URL),
		parent, 42, indices, 3, fastRetryConfig(2))
	if err != nil {
		t.Fatalf("ProbeDerivedAccounts returned an error: %v", err)
	}

	if len(hits) != 1 {
		t.Fatalf("Expected 1 funded account, got %d", len(hits))
	}
	if hits[0].Index != 3 {
		t.Errorf("Expected index 3, got %d", hits[0].Index)
	}
	if hits[0].DerivedAccount != fundedAddress {
		t.Errorf("Expected account %s, got %s", fundedAddress, hits[0].DerivedAccount)
	}
	if hits[0].Free != "5000000000" {
		t.Errorf("Expected free balance 5000000000, got %s", hits[0].Free)
	}
}

func TestProbeDerivedAccountsSorted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"nonce": "0", "free": "1", "reserved": "0"}`)
	}))
	defer server.Close()

	indices := []uint32{7, 0, 3, 5, 1}
	hits, err := ProbeDerivedAccounts(context.Background(), NewSidecar(server.URL),
		HexToBytes(aliceHex), 42, indices, 4, fastRetryConfig(1))
	if err != nil {
		t.Fatalf("ProbeDerivedAccounts returned an error: %v", err)
	}

	if len(hits) != len(indices) {
		t.Fatalf("Expected %d hits, got %d", len(indices), len(hits))
	}
	for i := 1; i < len(hits); i++ {
		if hits[i-1].Index >= hits[i].Index {
			t.Fatalf("Hits not sorted by index: %d before %d", hits[i-1].Index, hits[i].Index)
		}
	}
}

func TestProbeDerivedAccountsInvalidParent(t *testing.T) {
	_, err := ProbeDerivedAccounts(context.Background(), NewSidecar("http://unused"),
		make([]byte, 20), 42, []uint32{0}, 1, fastRetryConfig(1))
	if !errors.Is(err, ErrInvalidAccountFormat) {
		t.Errorf("Expected ErrInvalidAccountFormat, got %v", err)
	}
}
