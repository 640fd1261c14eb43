package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/eugypalu/findAsDerivative/fad"
)

func main() {
	address := flag.String("address", "", "parent account (SS58 address or 0x-prefixed public key)")
	index := flag.Uint("index", 0, "derivation index (0-255)")
	network := flag.Int("network", 42, "SS58 network prefix")
	flag.Parse()

	if *address == "" {
		log.Fatal("Please provide an address")
	}

	var parent []byte
	if strings.HasPrefix(*address, "0x") {
		parent = fad.HexToBytes(*address)
	} else {
		raw, err := fad.SS58Decode(*address, *network)
		if err != nil {
			log.Fatalf("Invalid address: %v", err)
		}
		parent = raw
	}

	derived, err := fad.DeriveChild(parent, uint32(*index))
	if err != nil {
		log.Fatalf("Derivation failed: %v", err)
	}

	fmt.Printf("Parent:  %s\n", *address)
	fmt.Printf("Index:   %d\n", *index&0xff)
	fmt.Printf("Derived: %s\n", derived.SS58(*network))
	fmt.Printf("Hex:     %s\n", derived.Hex())
}
