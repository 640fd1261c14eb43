package fad

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// DerivationPrefix is the constant the utility pallet prepends when it
// computes a derivative sub-account from a signing account.
const DerivationPrefix = "modlpy/utilisuba"

// AccountIDLength is the raw length of a chain account identifier.
const AccountIDLength = 32

// AccountID is a raw 32-byte chain account identifier.
type AccountID [AccountIDLength]byte

var ErrInvalidAccountFormat = errors.New("invalid account format")

// Hex returns the 0x-prefixed hex form of the account.
func (a AccountID) Hex() string {
	return AddHex(BytesToHex(a[:]))
}

// SS58 returns the SS58 form of the account under the given network prefix.
func (a AccountID) SS58(network int) string {
	return SS58Encode(a, network)
}

// AccountIDFromBytes converts raw bytes into an AccountID, rejecting
// anything that is not exactly 32 bytes.
func AccountIDFromBytes(b []byte) (AccountID, error) {
	var a AccountID
	if len(b) != AccountIDLength {
		return a, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAccountFormat, AccountIDLength, len(b))
	}
	copy(a[:], b)
	return a, nil
}

// DeriveChild computes the derivative sub-account controlled by parent at
// the given index. The scheme hashes the fixed pallet prefix, the raw
// parent account and a single index byte with blake2b-256; only the low 8
// bits of index participate, so derive(p, i) == derive(p, i+256).
func DeriveChild(parent []byte, index uint32) (AccountID, error) {
	if len(parent) != AccountIDLength {
		return AccountID{}, fmt.Errorf("%w: parent must be exactly %d bytes, got %d",
			ErrInvalidAccountFormat, AccountIDLength, len(parent))
	}

	buf := make([]byte, 0, len(DerivationPrefix)+AccountIDLength+1)
	buf = append(buf, DerivationPrefix...)
	buf = append(buf, parent...)
	buf = append(buf, byte(index&0xff))

	return AccountID(blake2b.Sum256(buf)), nil
}
