package fad

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/blake2b"
)

const (
	// alphabet is the modified base58 alphabet used by Bitcoin.
	alphabet     = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"
	alphabetIdx0 = '1'

	ss58ChecksumPrefix = "SS58PRE"
)

var b58 = func() (t [256]byte) {
	for i := range t {
		t[i] = 255
	}
	for i := 0; i < len(alphabet); i++ {
		t[alphabet[i]] = byte(i)
	}
	return
}()

func AddHex(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	if strings.HasPrefix(s, "0x") {
		return s
	}
	return strings.ToLower("0x" + s)
}

func TrimHex(s string) string {
	return strings.TrimPrefix(s, "0x")
}

func HexToBytes(s string) []byte {
	s = strings.TrimPrefix(s, "0x")
	c := make([]byte, hex.DecodedLen(len(s)))
	_, _ = hex.Decode(c, []byte(s))
	return c
}

func BytesToHex(b []byte) string {
	c := make([]byte, hex.EncodedLen(len(b)))
	hex.Encode(c, b)
	return string(c)
}

var bigRadix = big.NewInt(58)
var bigZero = big.NewInt(0)

// base58Decode decodes a modified base58 string to a byte slice.
func base58Decode(b string) []byte {
	answer := big.NewInt(0)
	j := big.NewInt(1)

	scratch := new(big.Int)
	for i := len(b) - 1; i >= 0; i-- {
		tmp := b58[b[i]]
		if tmp == 255 {
			return nil
		}
		scratch.SetInt64(int64(tmp))
		scratch.Mul(j, scratch)
		answer.Add(answer, scratch)
		j.Mul(j, bigRadix)
	}

	tmpval := answer.Bytes()

	var numZeros int
	for numZeros = 0; numZeros < len(b); numZeros++ {
		if b[numZeros] != alphabetIdx0 {
			break
		}
	}
	flen := numZeros + len(tmpval)
	val := make([]byte, flen)
	copy(val[numZeros:], tmpval)

	return val
}

// base58Encode encodes a byte slice to a modified base58 string.
func base58Encode(b []byte) string {
	x := new(big.Int)
	x.SetBytes(b)

	answer := make([]byte, 0, len(b)*136/100)
	for x.Cmp(bigZero) > 0 {
		mod := new(big.Int)
		x.DivMod(x, bigRadix, mod)
		answer = append(answer, alphabet[mod.Int64()])
	}

	// leading zero bytes
	for _, i := range b {
		if i != 0 {
			break
		}
		answer = append(answer, alphabetIdx0)
	}

	// reverse
	alen := len(answer)
	for i := 0; i < alen/2; i++ {
		answer[i], answer[alen-1-i] = answer[alen-1-i], answer[i]
	}

	return string(answer)
}

func ss58Checksum(payload []byte) []byte {
	h, _ := blake2b.New(64, nil)
	h.Write([]byte(ss58ChecksumPrefix))
	h.Write(payload)
	return h.Sum(nil)
}

// SS58Encode encodes a 32-byte account under the given network prefix.
// Only single-byte network prefixes (0..63) are supported, which covers
// Polkadot (0), Kusama (2) and generic Substrate (42).
func SS58Encode(account AccountID, network int) string {
	payload := append([]byte{byte(network)}, account[:]...)
	checksum := ss58Checksum(payload)
	return base58Encode(append(payload, checksum[:2]...))
}

// SS58Decode decodes an SS58 address, verifying the network prefix and the
// checksum, and returns the raw account bytes.
func SS58Decode(address string, network int) ([]byte, error) {
	raw := base58Decode(address)
	if len(raw) == 0 {
		return nil, fmt.Errorf("address %q is not valid base58", address)
	}
	if raw[0] != byte(network) {
		return nil, fmt.Errorf("address %q has network prefix %d, expected %d", address, raw[0], network)
	}

	var checksumLength int
	switch len(raw) {
	case 3, 4, 6, 10:
		checksumLength = 1
	case 5, 7, 11, 35:
		checksumLength = 2
	case 8, 12:
		checksumLength = 3
	case 9, 13:
		checksumLength = 4
	case 14:
		checksumLength = 5
	case 15:
		checksumLength = 6
	case 16:
		checksumLength = 7
	case 17:
		checksumLength = 8
	default:
		return nil, fmt.Errorf("address %q has unexpected length %d", address, len(raw))
	}

	payload := raw[:len(raw)-checksumLength]
	checksum := ss58Checksum(payload)
	if BytesToHex(checksum[:checksumLength]) != BytesToHex(raw[len(raw)-checksumLength:]) {
		return nil, fmt.Errorf("address %q has an invalid checksum", address)
	}

	return payload[1:], nil
}
