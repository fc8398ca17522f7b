package ledger

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressSize is the length of an account address in bytes.
const AddressSize = 20

// Address identifies an account. The zero value is reserved: the token
// entry points treat it as "no account" and refuse to mint to, burn
// from, or transfer through it.
type Address [AddressSize]byte

// ZeroAddress is the reserved all-zero address.
var ZeroAddress = Address{}

// AddressFromHex parses a 40-digit hex address, with or without a 0x
// prefix.
func AddressFromHex(s string) (Address, error) {
	var a Address
	s = strings.TrimPrefix(s, "0x")
	if len(s) != AddressSize*2 {
		return a, fmt.Errorf("address must be %d hex digits, got %d", AddressSize*2, len(s))
	}
	if _, err := hex.Decode(a[:], []byte(s)); err != nil {
		return a, fmt.Errorf("decoding address: %w", err)
	}
	return a, nil
}

// Hex renders the address as 0x-prefixed lowercase hex.
func (a Address) Hex() string {
	return "0x" + hex.EncodeToString(a[:])
}

func (a Address) String() string {
	return a.Hex()
}

// IsZero reports whether a is the reserved zero address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}
