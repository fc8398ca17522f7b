package testutils

import (
	"crypto/rand"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/hourglass/internal/ledger"
)

func RandomAddress(t *testing.T) ledger.Address {
	var addr ledger.Address
	_, err := rand.Read(addr[:])
	require.NoError(t, err)
	return addr
}

// RandomAmount returns a random value in [1, max].
func RandomAmount(t *testing.T, max uint64) uint64 {
	var buf [8]byte
	_, err := rand.Read(buf[:])
	require.NoError(t, err)
	return binary.BigEndian.Uint64(buf[:])%max + 1
}
