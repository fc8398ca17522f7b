// Package checksum produces the blake2b state digests that guard
// checkpoint integrity.
package checksum

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Size is the digest length in bytes.
const Size = blake2b.Size256

// Digest is a blake2b-256 digest over a canonical byte stream.
type Digest [Size]byte

// Sum hashes a single buffer.
func Sum(data []byte) Digest {
	return Digest(blake2b.Sum256(data))
}

// Of hashes the concatenation of the given parts. Callers that need
// part boundaries to matter must encode them into the stream.
func Of(parts ...[]byte) Digest {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// Hex renders the digest as lowercase hex.
func (d Digest) Hex() string {
	return hex.EncodeToString(d[:])
}

func (d Digest) String() string {
	return d.Hex()
}
