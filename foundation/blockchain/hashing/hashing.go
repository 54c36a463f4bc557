// Package hashing provides the double-SHA256 digest primitives used for
// block identity, transaction digests, and the merkle tree.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
)

// Size is the number of bytes in a digest.
const Size = sha256.Size

// Hash represents a 256 bit digest. The zero value is the all-zero
// digest used as the previous hash of the genesis block.
type Hash [Size]byte

// ZeroHash is the digest value reserved for the genesis linkage.
var ZeroHash Hash

// DoubleSum returns SHA256(SHA256(data)). Double hashing is the legacy
// PoW-chain convention for both block identity and transaction digests.
func DoubleSum(data []byte) Hash {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// IsZero reports whether the hash is the all-zero digest.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String returns the hex encoding of the hash.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// MarshalText implements encoding.TextMarshaler so hashes serialize as
// hex strings in JSON documents and on disk.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(h[:])), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hash) UnmarshalText(text []byte) error {
	if len(text) != Size*2 {
		return fmt.Errorf("invalid hash length %d", len(text))
	}

	if _, err := hex.Decode(h[:], text); err != nil {
		return fmt.Errorf("invalid hash encoding: %w", err)
	}

	return nil
}

// FromString converts a hex string back into a Hash.
func FromString(s string) (Hash, error) {
	var h Hash
	if err := h.UnmarshalText([]byte(s)); err != nil {
		return Hash{}, err
	}

	return h, nil
}

// =============================================================================

// doubleHasher wraps a sha256 hasher so the final Sum is hashed a
// second time. It satisfies the hash.Hash interface expected by the
// merkle tree's hash strategy.
type doubleHasher struct {
	inner hash.Hash
}

// New constructs a hash.Hash that produces double-SHA256 digests.
func New() hash.Hash {
	return &doubleHasher{inner: sha256.New()}
}

func (d *doubleHasher) Write(p []byte) (int, error) {
	return d.inner.Write(p)
}

func (d *doubleHasher) Sum(b []byte) []byte {
	first := d.inner.Sum(nil)
	second := sha256.Sum256(first)
	return append(b, second[:]...)
}

func (d *doubleHasher) Reset() {
	d.inner.Reset()
}

func (d *doubleHasher) Size() int {
	return Size
}

func (d *doubleHasher) BlockSize() int {
	return d.inner.BlockSize()
}
