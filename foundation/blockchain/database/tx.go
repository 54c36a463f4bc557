package database

import (
	"bytes"
	"fmt"

	"github.com/cometchain/comet/foundation/blockchain/hashing"
)

// TxKind tags the payload variant carried by a transaction. The
// consensus core never interprets payload semantics; the tag only keeps
// the serialization and digest contract stable if variants are added.
type TxKind byte

// TxKindData is the only kind currently in use: an opaque byte payload.
const TxKindData TxKind = 0x01

// Tx represents a transaction as the consensus core sees it: a tagged,
// opaque payload identified by its content digest.
type Tx struct {
	Kind TxKind `json:"kind"`
	Data []byte `json:"data"`
}

// NewTx constructs a transaction around an opaque payload.
func NewTx(data []byte) Tx {
	return Tx{
		Kind: TxKindData,
		Data: data,
	}
}

// Digest returns the double-SHA256 content digest of the transaction.
func (tx Tx) Digest() hashing.Hash {
	return hashing.DoubleSum(append([]byte{byte(tx.Kind)}, tx.Data...))
}

// Hash implements the merkle Hashable interface, providing the leaf
// digest for the transaction.
func (tx Tx) Hash() ([]byte, error) {
	digest := tx.Digest()
	return digest[:], nil
}

// Equals implements the merkle Hashable interface, testing two
// transactions for content equality.
func (tx Tx) Equals(other Tx) bool {
	return tx.Kind == other.Kind && bytes.Equal(tx.Data, other.Data)
}

// String returns a short description of the transaction for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("tx[%s] bytes[%d]", tx.Digest(), len(tx.Data))
}
