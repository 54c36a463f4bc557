package database

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cometchain/comet/foundation/blockchain/difficulty"
	"github.com/cometchain/comet/foundation/blockchain/hashing"
	"github.com/cometchain/comet/foundation/blockchain/merkle"
)

// HeaderLen is the size of the serialized header used for hashing:
// version, previous hash, merkle root, timestamp, difficulty, nonce.
const HeaderLen = 4 + hashing.Size + hashing.Size + 8 + 4 + 8

// NonceOffset is the byte position of the nonce inside the serialized
// header. Mining rewrites just these 8 bytes between hash attempts.
const NonceOffset = HeaderLen - 8

// maxFutureDrift is how far ahead of local time a block timestamp may
// sit before the block is rejected.
const maxFutureDrift = 2 * time.Hour

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Version       uint32       `json:"version"`         // Header format version.
	PrevBlockHash hashing.Hash `json:"prev_block_hash"` // Digest of the previous block in the chain.
	MerkleRoot    hashing.Hash `json:"merkle_root"`     // Merkle tree root hash over the transactions in this block.
	TimeStamp     uint64       `json:"timestamp"`       // Time the block was assembled, seconds since epoch.
	Difficulty    uint32       `json:"difficulty"`      // Compact encoding of the proof-of-work target.
	Nonce         uint64       `json:"nonce"`           // Value identified to satisfy the proof of work.
	Number        uint64       `json:"number"`          // Block height, 0 for genesis. Not part of the identity.
}

// Bytes serializes the identity fields of the header into the fixed
// binary layout that gets hashed. The block number is chain position,
// not content, so it stays out.
func (h BlockHeader) Bytes() [HeaderLen]byte {
	var buf [HeaderLen]byte

	binary.BigEndian.PutUint32(buf[0:4], h.Version)
	copy(buf[4:36], h.PrevBlockHash[:])
	copy(buf[36:68], h.MerkleRoot[:])
	binary.BigEndian.PutUint64(buf[68:76], h.TimeStamp)
	binary.BigEndian.PutUint32(buf[76:80], h.Difficulty)
	binary.BigEndian.PutUint64(buf[NonceOffset:], h.Nonce)

	return buf
}

// Hash returns the unique identity of the header: the double-SHA256
// digest of its serialized form.
func (h BlockHeader) Hash() hashing.Hash {
	buf := h.Bytes()
	return hashing.DoubleSum(buf[:])
}

// =============================================================================

// Block represents a group of transactions batched together under a
// proof-of-work committed header.
type Block struct {
	Header BlockHeader
	Trans  []Tx
}

// Hash returns the unique hash for the Block.
//
// CORE NOTE: Hashing the block header and not the whole block so the
// chain can be cryptographically checked by only needing block headers
// and not full blocks with the transaction data. The merkle root inside
// the header commits the transactions.
func (b Block) Hash() hashing.Hash {
	return b.Header.Hash()
}

// MerkleRoot computes the root digest over a sequence of transactions.
// An empty sequence hashes the empty byte string; an odd count at any
// tree level pairs the last node with itself.
func MerkleRoot(trans []Tx) (hashing.Hash, error) {
	if len(trans) == 0 {
		return hashing.DoubleSum(nil), nil
	}

	tree, err := merkle.NewTree(trans)
	if err != nil {
		return hashing.Hash{}, err
	}

	var root hashing.Hash
	copy(root[:], tree.MerkleRoot)

	return root, nil
}

// ValidateBlock takes a candidate block and validates it for inclusion
// on top of the specified previous block. Checks run in order and stop
// at the first failure so the error names the violated rule. A nil
// error means every rule passed.
func (b Block) ValidateBlock(previous Block, expectedBits uint32, now time.Time, evHandler func(v string, args ...any)) error {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	ev("database: ValidateBlock: blk[%d]: check: previous hash matches the chain tip", b.Header.Number)

	if b.Header.PrevBlockHash != previous.Hash() {
		return fmt.Errorf("got %s, exp %s: %w", b.Header.PrevBlockHash, previous.Hash(), ErrLinkage)
	}

	ev("database: ValidateBlock: blk[%d]: check: merkle root matches the transactions", b.Header.Number)

	root, err := MerkleRoot(b.Trans)
	if err != nil {
		return fmt.Errorf("computing merkle root: %w", err)
	}
	if b.Header.MerkleRoot != root {
		return fmt.Errorf("got %s, exp %s: %w", root, b.Header.MerkleRoot, ErrMerkleMismatch)
	}

	ev("database: ValidateBlock: blk[%d]: check: header digest satisfies the proof of work", b.Header.Number)

	target, err := difficulty.TargetBytes(b.Header.Difficulty)
	if err != nil {
		return fmt.Errorf("expanding difficulty: %w", err)
	}
	if !difficulty.Solves(b.Hash(), target) {
		return fmt.Errorf("digest %s above target: %w", b.Hash(), ErrInsufficientWork)
	}

	ev("database: ValidateBlock: blk[%d]: check: difficulty matches the chain schedule", b.Header.Number)

	if b.Header.Difficulty != expectedBits {
		return fmt.Errorf("got %#08x, exp %#08x: %w", b.Header.Difficulty, expectedBits, ErrWrongDifficulty)
	}

	ev("database: ValidateBlock: blk[%d]: check: timestamp is not absurdly far in the future", b.Header.Number)

	limit := uint64(now.Add(maxFutureDrift).Unix())
	if b.Header.TimeStamp > limit {
		return fmt.Errorf("timestamp %d beyond limit %d: %w", b.Header.TimeStamp, limit, ErrBadTimestamp)
	}

	return nil
}

// =============================================================================

// BlockData represents what can be serialized to disk and over the network.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []Tx        `json:"trans"`
}

// NewBlockData constructs block data from a block, recording the
// identity digest alongside the header.
func NewBlockData(block Block) BlockData {
	blockData := BlockData{
		Hash:   block.Hash().String(),
		Header: block.Header,
		Trans:  block.Trans,
	}

	return blockData
}

// ToBlock converts a storage block into a database block.
func ToBlock(blockData BlockData) (Block, error) {
	block := Block{
		Header: blockData.Header,
		Trans:  blockData.Trans,
	}

	// The recorded digest has to agree with the header it travels with.
	if blockData.Hash != block.Hash().String() {
		return Block{}, fmt.Errorf("recorded hash %s doesn't match header digest %s", blockData.Hash, block.Hash())
	}

	return block, nil
}
