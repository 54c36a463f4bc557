// Package database maintains the canonical chain of blocks in memory
// and behind a pluggable storage backend. One Database value is the
// chain owner: every append is serialized through its validation gate
// and no other code mutates the chain.
package database

import (
	"fmt"
	"sync"
	"time"

	"github.com/cometchain/comet/foundation/blockchain/difficulty"
	"github.com/cometchain/comet/foundation/blockchain/genesis"
	"github.com/cometchain/comet/foundation/blockchain/hashing"
)

// Serializer interface represents the behavior required to be implemented
// by any package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented
// by any package providing support to iterate over the stored blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the canonical chain of blocks.
type Database struct {
	mu sync.RWMutex

	genesis    genesis.Genesis
	blocks     []Block
	serializer Serializer
	evHandler  func(v string, args ...any)
}

// New constructs the chain owner, builds the fixed genesis block from
// the genesis document, and replays any blocks found in storage through
// full validation.
func New(gen genesis.Genesis, serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		genesis:    gen,
		blocks:     []Block{GenesisBlock(gen)},
		serializer: serializer,
		evHandler:  ev,
	}

	// Replay the chain from storage. Every stored block revalidates
	// against the chain built so far, so a corrupted or truncated
	// store is caught at startup rather than extended.
	iter := serializer.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		// The genesis block is constructed, never loaded.
		if block.Header.Number == 0 {
			continue
		}

		expectedBits, err := requiredBits(db.blocks, gen)
		if err != nil {
			return nil, err
		}

		if err := block.ValidateBlock(db.blocks[len(db.blocks)-1], expectedBits, time.Now().UTC(), ev); err != nil {
			return nil, fmt.Errorf("replaying block %d: %w", block.Header.Number, err)
		}

		db.blocks = append(db.blocks, block)
	}

	ev("database: New: loaded chain: height[%d] tip[%s]", db.blocks[len(db.blocks)-1].Header.Number, db.blocks[len(db.blocks)-1].Hash())

	return &db, nil
}

// GenesisBlock constructs the fixed block at index 0: zero previous
// hash, no transactions, the genesis document's difficulty, nonce
// zero. It is exempt from the proof-of-work predicate.
func GenesisBlock(gen genesis.Genesis) Block {
	root, _ := MerkleRoot(nil)

	return Block{
		Header: BlockHeader{
			Version:       1,
			PrevBlockHash: hashing.ZeroHash,
			MerkleRoot:    root,
			TimeStamp:     uint64(gen.Date.Unix()),
			Difficulty:    gen.DifficultyBits,
			Nonce:         0,
			Number:        0,
		},
	}
}

// Close releases the underlying storage.
func (db *Database) Close() {
	db.serializer.Close()
}

// =============================================================================

// Write validates the candidate block against the current tip and, if
// every rule passes, appends it and advances the tip atomically. A
// validation failure leaves the chain untouched. A storage failure
// after the in-memory append returns ErrPersistence; the in-memory
// chain remains authoritative.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	expectedBits, err := requiredBits(db.blocks, db.genesis)
	if err != nil {
		return err
	}

	if err := block.ValidateBlock(db.blocks[len(db.blocks)-1], expectedBits, time.Now().UTC(), db.evHandler); err != nil {
		return err
	}

	db.blocks = append(db.blocks, block)

	if err := db.serializer.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("%w: %s", ErrPersistence, err)
	}

	return nil
}

// LatestBlock returns the current tip of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// Height returns the number of blocks in the chain including genesis.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return uint64(len(db.blocks))
}

// GetBlock returns the block at the specified height.
func (db *Database) GetBlock(number uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if number >= uint64(len(db.blocks)) {
		return Block{}, fmt.Errorf("block %d beyond tip %d", number, len(db.blocks)-1)
	}

	return db.blocks[number], nil
}

// BlocksInRange returns the blocks with heights in [from, to]. A to
// value beyond the tip is clipped.
func (db *Database) BlocksInRange(from uint64, to uint64) []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	tip := uint64(len(db.blocks) - 1)
	if to > tip {
		to = tip
	}
	if from > to {
		return nil
	}

	blocks := make([]Block, 0, to-from+1)
	for i := from; i <= to; i++ {
		blocks = append(blocks, db.blocks[i])
	}

	return blocks
}

// RequiredBits returns the compact difficulty the next accepted block
// must carry. The value is a step function of height: it only changes
// on adjustment-interval boundaries.
func (db *Database) RequiredBits() (uint32, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return requiredBits(db.blocks, db.genesis)
}

// =============================================================================

// requiredBits computes the difficulty schedule for the next block of
// the given chain. On an adjustment boundary the tip's target scales by
// how long the last interval of blocks actually took; everywhere else
// the tip's difficulty carries forward unchanged.
func requiredBits(blocks []Block, gen genesis.Genesis) (uint32, error) {
	interval := int(gen.AdjustInterval)
	if interval == 0 {
		interval = difficulty.AdjustInterval
	}

	tip := blocks[len(blocks)-1]

	if len(blocks) < interval || len(blocks)%interval != 0 {
		return tip.Header.Difficulty, nil
	}

	spacing := int64(gen.TargetBlockTime)
	if spacing == 0 {
		spacing = difficulty.TargetBlockTime
	}

	window := blocks[len(blocks)-interval:]
	first := window[0]

	newBits, err := difficulty.Adjust(first.Header.TimeStamp, tip.Header.TimeStamp, tip.Header.Difficulty, spacing*int64(interval))
	if err != nil {
		return 0, fmt.Errorf("adjusting difficulty at height %d: %w", tip.Header.Number, err)
	}

	return newBits, nil
}
