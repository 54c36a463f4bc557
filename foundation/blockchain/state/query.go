package state

import (
	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/genesis"
)

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy of the current tip.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveHeight returns the number of blocks in the chain including
// genesis.
func (s *State) RetrieveHeight() uint64 {
	return s.db.Height()
}

// RetrieveBlocks returns the blocks with heights [from, to]. Passing
// QueryLatest for to reads through the current tip.
func (s *State) RetrieveBlocks(from uint64, to uint64) []database.Block {
	return s.db.BlocksInRange(from, to)
}

// RetrieveMempool returns a copy of the pending transactions.
func (s *State) RetrieveMempool() []database.Tx {
	return s.mempool.PickBest(-1)
}

// QueryMempoolLength returns the current number of pending transactions.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// RequiredBits returns the compact difficulty the next block must carry.
func (s *State) RequiredBits() (uint32, error) {
	return s.db.RequiredBits()
}

// CurrentTemplateID returns the template generation submissions must
// reference to be considered.
func (s *State) CurrentTemplateID() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.templateID
}

// ReportedHashRate returns the advisory hashrate attached to the most
// recent accepted submission.
func (s *State) ReportedHashRate() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.lastHashRate
}
