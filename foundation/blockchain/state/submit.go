package state

import (
	"errors"
	"time"

	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/hashing"
)

// BlockTemplate carries the set of header fields a miner needs to begin
// searching, excluding the nonce. The template id lets workers detect
// that the template has been superseded.
type BlockTemplate struct {
	TemplateID    uint64        `json:"template_id"`
	Version       uint32        `json:"version"`
	PrevBlockHash hashing.Hash  `json:"prev_block_hash"`
	MerkleRoot    hashing.Hash  `json:"merkle_root"`
	TimeStamp     uint64        `json:"timestamp"`
	Difficulty    uint32        `json:"difficulty"`
	Number        uint64        `json:"number"`
	Trans         []database.Tx `json:"trans"`
}

// SubmitStatus describes the outcome of a block submission.
type SubmitStatus int

const (
	// SubmitAccepted means the block passed validation and the chain
	// advanced.
	SubmitAccepted SubmitStatus = iota

	// SubmitStale means the submission referenced a superseded template.
	// Losing the template race is an expected outcome, not a fault, so
	// the block is dropped without an error.
	SubmitStale

	// SubmitRejected means validation failed; the accompanying error
	// names the violated rule and the chain is unchanged.
	SubmitRejected
)

// String implements the fmt.Stringer interface.
func (ss SubmitStatus) String() string {
	switch ss {
	case SubmitAccepted:
		return "accepted"
	case SubmitStale:
		return "stale"
	case SubmitRejected:
		return "rejected"
	}
	return "unknown"
}

// Submission is a solved block handed back by a miner, along with the
// template generation it answers and an advisory hashrate figure.
type Submission struct {
	Block      database.Block
	TemplateID uint64
	HashRate   float64
}

// =============================================================================

// BlockTemplate assembles a template over the transactions currently
// pending at issuance time. The merkle root is fixed here; transactions
// arriving later go into the next template.
func (s *State) BlockTemplate() (BlockTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trans := s.mempool.PickBest(int(s.genesis.TransPerBlock))

	root, err := database.MerkleRoot(trans)
	if err != nil {
		return BlockTemplate{}, err
	}

	bits, err := s.db.RequiredBits()
	if err != nil {
		return BlockTemplate{}, err
	}

	tip := s.db.LatestBlock()

	tmpl := BlockTemplate{
		TemplateID:    s.templateID,
		Version:       1,
		PrevBlockHash: tip.Hash(),
		MerkleRoot:    root,
		TimeStamp:     uint64(time.Now().UTC().Unix()),
		Difficulty:    bits,
		Number:        tip.Header.Number + 1,
		Trans:         trans,
	}

	s.evHandler("state: BlockTemplate: id[%d] height[%d] bits[%#08x] txs[%d]", tmpl.TemplateID, tmpl.Number, tmpl.Difficulty, len(trans))

	return tmpl, nil
}

// SubmitBlock runs a solved block through the full validation gate and,
// on acceptance, advances the chain and supersedes any outstanding
// template. Submissions arrive in any order from any miner; only one
// can ever succeed per template generation.
func (s *State) SubmitBlock(sub Submission) (SubmitStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.TemplateID != s.templateID {
		s.evHandler("state: SubmitBlock: stale template id[%d] current[%d]: discarded", sub.TemplateID, s.templateID)
		return SubmitStale, nil
	}

	err := s.db.Write(sub.Block)
	switch {
	case errors.Is(err, database.ErrPersistence):

		// The block is on the chain; only the storage write failed. The
		// in-memory chain stays authoritative and the gap is reported,
		// not rolled back.
		s.evHandler("state: SubmitBlock: WARNING: %s", err)

	case err != nil:
		s.evHandler("state: SubmitBlock: rejected blk[%d]: %s", sub.Block.Header.Number, err)
		return SubmitRejected, err
	}

	// The chain advanced: retire the mined transactions and supersede
	// any template still being worked on.
	for _, tx := range sub.Block.Trans {
		s.mempool.Delete(tx)
	}
	s.templateID++
	s.lastHashRate = sub.HashRate

	s.evHandler("state: SubmitBlock: accepted blk[%d] tip[%s] next template id[%d]", sub.Block.Header.Number, sub.Block.Hash(), s.templateID)

	if s.worker != nil {
		s.worker.SignalNewTemplate()
	}

	return SubmitAccepted, nil
}

// UpsertMempool adds a new transaction to the mempool. Admission policy
// beyond duplicate suppression belongs to the surrounding service.
func (s *State) UpsertMempool(tx database.Tx) {
	s.mempool.Upsert(tx)
}
