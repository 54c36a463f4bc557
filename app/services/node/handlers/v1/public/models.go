package public

import "github.com/cometchain/comet/foundation/blockchain/database"

// submitBlock is the wire form of a block submission.
type submitBlock struct {
	Block      database.BlockData `json:"block"`
	TemplateID uint64             `json:"template_id"`
	HashRate   float64            `json:"hash_rate"`
}

// submitResult is the answer to a block submission.
type submitResult struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// newTx is the payload for adding a transaction to the mempool. Only
// the opaque data kind exists today.
type newTx struct {
	Kind byte   `json:"kind" validate:"required,eq=1"`
	Data []byte `json:"data" validate:"required,max=1024"`
}

// miningInfo describes the work currently offered to miners.
type miningInfo struct {
	Height      uint64  `json:"height"`
	TemplateID  uint64  `json:"template_id"`
	Difficulty  uint32  `json:"difficulty"`
	Target      string  `json:"target"`
	HashRate    float64 `json:"hash_rate"`
	MempoolSize int     `json:"mempool_size"`
}

// chainInfo summarizes the chain this node maintains.
type chainInfo struct {
	ChainID    uint16 `json:"chain_id"`
	Name       string `json:"name"`
	Height     uint64 `json:"height"`
	LatestHash string `json:"latest_hash"`
	Difficulty uint32 `json:"difficulty"`
}
