// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"

	"github.com/cometchain/comet/foundation/blockchain/difficulty"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date"`
	ChainID         uint16    `json:"chain_id"`          // An unique id for this running instance.
	Name            string    `json:"name"`              // Human readable chain name reported by the API.
	DifficultyBits  uint32    `json:"difficulty_bits"`   // Compact difficulty assigned to the first blocks.
	TargetBlockTime uint32    `json:"target_block_time"` // Desired seconds between blocks.
	AdjustInterval  uint16    `json:"adjust_interval"`   // Blocks between difficulty recalculations.
	TransPerBlock   uint16    `json:"trans_per_block"`   // The maximum number of transactions that can be in a block.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}

// Default returns the genesis document used when no file exists on disk.
// The difficulty starts at the pow limit so the first blocks are cheap
// to mine and the adjustment rule takes over from there.
func Default() Genesis {
	return Genesis{
		Date:            time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
		ChainID:         1,
		Name:            "comet-main",
		DifficultyBits:  difficulty.PowLimitBits,
		TargetBlockTime: difficulty.TargetBlockTime,
		AdjustInterval:  difficulty.AdjustInterval,
		TransPerBlock:   100,
	}
}
