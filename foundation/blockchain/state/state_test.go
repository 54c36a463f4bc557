package state_test

import (
	"errors"
	"testing"
	"time"

	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/database/storage/memory"
	"github.com/cometchain/comet/foundation/blockchain/difficulty"
	"github.com/cometchain/comet/foundation/blockchain/genesis"
	"github.com/cometchain/comet/foundation/blockchain/state"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func testGenesis() genesis.Genesis {
	return genesis.Genesis{
		Date:            time.Now().UTC().Add(-2 * time.Hour),
		ChainID:         99,
		Name:            "comet-test",
		DifficultyBits:  difficulty.PowLimitBits,
		TargetBlockTime: 1,
		AdjustInterval:  3,
		TransPerBlock:   10,
	}
}

func newState(t *testing.T) *state.State {
	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
	}

	st, err := state.New(state.Config{
		Genesis: testGenesis(),
		Storage: storage,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	return st
}

// solveTemplate assembles a block from the template and searches nonces
// until the proof of work is satisfied.
func solveTemplate(t *testing.T, tmpl state.BlockTemplate) database.Block {
	block := database.Block{
		Header: database.BlockHeader{
			Version:       tmpl.Version,
			PrevBlockHash: tmpl.PrevBlockHash,
			MerkleRoot:    tmpl.MerkleRoot,
			TimeStamp:     tmpl.TimeStamp,
			Difficulty:    tmpl.Difficulty,
			Number:        tmpl.Number,
		},
		Trans: tmpl.Trans,
	}

	target, err := difficulty.TargetBytes(tmpl.Difficulty)
	if err != nil {
		t.Fatalf("\t%s\tShould be able to expand the target: %v", failed, err)
	}

	for nonce := uint64(0); ; nonce++ {
		block.Header.Nonce = nonce
		if difficulty.Solves(block.Hash(), target) {
			return block
		}
	}
}

// =============================================================================

func Test_TemplateLifecycle(t *testing.T) {
	t.Log("Given the need to validate the template and submission lifecycle.")
	{
		st := newState(t)
		defer st.Shutdown()

		signals := &signalCounter{}
		st.RegisterWorker(signals)

		st.UpsertMempool(database.NewTx([]byte("tx one")))
		st.UpsertMempool(database.NewTx([]byte("tx two")))

		var tmpl state.BlockTemplate

		t.Logf("\tTest 0:\tWhen asking for a template.")
		{
			var err error
			tmpl, err = st.BlockTemplate()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to get a template: %v", failed, err)
			}

			if tmpl.TemplateID != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould start at template generation one: got %d", failed, tmpl.TemplateID)
			}
			t.Logf("\t%s\tTest 0:\tShould start at template generation one.", success)

			if tmpl.Number != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould target height one: got %d", failed, tmpl.Number)
			}
			if tmpl.PrevBlockHash != st.RetrieveLatestBlock().Hash() {
				t.Fatalf("\t%s\tTest 0:\tShould link to the genesis block.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould link to the genesis block at height one.", success)

			if len(tmpl.Trans) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould carry the pending transactions: got %d", failed, len(tmpl.Trans))
			}

			root, err := database.MerkleRoot(tmpl.Trans)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to compute the merkle root: %v", failed, err)
			}
			if tmpl.MerkleRoot != root {
				t.Fatalf("\t%s\tTest 0:\tShould commit to the carried transactions.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould commit to the carried transactions.", success)
		}

		t.Logf("\tTest 1:\tWhen submitting a solved block.")
		{
			block := solveTemplate(t, tmpl)

			status, err := st.SubmitBlock(state.Submission{Block: block, TemplateID: tmpl.TemplateID, HashRate: 1234})
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to submit the block: %v", failed, err)
			}
			if status != state.SubmitAccepted {
				t.Fatalf("\t%s\tTest 1:\tShould be accepted: got %s", failed, status)
			}
			t.Logf("\t%s\tTest 1:\tShould be accepted.", success)

			if st.RetrieveHeight() != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould advance the chain: got height %d", failed, st.RetrieveHeight())
			}
			t.Logf("\t%s\tTest 1:\tShould advance the chain.", success)

			if st.QueryMempoolLength() != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould retire the mined transactions: got %d", failed, st.QueryMempoolLength())
			}
			t.Logf("\t%s\tTest 1:\tShould retire the mined transactions.", success)

			if st.CurrentTemplateID() != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould supersede the template: got %d", failed, st.CurrentTemplateID())
			}
			t.Logf("\t%s\tTest 1:\tShould supersede the template.", success)

			if st.ReportedHashRate() != 1234 {
				t.Fatalf("\t%s\tTest 1:\tShould record the advisory hashrate: got %f", failed, st.ReportedHashRate())
			}

			if signals.count() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould signal the registered worker once: got %d", failed, signals.count())
			}
			t.Logf("\t%s\tTest 1:\tShould signal the registered worker once.", success)
		}

		t.Logf("\tTest 2:\tWhen submitting against a superseded template.")
		{
			block := solveTemplate(t, tmpl)

			status, err := st.SubmitBlock(state.Submission{Block: block, TemplateID: tmpl.TemplateID})
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould not report an error for a stale submission: %v", failed, err)
			}
			if status != state.SubmitStale {
				t.Fatalf("\t%s\tTest 2:\tShould be stale: got %s", failed, status)
			}
			t.Logf("\t%s\tTest 2:\tShould be stale.", success)

			if st.RetrieveHeight() != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould leave the chain unchanged: got height %d", failed, st.RetrieveHeight())
			}
			t.Logf("\t%s\tTest 2:\tShould leave the chain unchanged.", success)
		}

		t.Logf("\tTest 3:\tWhen submitting a forged block on a live template.")
		{
			next, err := st.BlockTemplate()
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to get a template: %v", failed, err)
			}

			// Break the linkage after solving.
			next.PrevBlockHash = tmpl.PrevBlockHash
			block := solveTemplate(t, next)

			status, err := st.SubmitBlock(state.Submission{Block: block, TemplateID: next.TemplateID})
			if status != state.SubmitRejected {
				t.Fatalf("\t%s\tTest 3:\tShould be rejected: got %s", failed, status)
			}
			if !errors.Is(err, database.ErrLinkage) {
				t.Fatalf("\t%s\tTest 3:\tShould name the linkage rule: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould be rejected for broken linkage.", success)

			if st.RetrieveHeight() != 2 {
				t.Fatalf("\t%s\tTest 3:\tShould leave the chain unchanged: got height %d", failed, st.RetrieveHeight())
			}
			if st.CurrentTemplateID() != 2 {
				t.Fatalf("\t%s\tTest 3:\tShould keep the template live: got %d", failed, st.CurrentTemplateID())
			}
			t.Logf("\t%s\tTest 3:\tShould keep the chain and template untouched.", success)
		}
	}
}

func Test_Queries(t *testing.T) {
	t.Log("Given the need to validate the read side of the state.")
	{
		st := newState(t)
		defer st.Shutdown()

		t.Logf("\tTest 0:\tWhen reading the fresh chain.")
		{
			if st.RetrieveHeight() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould hold only genesis: got %d", failed, st.RetrieveHeight())
			}
			t.Logf("\t%s\tTest 0:\tShould hold only genesis.", success)

			gen := st.RetrieveGenesis()
			if gen.Name != "comet-test" {
				t.Fatalf("\t%s\tTest 0:\tShould expose the genesis document: got %q", failed, gen.Name)
			}
			t.Logf("\t%s\tTest 0:\tShould expose the genesis document.", success)

			bits, err := st.RequiredBits()
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to get the required bits: %v", failed, err)
			}
			if bits != gen.DifficultyBits {
				t.Fatalf("\t%s\tTest 0:\tShould require the genesis difficulty: got %#08x", failed, bits)
			}
			t.Logf("\t%s\tTest 0:\tShould require the genesis difficulty.", success)
		}

		t.Logf("\tTest 1:\tWhen reading the mempool.")
		{
			st.UpsertMempool(database.NewTx([]byte("pending")))

			txs := st.RetrieveMempool()
			if len(txs) != 1 || string(txs[0].Data) != "pending" {
				t.Fatalf("\t%s\tTest 1:\tShould see the pending transaction.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould see the pending transaction.", success)
		}
	}
}

// =============================================================================

// signalCounter records worker notifications without any mining.
type signalCounter struct {
	signals int
}

func (sc *signalCounter) Shutdown() {}

func (sc *signalCounter) SignalNewTemplate() {
	sc.signals++
}

func (sc *signalCounter) count() int {
	return sc.signals
}
