package handlers_test

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/cometchain/comet/app/services/node/handlers"
	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/database/storage/memory"
	"github.com/cometchain/comet/foundation/blockchain/difficulty"
	"github.com/cometchain/comet/foundation/blockchain/genesis"
	"github.com/cometchain/comet/foundation/blockchain/nodeclient"
	"github.com/cometchain/comet/foundation/blockchain/state"
	"github.com/cometchain/comet/foundation/events"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *state.State) {
	storage, err := memory.New()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to open storage: %v", failed, err)
	}

	gen := genesis.Genesis{
		Date:            time.Now().UTC().Add(-2 * time.Hour),
		ChainID:         99,
		Name:            "comet-test",
		DifficultyBits:  difficulty.PowLimitBits,
		TargetBlockTime: 1,
		AdjustInterval:  3,
		TransPerBlock:   10,
	}

	st, err := state.New(state.Config{Genesis: gen, Storage: storage})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
	})

	return httptest.NewServer(mux), st
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

func Test_PublicAPI(t *testing.T) {
	t.Log("Given the need to validate the v1 API end to end.")
	{
		srv, st := newTestServer(t)
		defer srv.Close()
		defer st.Shutdown()

		client := nodeclient.New(srv.URL)
		ctx := context.Background()

		t.Logf("\tTest 0:\tWhen submitting transactions to the mempool.")
		{
			if err := client.SubmitTx(ctx, database.NewTx([]byte("tx one"))); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v", failed, err)
			}
			if err := client.SubmitTx(ctx, database.NewTx([]byte("tx two"))); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a transaction: %v", failed, err)
			}

			txs, err := client.Mempool(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to read the mempool: %v", failed, err)
			}
			if len(txs) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould hold both transactions: got %d", failed, len(txs))
			}
			t.Logf("\t%s\tTest 0:\tShould hold both transactions.", success)

			if err := client.SubmitTx(ctx, database.Tx{Kind: database.TxKindData}); err == nil {
				t.Fatalf("\t%s\tTest 0:\tShould reject a transaction without data.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject a transaction without data.", success)
		}

		var tmpl state.BlockTemplate

		t.Logf("\tTest 1:\tWhen asking for work.")
		{
			info, err := client.MiningInfo(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to read the mining info: %v", failed, err)
			}
			if info.Height != 0 || info.MempoolSize != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould describe the fresh chain: height %d mempool %d", failed, info.Height, info.MempoolSize)
			}
			if info.TemplateID != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould report the active template generation: got %d", failed, info.TemplateID)
			}
			t.Logf("\t%s\tTest 1:\tShould describe the fresh chain and its template generation.", success)

			tmpl, err = client.BlockTemplate(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to get a template: %v", failed, err)
			}
			if tmpl.TemplateID != 1 || tmpl.Number != 1 || len(tmpl.Trans) != 2 {
				t.Fatalf("\t%s\tTest 1:\tShould offer the pending work: id %d number %d txs %d", failed, tmpl.TemplateID, tmpl.Number, len(tmpl.Trans))
			}
			t.Logf("\t%s\tTest 1:\tShould offer the pending work.", success)
		}

		t.Logf("\tTest 2:\tWhen submitting a solved block.")
		{
			block := solveTemplate(t, tmpl)

			status, err := client.SubmitBlock(ctx, state.Submission{Block: block, TemplateID: tmpl.TemplateID, HashRate: 1234})
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to submit the block: %v", failed, err)
			}
			if status != state.SubmitAccepted {
				t.Fatalf("\t%s\tTest 2:\tShould be accepted: got %s", failed, status)
			}
			t.Logf("\t%s\tTest 2:\tShould be accepted.", success)

			count, err := client.BlockCount(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to count the blocks: %v", failed, err)
			}
			if count != 2 {
				t.Fatalf("\t%s\tTest 2:\tShould advance the chain: got %d", failed, count)
			}
			t.Logf("\t%s\tTest 2:\tShould advance the chain.", success)

			status, err = client.SubmitBlock(ctx, state.Submission{Block: block, TemplateID: tmpl.TemplateID})
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould not error on a stale submission: %v", failed, err)
			}
			if status != state.SubmitStale {
				t.Fatalf("\t%s\tTest 2:\tShould be stale the second time: got %s", failed, status)
			}
			t.Logf("\t%s\tTest 2:\tShould be stale the second time.", success)
		}

		t.Logf("\tTest 3:\tWhen reading the chain back.")
		{
			blocks, err := client.Blocks(ctx, "1", "latest")
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to list blocks: %v", failed, err)
			}
			if len(blocks) != 1 || blocks[0].Header.Number != 1 {
				t.Fatalf("\t%s\tTest 3:\tShould return the mined block: got %d blocks", failed, len(blocks))
			}
			if len(blocks[0].Trans) != 2 {
				t.Fatalf("\t%s\tTest 3:\tShould carry the mined transactions: got %d", failed, len(blocks[0].Trans))
			}
			t.Logf("\t%s\tTest 3:\tShould return the mined block with its transactions.", success)

			info, err := client.ChainInfo(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to read the chain info: %v", failed, err)
			}
			if info.ChainID != 99 || info.Name != "comet-test" || info.Height != 1 {
				t.Fatalf("\t%s\tTest 3:\tShould summarize the chain: %+v", failed, info)
			}
			t.Logf("\t%s\tTest 3:\tShould summarize the chain.", success)

			txs, err := client.Mempool(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to read the mempool: %v", failed, err)
			}
			if len(txs) != 0 {
				t.Fatalf("\t%s\tTest 3:\tShould have retired the mined transactions: got %d", failed, len(txs))
			}
			t.Logf("\t%s\tTest 3:\tShould have retired the mined transactions.", success)

			mInfo, err := client.MiningInfo(ctx)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to read the mining info: %v", failed, err)
			}
			if mInfo.TemplateID != 2 {
				t.Fatalf("\t%s\tTest 3:\tShould have advanced the template generation: got %d", failed, mInfo.TemplateID)
			}
			t.Logf("\t%s\tTest 3:\tShould have advanced the template generation.", success)
		}
	}
}
