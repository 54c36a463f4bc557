// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cometchain/comet/business/sys/validate"
	v1 "github.com/cometchain/comet/business/web/v1"
	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/difficulty"
	"github.com/cometchain/comet/foundation/blockchain/state"
	"github.com/cometchain/comet/foundation/events"
	"github.com/cometchain/comet/foundation/web"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.RetrieveGenesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// BlockTemplate returns the header fields a miner needs to start
// searching for the next block.
func (h Handlers) BlockTemplate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tmpl, err := h.State.BlockTemplate()
	if err != nil {
		return err
	}

	return web.Respond(ctx, w, tmpl, http.StatusOK)
}

// SubmitBlock accepts a solved block from a miner. The outcome is
// always reported with a 200: losing the template race or failing
// validation is an answer, not a transport error.
func (h Handlers) SubmitBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req submitBlock
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	block, err := database.ToBlock(req.Block)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	h.Log.Infow("block submission", "traceid", v.TraceID, "block", req.Block.Hash, "number", block.Header.Number)

	status, err := h.State.SubmitBlock(state.Submission{
		Block:      block,
		TemplateID: req.TemplateID,
		HashRate:   req.HashRate,
	})

	resp := submitResult{Status: status.String()}
	if status == state.SubmitRejected && err != nil {
		resp.Reason = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlockCount returns the number of blocks in the chain including
// genesis.
func (h Handlers) BlockCount(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Count uint64 `json:"count"`
	}{
		Count: h.State.RetrieveHeight(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// BlocksByNumber returns the blocks for the specified number range. Use
// the word latest for either to get the current tip.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	toStr := web.Param(r, "to")

	tip := h.State.RetrieveLatestBlock().Header.Number

	from, err := parseBlockNumber(fromStr, tip)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	to, err := parseBlockNumber(toStr, tip)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	blocks := h.State.RetrieveBlocks(from, to)
	if len(blocks) == 0 {
		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}

// MiningInfo returns the node's view of the work currently being mined.
func (h Handlers) MiningInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	bits, err := h.State.RequiredBits()
	if err != nil {
		return err
	}

	target, err := difficulty.TargetBytes(bits)
	if err != nil {
		return err
	}

	info := miningInfo{
		Height:      h.State.RetrieveLatestBlock().Header.Number,
		TemplateID:  h.State.CurrentTemplateID(),
		Difficulty:  bits,
		Target:      hexutil.Encode(target[:]),
		HashRate:    h.State.ReportedHashRate(),
		MempoolSize: h.State.QueryMempoolLength(),
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// ChainInfo returns a summary of the chain this node maintains.
func (h Handlers) ChainInfo(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	bits, err := h.State.RequiredBits()
	if err != nil {
		return err
	}

	tip := h.State.RetrieveLatestBlock()
	gen := h.State.RetrieveGenesis()

	info := chainInfo{
		ChainID:    gen.ChainID,
		Name:       gen.Name,
		Height:     tip.Header.Number,
		LatestHash: tip.Hash().String(),
		Difficulty: bits,
	}

	return web.Respond(ctx, w, info, http.StatusOK)
}

// SubmitTransaction adds a new transaction to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req newTx
	if err := web.Decode(r, &req); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	if err := validate.Check(req); err != nil {
		return err
	}

	tx := database.NewTx(req.Data)

	h.Log.Infow("add tran", "traceid", v.TraceID, "tx", tx)
	h.State.UpsertMempool(tx)

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := h.State.RetrieveMempool()
	return web.Respond(ctx, w, txs, http.StatusOK)
}

// parseBlockNumber converts a path parameter into a block number,
// accepting the word latest for the current tip.
func parseBlockNumber(s string, tip uint64) (uint64, error) {
	if s == "" || s == "latest" {
		return tip, nil
	}
	return strconv.ParseUint(s, 10, 64)
}
