// Package nodeclient provides an HTTP client against the node's v1
// API. It satisfies the mining.Client interface so a miner process can
// run against a remote node exactly as it would against in-process
// state.
package nodeclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/state"
)

// Client knows how to talk to a single node over its v1 API.
type Client struct {
	url  string
	http http.Client
}

// New constructs a client for the node at the specified base URL, such
// as http://localhost:3000.
func New(url string) *Client {
	return &Client{url: url}
}

// BlockTemplate asks the node for the current mining template.
func (c *Client) BlockTemplate(ctx context.Context) (state.BlockTemplate, error) {
	var tmpl state.BlockTemplate
	if err := c.send(ctx, http.MethodGet, fmt.Sprintf("%s/v1/node/template", c.url), nil, &tmpl); err != nil {
		return state.BlockTemplate{}, err
	}

	return tmpl, nil
}

// SubmitBlock hands a solved block to the node. A rejected submission
// comes back as SubmitRejected with the node's reason as the error.
func (c *Client) SubmitBlock(ctx context.Context, sub state.Submission) (state.SubmitStatus, error) {
	req := submitRequest{
		Block:      database.NewBlockData(sub.Block),
		TemplateID: sub.TemplateID,
		HashRate:   sub.HashRate,
	}

	var resp submitResponse
	if err := c.send(ctx, http.MethodPost, fmt.Sprintf("%s/v1/block/submit", c.url), req, &resp); err != nil {
		return state.SubmitRejected, err
	}

	switch resp.Status {
	case state.SubmitAccepted.String():
		return state.SubmitAccepted, nil
	case state.SubmitStale.String():
		return state.SubmitStale, nil
	case state.SubmitRejected.String():
		return state.SubmitRejected, errors.New(resp.Reason)
	}

	return state.SubmitRejected, fmt.Errorf("unknown submit status %q", resp.Status)
}

// MiningInfo retrieves the node's view of the current mining work.
func (c *Client) MiningInfo(ctx context.Context) (MiningInfo, error) {
	var info MiningInfo
	if err := c.send(ctx, http.MethodGet, fmt.Sprintf("%s/v1/mining/info", c.url), nil, &info); err != nil {
		return MiningInfo{}, err
	}

	return info, nil
}

// ChainInfo retrieves the node's summary of the chain.
func (c *Client) ChainInfo(ctx context.Context) (ChainInfo, error) {
	var info ChainInfo
	if err := c.send(ctx, http.MethodGet, fmt.Sprintf("%s/v1/chain/info", c.url), nil, &info); err != nil {
		return ChainInfo{}, err
	}

	return info, nil
}

// BlockCount retrieves the number of blocks in the chain including
// genesis.
func (c *Client) BlockCount(ctx context.Context) (uint64, error) {
	var resp struct {
		Count uint64 `json:"count"`
	}
	if err := c.send(ctx, http.MethodGet, fmt.Sprintf("%s/v1/block/count", c.url), nil, &resp); err != nil {
		return 0, err
	}

	return resp.Count, nil
}

// Blocks retrieves the blocks with heights [from, to]. Pass "latest"
// for to to read through the tip.
func (c *Client) Blocks(ctx context.Context, from string, to string) ([]database.BlockData, error) {
	var blocks []database.BlockData
	if err := c.send(ctx, http.MethodGet, fmt.Sprintf("%s/v1/block/list/%s/%s", c.url, from, to), nil, &blocks); err != nil {
		return nil, err
	}

	return blocks, nil
}

// SubmitTx sends a transaction to the node's mempool.
func (c *Client) SubmitTx(ctx context.Context, tx database.Tx) error {
	return c.send(ctx, http.MethodPost, fmt.Sprintf("%s/v1/tx/submit", c.url), tx, nil)
}

// Mempool retrieves the node's pending transactions.
func (c *Client) Mempool(ctx context.Context) ([]database.Tx, error) {
	var txs []database.Tx
	if err := c.send(ctx, http.MethodGet, fmt.Sprintf("%s/v1/mempool/list", c.url), nil, &txs); err != nil {
		return nil, err
	}

	return txs, nil
}

// =============================================================================

// submitRequest is the wire form of a block submission.
type submitRequest struct {
	Block      database.BlockData `json:"block"`
	TemplateID uint64             `json:"template_id"`
	HashRate   float64            `json:"hash_rate"`
}

// submitResponse is the node's answer to a block submission.
type submitResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// MiningInfo describes the work the node is currently offering miners.
type MiningInfo struct {
	Height      uint64  `json:"height"`
	TemplateID  uint64  `json:"template_id"`
	Difficulty  uint32  `json:"difficulty"`
	Target      string  `json:"target"`
	HashRate    float64 `json:"hash_rate"`
	MempoolSize int     `json:"mempool_size"`
}

// ChainInfo summarizes the chain the node is maintaining.
type ChainInfo struct {
	ChainID    uint16 `json:"chain_id"`
	Name       string `json:"name"`
	Height     uint64 `json:"height"`
	LatestHash string `json:"latest_hash"`
	Difficulty uint32 `json:"difficulty"`
}

// send is a helper function to make an HTTP request to the node.
func (c *Client) send(ctx context.Context, method string, url string, dataSend any, dataRecv any) error {
	var req *http.Request

	switch {
	case dataSend != nil:
		data, err := json.Marshal(dataSend)
		if err != nil {
			return err
		}
		req, err = http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

	default:
		var err error
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return err
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		msg, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return errors.New(string(msg))
	}

	if dataRecv != nil {
		if err := json.NewDecoder(resp.Body).Decode(dataRecv); err != nil {
			return err
		}
	}

	return nil
}
