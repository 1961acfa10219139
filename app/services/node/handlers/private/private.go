// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/utxocoin/business/web/errs"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/state"
	"github.com/ardanlabs/utxocoin/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// SubmitNodeTransactions adds the pool shared by a peer to the mempool.
// Transactions that don't validate are logged and skipped.
func (h Handlers) SubmitNodeTransactions(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	// Decode the JSON in the post call into the set of transactions.
	var txs []database.Transaction
	if err := web.Decode(r, &txs); err != nil {
		return errs.FromDecode(err)
	}

	var accepted int
	for _, tx := range txs {
		h.Log.Infow("add tran", "traceid", v.TraceID, "tx", tx.ID, "ins", len(tx.TxIns), "outs", len(tx.TxOuts))

		if err := h.State.ProcessPeerTransaction(tx); err != nil {
			h.Log.Infow("add tran", "traceid", v.TraceID, "tx", tx.ID, "WARNING", err)
			continue
		}
		accepted++
	}

	resp := struct {
		Status   string `json:"status"`
		Accepted int    `json:"accepted"`
	}{
		Status:   "transactions processed",
		Accepted: accepted,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

	// Decode the JSON in the post call into a block. The structure of the
	// block is checked against its validate tags.
	var block database.Block
	if err := web.Decode(r, &block); err != nil {
		return errs.FromDecode(err)
	}

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain database.
	type status struct {
		Status string `json:"status"`
	}

	err := h.State.ProcessProposedBlock(block)
	switch {
	case err == nil:
		return web.Respond(ctx, w, status{Status: "accepted"}, http.StatusOK)

	case errors.Is(err, state.ErrBlockIgnored):
		return web.Respond(ctx, w, status{Status: "ignored"}, http.StatusOK)

	case errors.Is(err, state.ErrChainAhead):
		return web.Respond(ctx, w, status{Status: "syncing"}, http.StatusAccepted)
	}

	return errs.NewTrusted(errors.New("block not accepted: "+err.Error()), http.StatusNotAcceptable)
}

// Status returns the current status of the node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveStatus(), http.StatusOK)
}

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// Mempool returns the set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}
