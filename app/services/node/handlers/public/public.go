// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/ardanlabs/utxocoin/business/web/errs"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/state"
	"github.com/ardanlabs/utxocoin/foundation/events"
	"github.com/ardanlabs/utxocoin/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Shutdown chan os.Signal
	Log      *zap.SugaredLogger
	State    *state.State
	WS       websocket.Upgrader
	Evts     *events.Events
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

// Blocks returns the full chain.
func (h Handlers) Blocks(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveChain(), http.StatusOK)
}

// Block returns the block with the specified hash.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.QueryBlockByHash(web.Param(r, "hash"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// Transaction returns the transaction with the specified id from the chain.
func (h Handlers) Transaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	tx, err := h.State.QueryTransaction(web.Param(r, "id"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// AddressUTXOs returns the unspent outputs owned by the specified address.
func (h Handlers) AddressUTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	addr := web.Param(r, "address")
	if err := database.ValidateAddress(addr); err != nil {
		return errs.FromLedger(err)
	}

	resp := unspent{
		UnspentTxOuts: h.State.QueryAddressUTXOs(addr),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UTXOs returns the full set of unspent outputs.
func (h Handlers) UTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveUTXOs(), http.StatusOK)
}

// MyUTXOs returns the unspent outputs owned by this node.
func (h Handlers) MyUTXOs(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMinerUTXOs(), http.StatusOK)
}

// MineRawBlock mines a block holding exactly the transactions provided.
func (h Handlers) MineRawBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var raw rawBlock
	if err := web.Decode(r, &raw); err != nil {
		return errs.FromDecode(err)
	}

	h.Log.Infow("mine raw block", "traceid", v.TraceID, "txs", len(raw.Data))

	block, err := h.State.MineRawBlock(ctx, raw.Data)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// MineBlock mines a block holding a reward and the contents of the mempool.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.Log.Infow("mine block", "traceid", v.TraceID, "mempool", h.State.RetrieveMempoolLength())

	block, err := h.State.MineBlockWithPool(ctx)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// MineTransaction mines a block holding a reward and a payment from this
// node to the specified address.
func (h Handlers) MineTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var p payment
	if err := web.Decode(r, &p); err != nil {
		return errs.FromDecode(err)
	}

	h.Log.Infow("mine transaction", "traceid", v.TraceID, "to", p.Address, "amount", p.Amount)

	block, err := h.State.MineTransactionBlock(ctx, p.Address, p.Amount)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, block, http.StatusOK)
}

// SendTransaction builds a payment from this node and places it in the
// mempool.
func (h Handlers) SendTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var p payment
	if err := web.Decode(r, &p); err != nil {
		return errs.FromDecode(err)
	}

	h.Log.Infow("send transaction", "traceid", v.TraceID, "to", p.Address, "amount", p.Amount)

	tx, err := h.State.SubmitTransaction(p.Address, p.Amount)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, tx, http.StatusOK)
}

// Mempool returns the set of pending transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveMempool(), http.StatusOK)
}

// Balance returns the balance of this node.
func (h Handlers) Balance(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := balance{
		Balance: h.State.AccountBalance(h.State.MinerAddress()),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Address returns the address of this node.
func (h Handlers) Address(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := address{
		Address: h.State.MinerAddress(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Peers returns the known peers.
func (h Handlers) Peers(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

// AddPeer adds a new peer to the set of known peers.
func (h Handlers) AddPeer(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var np newPeer
	if err := web.Decode(r, &np); err != nil {
		return errs.FromDecode(err)
	}

	pr, err := peer.Parse(np.Host)
	if err != nil {
		return errs.FromLedger(err)
	}

	added := h.State.AddKnownPeer(pr)
	h.Log.Infow("add peer", "traceid", v.TraceID, "host", pr.Host, "added", added)

	// Ask the peers for a heavier chain now that there is a new one.
	h.State.Worker.SignalPeerSync()

	return web.Respond(ctx, w, h.State.RetrieveKnownPeers(), http.StatusOK)
}

// Stop starts a graceful shutdown of the node.
func (h Handlers) Stop(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.Log.Infow("stop", "traceid", v.TraceID, "status", "shutdown requested")

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "stopping",
	}

	if err := web.Respond(ctx, w, resp, http.StatusOK); err != nil {
		return err
	}

	// A pending signal already covers this request.
	select {
	case h.Shutdown <- syscall.SIGTERM:
	default:
	}

	return nil
}
