package worker

import (
	"math/big"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
)

// Sync updates the peer list, the chain and the mempool from the known peers.
func (w *Worker) Sync() {
	w.evHandler("worker: sync: started")
	defer w.evHandler("worker: sync: completed")

	for _, pr := range w.state.RetrieveKnownPeers() {

		// Retrieve the status of this peer.
		peerStatus, err := w.state.NetRequestPeerStatus(pr)
		if err != nil {
			w.evHandler("worker: sync: queryPeerStatus: %s: ERROR: %s", pr.Host, err)
			continue
		}

		// Add new peers to this nodes list.
		w.addNewPeers(peerStatus.KnownPeers)

		// If this peer has a heavier chain, we need to adopt it.
		w.syncChain(pr, peerStatus)

		// Retrieve the mempool from the peer. This happens after the chain
		// so the transactions validate against the latest outputs.
		pool, err := w.state.NetRequestPeerMempool(pr)
		if err != nil {
			w.evHandler("worker: sync: retrievePeerMempool: %s: ERROR: %s", pr.Host, err)
			continue
		}

		for _, tx := range pool {
			w.evHandler("worker: sync: retrievePeerMempool: %s: Add Tx: %s", pr.Host, tx)
			if err := w.state.ProcessPeerTransaction(tx); err != nil {
				w.evHandler("worker: sync: retrievePeerMempool: %s: WARNING: %s", pr.Host, err)
			}
		}
	}
}

// syncChain fetches and processes the peer's chain when the peer reports
// more accumulated difficulty than this node.
func (w *Worker) syncChain(pr peer.Peer, peerStatus peer.PeerStatus) {
	peerDifficulty, ok := new(big.Int).SetString(peerStatus.AccumulatedDifficulty, 10)
	if !ok {
		w.evHandler("worker: syncChain: %s: ERROR: invalid accumulated difficulty %q", pr.Host, peerStatus.AccumulatedDifficulty)
		return
	}

	if peerDifficulty.Cmp(w.state.RetrieveAccumulatedDifficulty()) <= 0 {
		return
	}

	w.evHandler("worker: syncChain: %s: accumulated[%s]: latestIndex[%d]", pr.Host, peerDifficulty, peerStatus.LatestIndex)

	chain, err := w.state.NetRequestPeerChain(pr)
	if err != nil {
		w.evHandler("worker: syncChain: retrievePeerChain: %s: ERROR: %s", pr.Host, err)
		return
	}

	if err := w.state.ProcessPeerChain(chain); err != nil {
		w.evHandler("worker: syncChain: processPeerChain: %s: ERROR: %s", pr.Host, err)
	}
}
