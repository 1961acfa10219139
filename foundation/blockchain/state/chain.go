package state

import (
	"fmt"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/metrics"
)

// AdoptChain validates the candidate chain from genesis and replaces the
// current chain with it when its accumulated difficulty is strictly
// greater. The mempool is pruned against the new set of unspent outputs.
func (s *State) AdoptChain(chain []database.Block) error {
	s.evHandler("state: AdoptChain: started: blocks[%d]", len(chain))
	defer s.evHandler("state: AdoptChain: completed")

	// Validation doesn't touch the ledger so it runs without the lock.
	utxos, err := database.ValidateChain(chain, time.Now(), s.evHandler)
	if err != nil {
		metrics.ChainRejected()
		return err
	}

	candidate := database.AccumulatedDifficulty(chain)

	s.mu.Lock()

	current := s.db.AccumulatedDifficulty()
	if candidate.Cmp(current) <= 0 {
		s.mu.Unlock()
		metrics.ChainRejected()
		return fmt.Errorf("%w: candidate[%s]: current[%s]", ErrChainNotHeavier, candidate, current)
	}

	s.evHandler("state: AdoptChain: replacing chain: candidate[%s]: current[%s]", candidate, current)

	if err := s.db.Replace(chain, utxos); err != nil {
		s.mu.Unlock()
		return err
	}

	// Searches in flight are building on the old tip.
	s.cancelMining()

	removed := s.mempool.Prune(utxos)
	for _, tx := range removed {
		s.evHandler("state: AdoptChain: tx[%s] removed", tx)
	}

	latest := s.db.LatestBlock()

	metrics.ChainAdopted(latest.Index, utxos.Len())
	metrics.TxPruned(len(removed), s.mempool.Count())

	s.blockEvent(latest)

	s.mu.Unlock()

	// Anything being mined is built on the old tip.
	s.Worker.SignalCancelMining()
	s.Worker.SignalShareBlock(latest)

	return nil
}

// ProcessPeerChain takes a full chain received from a peer and runs the
// fork choice rule against it.
func (s *State) ProcessPeerChain(chain []database.Block) error {
	s.evHandler("state: ProcessPeerChain: started: blocks[%d]", len(chain))
	defer s.evHandler("state: ProcessPeerChain: completed")

	if len(chain) == 0 {
		s.evHandler("state: ProcessPeerChain: received chain of size 0")
		return nil
	}

	return s.AdoptChain(chain)
}
