package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/metrics"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
)

// SubmitTransaction builds a payment from the miner to the receiver and
// places it in the mempool.
func (s *State) SubmitTransaction(receiver string, amount uint64) (database.Transaction, error) {
	s.evHandler("state: SubmitTransaction: started: receiver[%s]: amount[%d]", receiver, amount)
	defer s.evHandler("state: SubmitTransaction: completed")

	if amount == 0 {
		return database.Transaction{}, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}

	s.mu.Lock()

	utxos := s.db.UTXOs()

	tx, err := wallet.Build(receiver, amount, s.minerKey, utxos, s.mempool.Copy())
	if err != nil {
		s.mu.Unlock()
		return database.Transaction{}, err
	}

	if err := s.mempool.Add(tx, utxos); err != nil {
		s.mu.Unlock()
		return database.Transaction{}, err
	}

	metrics.TxPooled(s.mempool.Count())

	s.mu.Unlock()

	s.Worker.SignalSharePool()
	s.Worker.SignalStartMining()

	return tx, nil
}

// ProcessPeerTransaction accepts a transaction from a peer for inclusion in
// the mempool. A transaction that is already pooled is not an error and is
// not shared again.
func (s *State) ProcessPeerTransaction(tx database.Transaction) error {
	s.evHandler("state: ProcessPeerTransaction: started: tx[%s]", tx)
	defer s.evHandler("state: ProcessPeerTransaction: completed: tx[%s]", tx)

	s.mu.Lock()

	err := s.mempool.Add(tx, s.db.UTXOs())
	if err == nil {
		metrics.TxPooled(s.mempool.Count())
	}

	s.mu.Unlock()

	switch {
	case errors.Is(err, mempool.ErrAlreadyPooled):
		s.evHandler("state: ProcessPeerTransaction: tx[%s] already pooled", tx)
		return nil

	case err != nil:
		return err
	}

	s.Worker.SignalSharePool()
	s.Worker.SignalStartMining()

	return nil
}
