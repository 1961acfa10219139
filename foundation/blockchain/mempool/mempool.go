// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
)

// ErrAlreadyPooled is returned when a transaction with the same id is
// already in the pool.
var ErrAlreadyPooled = errors.New("transaction already in mempool")

// Mempool represents a cache of pending transactions kept in arrival order.
// No two pooled transactions consume the same out point.
type Mempool struct {
	mu   sync.RWMutex
	pool []database.Transaction
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Add validates the transaction against the set of unspent outputs and
// inserts it when none of its inputs are already consumed by a pooled
// transaction.
func (mp *Mempool) Add(tx database.Transaction, utxos database.UTXOSet) error {
	if err := database.ValidateTransaction(tx, utxos); err != nil {
		return err
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	inputs := make(map[database.OutPoint]string)
	for _, ptx := range mp.pool {
		if ptx.ID == tx.ID {
			return fmt.Errorf("%w: %s", ErrAlreadyPooled, tx.ID)
		}

		for _, in := range ptx.TxIns {
			inputs[in.OutPoint()] = ptx.ID
		}
	}

	for _, in := range tx.TxIns {
		if id, exists := inputs[in.OutPoint()]; exists {
			return fmt.Errorf("%w: out point %s already consumed by pooled tx %s", database.ErrDoubleSpend, in.OutPoint(), id)
		}
	}

	mp.pool = append(mp.pool, tx)

	return nil
}

// Prune removes every transaction with an input that is no longer in the
// set of unspent outputs. The removed transactions are returned. Pruning
// against an unchanged set is a no-op.
func (mp *Mempool) Prune(utxos database.UTXOSet) []database.Transaction {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	var removed []database.Transaction
	kept := mp.pool[:0:0]

	for _, tx := range mp.pool {
		if spendable(tx, utxos) {
			kept = append(kept, tx)
			continue
		}
		removed = append(removed, tx)
	}

	mp.pool = kept

	return removed
}

// Inputs returns the set of out points consumed by pooled transactions.
func (mp *Mempool) Inputs() map[database.OutPoint]struct{} {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	inputs := make(map[database.OutPoint]struct{})
	for _, tx := range mp.pool {
		for _, in := range tx.TxIns {
			inputs[in.OutPoint()] = struct{}{}
		}
	}

	return inputs
}

// Copy returns a copy of the pool in arrival order.
func (mp *Mempool) Copy() []database.Transaction {
	return mp.PickBest(-1)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
}

// PickBest returns the oldest transactions up to the specified number. A
// value of -1 returns the whole pool.
func (mp *Mempool) PickBest(howMany int) []database.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	if howMany < 0 || howMany > len(mp.pool) {
		howMany = len(mp.pool)
	}

	txs := make([]database.Transaction, howMany)
	copy(txs, mp.pool[:howMany])

	return txs
}

// =============================================================================

// spendable reports whether every input of the transaction is unspent.
func spendable(tx database.Transaction, utxos database.UTXOSet) bool {
	for _, in := range tx.TxIns {
		if !utxos.Contains(in.OutPoint()) {
			return false
		}
	}

	return true
}
