// Package wallet builds signed transactions by selecting unspent outputs
// owned by a private key.
package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
)

// ErrInsufficientFunds is returned when the spendable outputs can't cover
// the requested amount.
var ErrInsufficientFunds = errors.New("insufficient funds")

// InsufficientFundsError carries the requested amount and what was
// available to spend. It matches ErrInsufficientFunds with errors.Is.
type InsufficientFundsError struct {
	Requested uint64
	Available uint64
}

// Error implements the error interface.
func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: requested %d, available %d, short %d", e.Requested, e.Available, e.Requested-e.Available)
}

// Unwrap allows errors.Is to match ErrInsufficientFunds.
func (e *InsufficientFundsError) Unwrap() error {
	return ErrInsufficientFunds
}

// =============================================================================

// Address derives the address owned by the private key.
func Address(privateKey *ecdsa.PrivateKey) string {
	return database.PublicKeyToAddress(privateKey)
}

// FindUnspent returns the unspent outputs owned by the address.
func FindUnspent(address string, utxos database.UTXOSet) []database.UnspentTxOut {
	return utxos.Owned(address)
}

// Balance returns the sum of the unspent outputs owned by the address.
func Balance(address string, utxos database.UTXOSet) uint64 {
	var total uint64
	for _, out := range utxos.Owned(address) {
		total += out.Amount
	}

	return total
}

// Spendable returns the unspent outputs owned by the address that are not
// already consumed by a pending transaction in the pool.
func Spendable(address string, utxos database.UTXOSet, pool []database.Transaction) []database.UnspentTxOut {
	pending := make(map[database.OutPoint]struct{})
	for _, tx := range pool {
		for _, in := range tx.TxIns {
			pending[in.OutPoint()] = struct{}{}
		}
	}

	var outs []database.UnspentTxOut
	for _, out := range utxos.Owned(address) {
		if _, exists := pending[out.OutPoint()]; exists {
			continue
		}
		outs = append(outs, out)
	}

	return outs
}

// Build constructs a signed transaction paying amount to the receiver.
// Spendable outputs are taken in set order until they cover the amount.
// Anything left over is paid back to the sender as change.
func Build(receiver string, amount uint64, privateKey *ecdsa.PrivateKey, utxos database.UTXOSet, pool []database.Transaction) (database.Transaction, error) {
	if err := database.ValidateAddress(receiver); err != nil {
		return database.Transaction{}, err
	}

	sender := Address(privateKey)

	selected, total, err := selectOutputs(Spendable(sender, utxos, pool), amount)
	if err != nil {
		return database.Transaction{}, err
	}

	tx := database.Transaction{
		TxIns:  make([]database.TxIn, len(selected)),
		TxOuts: []database.TxOut{{Address: receiver, Amount: amount}},
	}

	for i, out := range selected {
		tx.TxIns[i] = database.TxIn{TxOutID: out.TxOutID, TxOutIndex: out.TxOutIndex}
	}

	if leftOver := total - amount; leftOver > 0 {
		tx.TxOuts = append(tx.TxOuts, database.TxOut{Address: sender, Amount: leftOver})
	}

	tx.ID = database.TransactionID(tx)
	for i := range tx.TxIns {
		tx.TxIns[i].Signature = database.SignTxIn(tx, i, privateKey, utxos)
	}

	return tx, nil
}

// =============================================================================

// selectOutputs accumulates outputs in order until the amount is covered.
func selectOutputs(outs []database.UnspentTxOut, amount uint64) ([]database.UnspentTxOut, uint64, error) {
	var total uint64
	for i, out := range outs {
		total += out.Amount
		if total >= amount {
			return outs[:i+1], total, nil
		}
	}

	return nil, 0, &InsufficientFundsError{Requested: amount, Available: total}
}
