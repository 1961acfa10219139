package database

import (
	"encoding/json"
	"fmt"
)

// OutPoint identifies a single output of a transaction.
type OutPoint struct {
	TxOutID    string
	TxOutIndex uint32
}

// String implements the fmt.Stringer interface for logging and is also
// used as the key when persisting the set.
func (op OutPoint) String() string {
	return fmt.Sprintf("%s:%d", op.TxOutID, op.TxOutIndex)
}

// UnspentTxOut represents an output that has not been consumed by any input
// in the canonical chain.
type UnspentTxOut struct {
	TxOutID    string `json:"txOutId"`
	TxOutIndex uint32 `json:"txOutIndex"`
	Address    string `json:"address"`
	Amount     uint64 `json:"amount"`
}

// OutPoint returns the key for this unspent output.
func (u UnspentTxOut) OutPoint() OutPoint {
	return OutPoint{TxOutID: u.TxOutID, TxOutIndex: u.TxOutIndex}
}

// =============================================================================

// UTXOSet is an immutable, ordered set of unspent outputs keyed by out point.
// Iteration order is the order outputs were applied. Changes always produce
// a new set so a failed validation can never leave partial state behind.
type UTXOSet struct {
	outs  []UnspentTxOut
	index map[OutPoint]int
}

// NewUTXOSet constructs a set from the specified outputs, keeping their
// order. Later duplicates of an out point are ignored.
func NewUTXOSet(outs []UnspentTxOut) UTXOSet {
	s := UTXOSet{
		outs:  make([]UnspentTxOut, 0, len(outs)),
		index: make(map[OutPoint]int, len(outs)),
	}

	for _, out := range outs {
		s.add(out)
	}

	return s
}

// Len returns the number of unspent outputs in the set.
func (s UTXOSet) Len() int {
	return len(s.outs)
}

// Find looks up the unspent output for the specified out point.
func (s UTXOSet) Find(op OutPoint) (UnspentTxOut, bool) {
	i, exists := s.index[op]
	if !exists {
		return UnspentTxOut{}, false
	}

	return s.outs[i], true
}

// Contains reports whether the out point is unspent in this set.
func (s UTXOSet) Contains(op OutPoint) bool {
	_, exists := s.index[op]
	return exists
}

// Values returns a copy of the unspent outputs in iteration order.
func (s UTXOSet) Values() []UnspentTxOut {
	outs := make([]UnspentTxOut, len(s.outs))
	copy(outs, s.outs)
	return outs
}

// Owned returns the unspent outputs paid to the address in iteration order.
func (s UTXOSet) Owned(address string) []UnspentTxOut {
	var outs []UnspentTxOut
	for _, out := range s.outs {
		if out.Address == address {
			outs = append(outs, out)
		}
	}

	return outs
}

// Apply derives the next set from the transactions. Every output referenced
// by an input is removed and every output of every transaction is appended
// in transaction order. The receiver is not modified. Apply does not validate
// the transactions, use ProcessTransactions for that.
func (s UTXOSet) Apply(txs []Transaction) UTXOSet {
	consumed := make(map[OutPoint]struct{})
	for _, tx := range txs {
		for _, in := range tx.TxIns {
			consumed[in.OutPoint()] = struct{}{}
		}
	}

	next := UTXOSet{
		outs:  make([]UnspentTxOut, 0, len(s.outs)),
		index: make(map[OutPoint]int, len(s.outs)),
	}

	for _, out := range s.outs {
		if _, exists := consumed[out.OutPoint()]; exists {
			continue
		}
		next.add(out)
	}

	for _, tx := range txs {
		for i, out := range tx.TxOuts {
			next.add(UnspentTxOut{
				TxOutID:    tx.ID,
				TxOutIndex: uint32(i),
				Address:    out.Address,
				Amount:     out.Amount,
			})
		}
	}

	return next
}

// MarshalJSON implements the json.Marshaler interface. The set is written
// as an array of unspent outputs in iteration order.
func (s UTXOSet) MarshalJSON() ([]byte, error) {
	outs := s.outs
	if outs == nil {
		outs = []UnspentTxOut{}
	}

	return json.Marshal(outs)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
func (s *UTXOSet) UnmarshalJSON(data []byte) error {
	var outs []UnspentTxOut
	if err := json.Unmarshal(data, &outs); err != nil {
		return err
	}

	*s = NewUTXOSet(outs)
	return nil
}

// add appends the output unless the out point already exists.
func (s *UTXOSet) add(out UnspentTxOut) {
	op := out.OutPoint()
	if _, exists := s.index[op]; exists {
		return
	}

	s.index[op] = len(s.outs)
	s.outs = append(s.outs, out)
}
