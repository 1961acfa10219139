package database

import (
	"crypto/ecdsa"
	"fmt"
	"math/bits"
	"strconv"
	"strings"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/signature"
	"github.com/ardanlabs/utxocoin/foundation/validate"
)

// CoinbaseAmount is the fixed reward paid by the coinbase transaction of
// every block.
const CoinbaseAmount = 50

// =============================================================================

// TxOut pays an amount to the owner of the address.
type TxOut struct {
	Address string `json:"address" validate:"len=130,hexadecimal,startswith=04"`
	Amount  uint64 `json:"amount"`
}

// TxIn references an unspent output being consumed by a transaction along
// with the owner's signature over the transaction id.
type TxIn struct {
	TxOutID    string `json:"txOutId" validate:"omitempty,len=64,hexadecimal"`
	TxOutIndex uint32 `json:"txOutIndex"`
	Signature  string `json:"signature" validate:"omitempty,hexadecimal"`
}

// OutPoint returns the out point this input consumes.
func (in TxIn) OutPoint() OutPoint {
	return OutPoint{TxOutID: in.TxOutID, TxOutIndex: in.TxOutIndex}
}

// Transaction moves value from a set of unspent outputs to a set of new
// outputs. The id is derived from the inputs and outputs.
type Transaction struct {
	ID     string  `json:"id" validate:"required,len=64,hexadecimal"`
	TxIns  []TxIn  `json:"txIns" validate:"required,dive"`
	TxOuts []TxOut `json:"txOuts" validate:"required,dive"`
}

// String implements the fmt.Stringer interface for logging.
func (tx Transaction) String() string {
	return fmt.Sprintf("%s:ins[%d]:outs[%d]", tx.ID, len(tx.TxIns), len(tx.TxOuts))
}

// TransactionID calculates the id for the transaction. Signatures are not
// part of the id.
func TransactionID(tx Transaction) string {
	var b strings.Builder
	for _, in := range tx.TxIns {
		b.WriteString(in.TxOutID)
		b.WriteString(strconv.FormatUint(uint64(in.TxOutIndex), 10))
	}

	for _, out := range tx.TxOuts {
		b.WriteString(out.Address)
		b.WriteString(strconv.FormatUint(out.Amount, 10))
	}

	return signature.HashString(b.String())
}

// NewCoinbase constructs the reward transaction for the block at the
// specified index.
func NewCoinbase(address string, blockIndex uint64) Transaction {
	tx := Transaction{
		TxIns: []TxIn{
			{TxOutIndex: uint32(blockIndex)},
		},
		TxOuts: []TxOut{
			{Address: address, Amount: CoinbaseAmount},
		},
	}
	tx.ID = TransactionID(tx)

	return tx
}

// SignTxIn produces the signature for the input at the specified index.
// The caller must own the output the input references. Signing with a key
// that doesn't own the output, or for an output that doesn't exist, is a
// programming error and will panic.
func SignTxIn(tx Transaction, inputIndex int, privateKey *ecdsa.PrivateKey, utxos UTXOSet) string {
	in := tx.TxIns[inputIndex]

	utxo, exists := utxos.Find(in.OutPoint())
	if !exists {
		panic(fmt.Sprintf("sign: referenced output %s does not exist", in.OutPoint()))
	}

	if PublicKeyToAddress(privateKey) != utxo.Address {
		panic(fmt.Sprintf("sign: key does not own referenced output %s", in.OutPoint()))
	}

	sig, err := signature.Sign(tx.ID, privateKey)
	if err != nil {
		panic(fmt.Sprintf("sign: %s", err))
	}

	return sig
}

// =============================================================================

// ValidateTransactionStructure checks the transaction is well formed.
func ValidateTransactionStructure(tx Transaction) error {
	if err := validate.Check(tx); err != nil {
		return fmt.Errorf("%w: tx[%s]: %w", ErrStructural, tx.ID, err)
	}

	return nil
}

// ValidateTransaction checks the transaction against the set of unspent
// outputs. Every input must reference a distinct unspent output signed by
// that output's owner, and the inputs must sum to exactly the outputs.
func ValidateTransaction(tx Transaction, utxos UTXOSet) error {
	if err := ValidateTransactionStructure(tx); err != nil {
		return err
	}

	if id := TransactionID(tx); id != tx.ID {
		return fmt.Errorf("%w: tx id mismatch, got %s, exp %s", ErrStructural, tx.ID, id)
	}

	var totalIn uint64
	seen := make(map[OutPoint]struct{}, len(tx.TxIns))
	for _, in := range tx.TxIns {
		if _, exists := seen[in.OutPoint()]; exists {
			return fmt.Errorf("%w: tx[%s]: out point %s consumed more than once", ErrDoubleSpend, tx.ID, in.OutPoint())
		}
		seen[in.OutPoint()] = struct{}{}

		utxo, exists := utxos.Find(in.OutPoint())
		if !exists {
			return fmt.Errorf("%w: tx[%s]: referenced output %s not found", ErrDoubleSpend, tx.ID, in.OutPoint())
		}

		if err := signature.Verify(tx.ID, in.Signature, utxo.Address); err != nil {
			return fmt.Errorf("%w: tx[%s]: input %s: %w", ErrSignature, tx.ID, in.OutPoint(), err)
		}

		var carry uint64
		totalIn, carry = bits.Add64(totalIn, utxo.Amount, 0)
		if carry != 0 {
			return fmt.Errorf("%w: tx[%s]: input amounts overflow", ErrConservation, tx.ID)
		}
	}

	totalOut, err := sumOutputs(tx)
	if err != nil {
		return err
	}

	if totalIn != totalOut {
		return fmt.Errorf("%w: tx[%s]: inputs %d, outputs %d", ErrConservation, tx.ID, totalIn, totalOut)
	}

	return nil
}

// ValidateCoinbase checks the transaction is a valid reward transaction
// for the block at the specified index.
func ValidateCoinbase(tx Transaction, blockIndex uint64) error {
	if id := TransactionID(tx); id != tx.ID {
		return fmt.Errorf("%w: tx id mismatch, got %s, exp %s", ErrCoinbase, tx.ID, id)
	}

	if len(tx.TxIns) != 1 {
		return fmt.Errorf("%w: one input required, got %d", ErrCoinbase, len(tx.TxIns))
	}

	if uint64(tx.TxIns[0].TxOutIndex) != blockIndex {
		return fmt.Errorf("%w: input index %d must match block index %d", ErrCoinbase, tx.TxIns[0].TxOutIndex, blockIndex)
	}

	if len(tx.TxOuts) != 1 {
		return fmt.Errorf("%w: one output required, got %d", ErrCoinbase, len(tx.TxOuts))
	}

	if tx.TxOuts[0].Amount != CoinbaseAmount {
		return fmt.Errorf("%w: amount %d, exp %d", ErrCoinbase, tx.TxOuts[0].Amount, CoinbaseAmount)
	}

	return nil
}

// ValidateBlockTransactions checks the full transaction list of the block
// at the specified index. The first transaction must be the coinbase, no
// out point may be consumed twice within the block and every remaining
// transaction must be valid against the set.
func ValidateBlockTransactions(txs []Transaction, utxos UTXOSet, blockIndex uint64) error {
	for _, tx := range txs {
		if err := ValidateTransactionStructure(tx); err != nil {
			return err
		}
	}

	if len(txs) == 0 {
		return fmt.Errorf("%w: block has no coinbase transaction", ErrCoinbase)
	}

	if err := ValidateCoinbase(txs[0], blockIndex); err != nil {
		return err
	}

	seen := make(map[OutPoint]struct{})
	for _, tx := range txs {
		for _, in := range tx.TxIns {
			op := in.OutPoint()
			if _, exists := seen[op]; exists {
				return fmt.Errorf("%w: out point %s consumed more than once in block", ErrDoubleSpend, op)
			}
			seen[op] = struct{}{}
		}
	}

	for _, tx := range txs[1:] {
		if err := ValidateTransaction(tx, utxos); err != nil {
			return err
		}
	}

	return nil
}

// ProcessTransactions validates the transactions of the block at the
// specified index and returns the resulting set of unspent outputs. On
// failure the specified set is untouched.
func ProcessTransactions(txs []Transaction, utxos UTXOSet, blockIndex uint64) (UTXOSet, error) {
	if err := ValidateBlockTransactions(txs, utxos, blockIndex); err != nil {
		return UTXOSet{}, err
	}

	return utxos.Apply(txs), nil
}

// =============================================================================

// sumOutputs totals the output amounts, failing on overflow.
func sumOutputs(tx Transaction) (uint64, error) {
	var total uint64
	for _, out := range tx.TxOuts {
		var carry uint64
		total, carry = bits.Add64(total, out.Amount, 0)
		if carry != 0 {
			return 0, fmt.Errorf("%w: tx[%s]: output amounts overflow", ErrConservation, tx.ID)
		}
	}

	return total, nil
}
