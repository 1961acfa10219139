package database

import (
	"fmt"
	"time"
)

// ValidateChain checks the full chain starting from the genesis block and
// returns the set of unspent outputs produced by replaying every block.
func ValidateChain(chain []Block, now time.Time, evHandler func(v string, args ...any)) (UTXOSet, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	if len(chain) == 0 {
		return UTXOSet{}, fmt.Errorf("%w: chain is empty", ErrStructural)
	}

	evHandler("database: ValidateChain: validate: blocks[%d]: check: genesis block", len(chain))

	if !IsGenesis(chain[0]) {
		return UTXOSet{}, fmt.Errorf("%w: first block is not the genesis block", ErrLinkage)
	}

	utxos := NewUTXOSet(nil)
	for i, block := range chain {
		if i > 0 {
			if err := block.ValidateBlock(chain[i-1], now, evHandler); err != nil {
				return UTXOSet{}, err
			}
		}

		next, err := ProcessTransactions(block.Data, utxos, block.Index)
		if err != nil {
			return UTXOSet{}, fmt.Errorf("blk[%d]: %w", block.Index, err)
		}
		utxos = next
	}

	return utxos, nil
}
