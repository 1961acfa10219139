package commands

import (
	"fmt"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
)

// Transactions prints the transactions of the chain, or only those that pay
// the specified address.
func Transactions(addr string, chain []database.Block) error {
	fmt.Printf("LatestBlockHash: %s\n\n", chain[len(chain)-1].Hash)

	for _, block := range chain {
		for _, tx := range block.Data {
			if addr != "" && !pays(tx, addr) {
				continue
			}

			fmt.Printf("Block: %d  ID: %s  Ins: %d  Outs: %d\n", block.Index, tx.ID, len(tx.TxIns), len(tx.TxOuts))
			for _, out := range tx.TxOuts {
				fmt.Printf("    To: %s  Amount: %d\n", out.Address, out.Amount)
			}
		}
	}

	return nil
}

func pays(tx database.Transaction, addr string) bool {
	for _, out := range tx.TxOuts {
		if out.Address == addr {
			return true
		}
	}

	return false
}
