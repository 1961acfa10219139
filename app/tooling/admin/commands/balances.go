// Package commands contains the functionality for the admin tooling.
package commands

import (
	"fmt"
	"sort"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
)

// LoadChain reads every stored block in index order.
func LoadChain(s database.Serializer) ([]database.Block, error) {
	var chain []database.Block

	iter := s.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		chain = append(chain, block)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no blocks found")
	}

	return chain, nil
}

// Balances prints the balance of every address, or only the specified one,
// computed from the replayed set of unspent outputs.
func Balances(onlyAddr string, chain []database.Block, utxos database.UTXOSet) error {
	fmt.Printf("LatestBlockHash: %s\n\n", chain[len(chain)-1].Hash)

	bals := make(map[string]uint64)
	for _, out := range utxos.Values() {
		if onlyAddr != "" && out.Address != onlyAddr {
			continue
		}
		bals[out.Address] += out.Amount
	}

	addrs := make([]string, 0, len(bals))
	for addr := range bals {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)

	for _, addr := range addrs {
		fmt.Printf("Address: %s  Balance: %d\n", addr, bals[addr])
	}

	return nil
}

// Snapshot prints the unspent outputs held in the snapshot file.
func Snapshot(store database.SnapshotStore) error {
	utxos, err := store.ReadUTXOs()
	if err != nil {
		return err
	}

	fmt.Printf("Unspent outputs: %d\n\n", utxos.Len())

	for _, out := range utxos.Values() {
		fmt.Printf("OutPoint: %s  Address: %s  Amount: %d\n", out.OutPoint(), out.Address, out.Amount)
	}

	return nil
}
