// This program provides a command line wallet for the ledger.
package main

import "github.com/ardanlabs/utxocoin/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
