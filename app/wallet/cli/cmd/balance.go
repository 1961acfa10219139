package cmd

import (
	"fmt"
	"log"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balance.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	address := wallet.Address(privateKey)
	fmt.Println("For Address:", address)

	utxos, err := fetchUnspent(address)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(wallet.Balance(address, utxos))
}
