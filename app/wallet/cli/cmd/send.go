package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var (
	nodeURL string
	to      string
	amount  uint64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		sendWithDetails(privateKey)
	},
}

func sendWithDetails(privateKey *ecdsa.PrivateKey) {
	utxos, err := fetchUnspent(wallet.Address(privateKey))
	if err != nil {
		log.Fatal(err)
	}

	pool, err := fetchPool()
	if err != nil {
		log.Fatal(err)
	}

	tx, err := wallet.Build(to, amount, privateKey, utxos, pool)
	if err != nil {
		log.Fatal(err)
	}

	data, err := json.Marshal([]database.Transaction{tx})
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/node/tx/submit", nodeURL), "application/json", bytes.NewBuffer(data))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	var result struct {
		Accepted int `json:"accepted"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatal(err)
	}

	if result.Accepted == 0 {
		log.Fatalf("transaction %s was rejected by the node", tx.ID)
	}

	fmt.Println(tx.ID)
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&nodeURL, "node-url", "n", "http://localhost:9080", "Url of the node's private api.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Address of the receiver.")
	sendCmd.Flags().Uint64VarP(&amount, "amount", "v", 0, "Amount to send.")
}
