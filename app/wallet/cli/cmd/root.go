// Package cmd contains wallet app
package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
	url         string
)

const (
	keyExtenstion = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.ecdsa", "Path to the private key.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
}

var rootCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Your simple utxo wallet",
}

// Execute runs the wallet command line.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	if !strings.HasSuffix(accountName, keyExtenstion) {
		accountName += keyExtenstion
	}

	return filepath.Join(accountPath, accountName)
}

// =============================================================================

type unspent struct {
	UnspentTxOuts []database.UnspentTxOut `json:"unspentTxOuts"`
}

// fetchUnspent asks the node for the unspent outputs owned by the address.
func fetchUnspent(address string) (database.UTXOSet, error) {
	var resp unspent
	if err := get(fmt.Sprintf("%s/v1/address/%s", url, address), &resp); err != nil {
		return database.UTXOSet{}, err
	}

	return database.NewUTXOSet(resp.UnspentTxOuts), nil
}

// fetchPool asks the node for its mempool.
func fetchPool() ([]database.Transaction, error) {
	var pool []database.Transaction
	if err := get(fmt.Sprintf("%s/v1/tx/pool", url), &pool); err != nil {
		return nil, err
	}

	return pool, nil
}

func get(endpoint string, v any) error {
	resp, err := http.Get(endpoint)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&e)
		return fmt.Errorf("status[%d]: %s", resp.StatusCode, e.Error)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
