package database

import "github.com/ardanlabs/utxocoin/foundation/blockchain/signature"

// Fixed values of the genesis block every chain starts from.
const (
	genesisHash      = "91a73664bc84c0baa1fc75ea6e4aa6d1d20c5df664c724e3159aefc2e1186627"
	genesisTimestamp = 1465154705
	genesisAddress   = "04bfcab8722991ae774db48f934ca79cfb7dd991229153b9f732ba5334aafcd8e7266e47076996b55a14bf9913ee3145ce0cfc1372ada8ada74bd287450313534a"
)

// genesisTx pays the first reward to the genesis address.
var genesisTx = func() Transaction {
	tx := Transaction{
		TxIns:  []TxIn{{TxOutID: "", TxOutIndex: 0, Signature: ""}},
		TxOuts: []TxOut{{Address: genesisAddress, Amount: CoinbaseAmount}},
	}
	tx.ID = TransactionID(tx)
	return tx
}()

// genesisDigest is used to compare a block to the genesis block.
var genesisDigest = signature.Hash(Genesis())

// Genesis returns a copy of the genesis block.
func Genesis() Block {
	tx := Transaction{
		ID:     genesisTx.ID,
		TxIns:  append([]TxIn(nil), genesisTx.TxIns...),
		TxOuts: append([]TxOut(nil), genesisTx.TxOuts...),
	}

	return Block{
		Index:        0,
		Hash:         genesisHash,
		PreviousHash: "",
		Timestamp:    genesisTimestamp,
		Data:         []Transaction{tx},
		Difficulty:   0,
		Nonce:        0,
	}
}

// IsGenesis reports whether the block is exactly the genesis block.
func IsGenesis(b Block) bool {
	return signature.Hash(b) == genesisDigest
}
