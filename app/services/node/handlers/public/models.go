package public

import "github.com/ardanlabs/utxocoin/foundation/blockchain/database"

type rawBlock struct {
	Data []database.Transaction `json:"data" validate:"required,dive"`
}

type payment struct {
	Address string `json:"address" validate:"required"`
	Amount  uint64 `json:"amount"`
}

type newPeer struct {
	Host string `json:"host" validate:"required"`
}

type unspent struct {
	UnspentTxOuts []database.UnspentTxOut `json:"unspentTxOuts"`
}

type balance struct {
	Balance uint64 `json:"balance"`
}

type address struct {
	Address string `json:"address"`
}
