package database_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/database/storage"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	pkHexKey     = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	pkHexKeyTo   = "aed31b6b5a341a2f4a1c4ae73dbd8a6fb4a2b0b6b3d4a8b2ae0b1d1e9f3c7a51"
	genesisTxID  = "e655f6a5f26dc9b4cac6e46f52336428287759cf81ef5ff10854f69d68f43fa3"
	genesisOwner = "04bfcab8722991ae774db48f934ca79cfb7dd991229153b9f732ba5334aafcd8e7266e47076996b55a14bf9913ee3145ce0cfc1372ada8ada74bd287450313534a"
)

// =============================================================================

func Test_TransactionID(t *testing.T) {
	t.Log("Given the need to calculate transaction ids deterministically.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling the genesis transaction.", testID)
		{
			tx := database.Genesis().Data[0]

			id := database.TransactionID(tx)
			if id != genesisTxID {
				t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, id)
				t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, genesisTxID)
				t.Fatalf("\t%s\tTest %d:\tShould get the known genesis transaction id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the known genesis transaction id.", success, testID)

			if database.TransactionID(tx) != id {
				t.Fatalf("\t%s\tTest %d:\tShould get the same id twice.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould get the same id twice.", success, testID)

			tx.TxIns[0].Signature = "3006020101020101"
			if database.TransactionID(tx) != id {
				t.Fatalf("\t%s\tTest %d:\tShould not include signatures in the id.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not include signatures in the id.", success, testID)
		}
	}
}

func Test_Genesis(t *testing.T) {
	t.Log("Given the need to start every chain from the genesis block.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen validating a genesis only chain.", testID)
		{
			chain := []database.Block{database.Genesis()}

			utxos, err := database.ValidateChain(chain, time.Now(), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to validate the chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to validate the chain.", success, testID)

			owned := utxos.Owned(genesisOwner)
			if len(owned) != 1 || owned[0].Amount != database.CoinbaseAmount {
				t.Fatalf("\t%s\tTest %d:\tShould have the genesis reward unspent: %v", failed, testID, owned)
			}
			t.Logf("\t%s\tTest %d:\tShould have the genesis reward unspent.", success, testID)

			if ad := database.AccumulatedDifficulty(chain); ad.Cmp(big.NewInt(1)) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have an accumulated difficulty of 1, got %s.", failed, testID, ad)
			}
			t.Logf("\t%s\tTest %d:\tShould have an accumulated difficulty of 1.", success, testID)

			chain = append(chain, nextBlock(chain[0], []database.Transaction{database.NewCoinbase(genesisOwner, 1)}))
			if ad := database.AccumulatedDifficulty(chain); ad.Cmp(big.NewInt(2)) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould have an accumulated difficulty of 2, got %s.", failed, testID, ad)
			}
			t.Logf("\t%s\tTest %d:\tShould have an accumulated difficulty of 2 after one more block.", success, testID)

			modified := database.Genesis()
			modified.Nonce = 1
			if database.IsGenesis(modified) {
				t.Fatalf("\t%s\tTest %d:\tShould not treat a modified block as genesis.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not treat a modified block as genesis.", success, testID)
		}
	}
}

func Test_ValidateBlock(t *testing.T) {
	genesis := database.Genesis()
	now := time.Unix(genesis.Timestamp+1000, 0)
	coinbase := database.NewCoinbase(genesisOwner, 1)

	rehash := func(b database.Block) database.Block {
		b.Hash = b.CalculateHash()
		return b
	}

	type table struct {
		name  string
		block database.Block
		err   error
	}

	valid := nextBlock(genesis, []database.Transaction{coinbase})

	tt := []table{
		{name: "valid", block: valid},
		{name: "index", block: func() database.Block { b := valid; b.Index = 2; return rehash(b) }(), err: database.ErrLinkage},
		{name: "prevhash", block: func() database.Block { b := valid; b.PreviousHash = coinbase.ID; return rehash(b) }(), err: database.ErrLinkage},
		{name: "too-old", block: func() database.Block { b := valid; b.Timestamp = genesis.Timestamp - 60; return rehash(b) }(), err: database.ErrTimestamp},
		{name: "future", block: func() database.Block { b := valid; b.Timestamp = now.Unix() + 60; return rehash(b) }(), err: database.ErrTimestamp},
		{name: "content", block: func() database.Block { b := valid; b.Nonce = 7; return b }(), err: database.ErrProofOfWork},
		{name: "difficulty", block: func() database.Block { b := valid; b.Difficulty = 200; return rehash(b) }(), err: database.ErrProofOfWork},
		{name: "structure", block: func() database.Block { b := valid; b.Hash = "abc"; return b }(), err: database.ErrStructural},
	}

	t.Log("Given the need to validate new blocks against the previous block.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s block.", testID, tst.name)
			{
				f := func(t *testing.T) {
					err := tst.block.ValidateBlock(genesis, now, nil)

					switch tst.err {
					case nil:
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to validate the block: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould be able to validate the block.", success, testID)

					default:
						if !errors.Is(err, tst.err) {
							t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
							t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.err)
							t.Fatalf("\t%s\tTest %d:\tShould reject the block with the right kind.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould reject the block with the right kind.", success, testID)
					}
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Transactions(t *testing.T) {
	from, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}
	to, err := crypto.HexToECDSA(pkHexKeyTo)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}

	fromAddr := database.PublicKeyToAddress(from)
	toAddr := database.PublicKeyToAddress(to)

	// The sender owns the reward of block 1.
	reward := database.NewCoinbase(fromAddr, 1)
	utxos := database.NewUTXOSet(nil).Apply(database.Genesis().Data).Apply([]database.Transaction{reward})

	spend := func(amounts ...uint64) database.Transaction {
		tx := database.Transaction{
			TxIns: []database.TxIn{{TxOutID: reward.ID, TxOutIndex: 0}},
		}
		for i, amount := range amounts {
			addr := toAddr
			if i > 0 {
				addr = fromAddr
			}
			tx.TxOuts = append(tx.TxOuts, database.TxOut{Address: addr, Amount: amount})
		}
		tx.ID = database.TransactionID(tx)
		tx.TxIns[0].Signature = database.SignTxIn(tx, 0, from, utxos)
		return tx
	}

	type table struct {
		name string
		tx   database.Transaction
		err  error
	}

	tt := []table{
		{name: "exact", tx: spend(50)},
		{name: "change", tx: spend(30, 20)},
		{name: "create", tx: spend(30, 21), err: database.ErrConservation},
		{name: "destroy", tx: spend(30), err: database.ErrConservation},
		{name: "signature", tx: func() database.Transaction {
			tx := spend(50)
			other := spend(30, 20)
			tx.TxIns[0].Signature = other.TxIns[0].Signature
			return tx
		}(), err: database.ErrSignature},
		{name: "missing", tx: func() database.Transaction {
			tx := database.Transaction{
				TxIns:  []database.TxIn{{TxOutID: genesisTxID, TxOutIndex: 3}},
				TxOuts: []database.TxOut{{Address: toAddr, Amount: 50}},
			}
			tx.ID = database.TransactionID(tx)
			return tx
		}(), err: database.ErrDoubleSpend},
		{name: "repeated input", tx: func() database.Transaction {
			tx := database.Transaction{
				TxIns:  []database.TxIn{{TxOutID: reward.ID, TxOutIndex: 0}, {TxOutID: reward.ID, TxOutIndex: 0}},
				TxOuts: []database.TxOut{{Address: toAddr, Amount: 100}},
			}
			tx.ID = database.TransactionID(tx)
			tx.TxIns[0].Signature = database.SignTxIn(tx, 0, from, utxos)
			tx.TxIns[1].Signature = database.SignTxIn(tx, 1, from, utxos)
			return tx
		}(), err: database.ErrDoubleSpend},
		{name: "id", tx: func() database.Transaction { tx := spend(50); tx.ID = genesisTxID; return tx }(), err: database.ErrStructural},
		{name: "address", tx: func() database.Transaction { tx := spend(50); tx.TxOuts[0].Address = "05" + toAddr[2:]; return tx }(), err: database.ErrStructural},
	}

	t.Log("Given the need to validate transactions against the unspent outputs.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s transaction.", testID, tst.name)
			{
				f := func(t *testing.T) {
					err := database.ValidateTransaction(tst.tx, utxos)

					switch tst.err {
					case nil:
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to validate the transaction: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould be able to validate the transaction.", success, testID)

					default:
						if !errors.Is(err, tst.err) {
							t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
							t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.err)
							t.Fatalf("\t%s\tTest %d:\tShould reject the transaction with the right kind.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould reject the transaction with the right kind.", success, testID)
					}
				}

				t.Run(tst.name, f)
			}
		}
	}

	t.Log("Given the need to sign only outputs the key owns.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen signing with a key that doesn't own the output.", testID)
		{
			defer func() {
				if recover() == nil {
					t.Fatalf("\t%s\tTest %d:\tShould panic on signer misuse.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould panic on signer misuse.", success, testID)
			}()

			tx := spend(50)
			database.SignTxIn(tx, 0, to, utxos)
		}
	}
}

func Test_BlockTransactions(t *testing.T) {
	from, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}
	fromAddr := database.PublicKeyToAddress(from)

	reward := database.NewCoinbase(fromAddr, 1)
	utxos := database.NewUTXOSet(nil).Apply(database.Genesis().Data).Apply([]database.Transaction{reward})

	spend := func(to string) database.Transaction {
		tx := database.Transaction{
			TxIns:  []database.TxIn{{TxOutID: reward.ID, TxOutIndex: 0}},
			TxOuts: []database.TxOut{{Address: to, Amount: 50}},
		}
		tx.ID = database.TransactionID(tx)
		tx.TxIns[0].Signature = database.SignTxIn(tx, 0, from, utxos)
		return tx
	}

	badReward := database.NewCoinbase(fromAddr, 2)
	badReward.TxOuts[0].Amount = 51
	badReward.ID = database.TransactionID(badReward)

	type table struct {
		name string
		txs  []database.Transaction
		err  error
	}

	tt := []table{
		{name: "valid", txs: []database.Transaction{database.NewCoinbase(fromAddr, 2), spend(genesisOwner)}},
		{name: "reward", txs: []database.Transaction{badReward}, err: database.ErrCoinbase},
		{name: "index", txs: []database.Transaction{database.NewCoinbase(fromAddr, 3)}, err: database.ErrCoinbase},
		{name: "empty", txs: nil, err: database.ErrCoinbase},
		{name: "no-coinbase", txs: []database.Transaction{spend(genesisOwner)}, err: database.ErrCoinbase},
		{name: "duplicate", txs: []database.Transaction{database.NewCoinbase(fromAddr, 2), spend(genesisOwner), spend(fromAddr)}, err: database.ErrDoubleSpend},
	}

	t.Log("Given the need to validate the transactions of a block.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s block.", testID, tst.name)
			{
				f := func(t *testing.T) {
					next, err := database.ProcessTransactions(tst.txs, utxos, 2)

					switch tst.err {
					case nil:
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to process the transactions: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould be able to process the transactions.", success, testID)

						if next.Contains(database.OutPoint{TxOutID: reward.ID}) {
							t.Fatalf("\t%s\tTest %d:\tShould have consumed the spent output.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould have consumed the spent output.", success, testID)

						if !utxos.Contains(database.OutPoint{TxOutID: reward.ID}) {
							t.Fatalf("\t%s\tTest %d:\tShould not modify the original set.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould not modify the original set.", success, testID)

					default:
						if !errors.Is(err, tst.err) {
							t.Logf("\t%s\tTest %d:\tgot: %v", failed, testID, err)
							t.Logf("\t%s\tTest %d:\texp: %v", failed, testID, tst.err)
							t.Fatalf("\t%s\tTest %d:\tShould reject the block with the right kind.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould reject the block with the right kind.", success, testID)
					}
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_UTXOSetOrder(t *testing.T) {
	t.Log("Given the need to keep a deterministic order of unspent outputs.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen applying blocks of rewards.", testID)
		{
			utxos := database.NewUTXOSet(nil).Apply(database.Genesis().Data)
			for i := uint64(1); i <= 3; i++ {
				utxos = utxos.Apply([]database.Transaction{database.NewCoinbase(genesisOwner, i)})
			}

			values := utxos.Values()
			if len(values) != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould have 4 outputs, got %d.", failed, testID, len(values))
			}
			t.Logf("\t%s\tTest %d:\tShould have 4 outputs.", success, testID)

			for i := 1; i <= 3; i++ {
				exp := database.NewCoinbase(genesisOwner, uint64(i)).ID
				if values[i].TxOutID != exp {
					t.Fatalf("\t%s\tTest %d:\tShould keep outputs in applied order.", failed, testID)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould keep outputs in applied order.", success, testID)

			values[0].Amount = 1000
			if first, _ := utxos.Find(values[0].OutPoint()); first.Amount != database.CoinbaseAmount {
				t.Fatalf("\t%s\tTest %d:\tShould not expose internal storage.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not expose internal storage.", success, testID)
		}
	}
}

func Test_Difficulty(t *testing.T) {
	build := func(firstDifficulty uint32, length int, lastOffset int64) []database.Block {
		chain := make([]database.Block, length)
		for i := range chain {
			chain[i] = database.Block{Index: uint64(i), Timestamp: 1000 + int64(i), Difficulty: 4}
		}
		chain[0].Difficulty = firstDifficulty
		chain[length-1].Timestamp = 1000 + lastOffset
		return chain
	}

	type table struct {
		name  string
		chain []database.Block
		exp   uint32
	}

	tt := []table{
		{name: "not-interval", chain: build(2, 10, 9), exp: 4},
		{name: "fast", chain: build(2, 11, 20), exp: 3},
		{name: "on-time", chain: build(2, 11, 100), exp: 2},
		{name: "slow", chain: build(2, 11, 300), exp: 1},
		{name: "floor", chain: build(0, 11, 300), exp: 0},
		{name: "genesis", chain: []database.Block{database.Genesis()}, exp: 0},
	}

	t.Log("Given the need to retarget the difficulty.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s chain.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got := database.Difficulty(tst.chain)
					if got != tst.exp {
						t.Logf("\t%s\tTest %d:\tgot: %d", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %d", failed, testID, tst.exp)
						t.Fatalf("\t%s\tTest %d:\tShould get the right difficulty.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the right difficulty.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_ValidateChain(t *testing.T) {
	chain := []database.Block{database.Genesis()}
	for i := uint64(1); i <= 3; i++ {
		chain = append(chain, nextBlock(chain[i-1], []database.Transaction{database.NewCoinbase(genesisOwner, i)}))
	}

	t.Log("Given the need to validate a full chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling a valid chain.", testID)
		{
			utxos, err := database.ValidateChain(chain, time.Now(), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to validate the chain: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to validate the chain.", success, testID)

			if utxos.Len() != 4 {
				t.Fatalf("\t%s\tTest %d:\tShould have 4 unspent outputs, got %d.", failed, testID, utxos.Len())
			}
			t.Logf("\t%s\tTest %d:\tShould have 4 unspent outputs.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen handling a chain with a corrupted interior hash.", testID)
		{
			corrupt := append([]database.Block(nil), chain...)
			corrupt[2].Hash = corrupt[1].Hash

			if _, err := database.ValidateChain(corrupt, time.Now(), nil); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the chain.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen handling a chain with the wrong genesis.", testID)
		{
			corrupt := append([]database.Block(nil), chain...)
			corrupt[0].Timestamp++

			if _, err := database.ValidateChain(corrupt, time.Now(), nil); !errors.Is(err, database.ErrLinkage) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the chain with a linkage error: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the chain with a linkage error.", success, testID)
		}
	}
}

func Test_POW(t *testing.T) {
	genesis := database.Genesis()

	t.Log("Given the need to mine blocks.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen mining at a small difficulty.", testID)
		{
			block, err := database.POW(context.Background(), database.POWArgs{
				Index:        1,
				PreviousHash: genesis.Hash,
				Timestamp:    genesis.Timestamp + 1,
				Data:         []database.Transaction{database.NewCoinbase(genesisOwner, 1)},
				Difficulty:   6,
			})
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to mine the block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to mine the block.", success, testID)

			if err := block.ValidateBlock(genesis, time.Now(), nil); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould produce a valid block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould produce a valid block.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen mining is cancelled.", testID)
		{
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()

			_, err := database.POW(ctx, database.POWArgs{
				Index:        1,
				PreviousHash: genesis.Hash,
				Timestamp:    genesis.Timestamp + 1,
				Data:         []database.Transaction{database.NewCoinbase(genesisOwner, 1)},
				Difficulty:   255,
			})
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Fatalf("\t%s\tTest %d:\tShould stop when cancelled: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould stop when cancelled.", success, testID)
		}
	}
}

func Test_Database(t *testing.T) {
	t.Log("Given the need to persist the chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen opening an empty storage.", testID)
		{
			mem := storage.NewMemory()

			db, err := database.New(mem, nil, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the database: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to open the database.", success, testID)

			if !database.IsGenesis(db.LatestBlock()) {
				t.Fatalf("\t%s\tTest %d:\tShould start with the genesis block.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould start with the genesis block.", success, testID)

			block := nextBlock(db.LatestBlock(), []database.Transaction{database.NewCoinbase(genesisOwner, 1)})
			utxos, err := database.ProcessTransactions(block.Data, db.UTXOs(), block.Index)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to process the block: %v", failed, testID, err)
			}

			if err := db.Append(block, utxos); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to append the block: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to append the block.", success, testID)

			reopened, err := database.New(mem, nil, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to reopen the database: %v", failed, testID, err)
			}

			if len(reopened.Blocks()) != 2 || reopened.UTXOs().Len() != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould rebuild the chain and unspent outputs from storage.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould rebuild the chain and unspent outputs from storage.", success, testID)

			if err := reopened.Replace([]database.Block{database.Genesis()}, database.NewUTXOSet(nil).Apply(database.Genesis().Data)); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to replace the chain: %v", failed, testID, err)
			}
			if len(reopened.Blocks()) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have replaced the chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to replace the chain.", success, testID)
		}
	}
}

func Test_ReplaceFailure(t *testing.T) {
	t.Log("Given the need to keep storage in step with the chain.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen storage fails while replacing the chain.", testID)
		{
			fs := failingSerializer{Memory: storage.NewMemory()}

			db, err := database.New(&fs, nil, nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to open the database: %v", failed, testID, err)
			}

			first := nextBlock(db.LatestBlock(), []database.Transaction{database.NewCoinbase(genesisOwner, 1)})
			utxos, err := database.ProcessTransactions(first.Data, db.UTXOs(), first.Index)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to process the block: %v", failed, testID, err)
			}
			if err := db.Append(first, utxos); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to append the block: %v", failed, testID, err)
			}

			// The candidate chain has three blocks and storage fails on the third.
			var candidate []database.Block
			candidate = append(candidate, database.Genesis())
			for i := uint64(1); i <= 2; i++ {
				candidate = append(candidate, nextBlock(candidate[i-1], []database.Transaction{database.NewCoinbase(genesisOwner, i)}))
			}
			candidate[1].Timestamp++
			candidate[1].Hash = candidate[1].CalculateHash()
			candidate[2] = nextBlock(candidate[1], candidate[2].Data)

			fs.failAt = fs.writes + 3

			if err := db.Replace(candidate, utxos); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould report the storage failure.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report the storage failure.", success, testID)

			if db.LatestBlock().Hash != first.Hash || len(db.Blocks()) != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould keep the current chain.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep the current chain.", success, testID)

			stored, err := fs.GetBlock(1)
			if err != nil || stored.Hash != first.Hash {
				t.Fatalf("\t%s\tTest %d:\tShould restore the current chain in storage: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould restore the current chain in storage.", success, testID)

			second := nextBlock(first, []database.Transaction{database.NewCoinbase(genesisOwner, 2)})
			next, err := database.ProcessTransactions(second.Data, db.UTXOs(), second.Index)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to process the block: %v", failed, testID, err)
			}
			if err := db.Append(second, next); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to append after the failure: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to append after the failure.", success, testID)
		}
	}
}

// =============================================================================

// failingSerializer fails the write with the specified sequence number.
type failingSerializer struct {
	*storage.Memory
	writes int
	failAt int
}

func (fs *failingSerializer) Write(block database.Block) error {
	fs.writes++
	if fs.writes == fs.failAt {
		return errors.New("storage full")
	}

	return fs.Memory.Write(block)
}

// nextBlock builds a block on top of prev at difficulty zero, which any
// hash satisfies.
func nextBlock(prev database.Block, txs []database.Transaction) database.Block {
	b := database.Block{
		Index:        prev.Index + 1,
		PreviousHash: prev.Hash,
		Timestamp:    prev.Timestamp + 10,
		Data:         txs,
	}
	b.Hash = b.CalculateHash()

	return b
}
