package mempool_test

import (
	"crypto/ecdsa"
	"errors"
	"testing"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/mempool"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const receiver = "04bfcab8722991ae774db48f934ca79cfb7dd991229153b9f732ba5334aafcd8e7266e47076996b55a14bf9913ee3145ce0cfc1372ada8ada74bd287450313534a"

// fixture gives the test key three rewards and returns a helper to build
// signed transactions spending a reward to an address along with the key.
func fixture(t *testing.T) (database.UTXOSet, func(reward int, to string) database.Transaction, []database.Transaction, *ecdsa.PrivateKey) {
	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("Should be able to load the private key: %s", err)
	}
	addr := database.PublicKeyToAddress(pk)

	var rewards []database.Transaction
	utxos := database.NewUTXOSet(nil)
	for i := uint64(1); i <= 3; i++ {
		cb := database.NewCoinbase(addr, i)
		rewards = append(rewards, cb)
		utxos = utxos.Apply([]database.Transaction{cb})
	}

	spend := func(reward int, to string) database.Transaction {
		tx := database.Transaction{
			TxIns:  []database.TxIn{{TxOutID: rewards[reward].ID, TxOutIndex: 0}},
			TxOuts: []database.TxOut{{Address: to, Amount: database.CoinbaseAmount}},
		}
		tx.ID = database.TransactionID(tx)
		tx.TxIns[0].Signature = database.SignTxIn(tx, 0, pk, utxos)
		return tx
	}

	return utxos, spend, rewards, pk
}

func TestAdd(t *testing.T) {
	utxos, spend, rewards, pk := fixture(t)

	t.Log("Given the need to add transactions to the mempool.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen handling transactions that share an input.", testID)
		{
			mp := mempool.New()

			first := spend(0, receiver)
			if err := mp.Add(first, utxos); err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to add the first transaction: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould be able to add the first transaction.", success, testID)

			second := spend(0, database.PublicKeyToAddress(mustKey(t)))
			if err := mp.Add(second, utxos); !errors.Is(err, database.ErrDoubleSpend) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the second transaction as a double spend: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the second transaction as a double spend.", success, testID)

			if err := mp.Add(first, utxos); !errors.Is(err, mempool.ErrAlreadyPooled) {
				t.Fatalf("\t%s\tTest %d:\tShould reject the same transaction twice: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the same transaction twice.", success, testID)

			twice := database.Transaction{
				TxIns:  []database.TxIn{{TxOutID: rewards[2].ID, TxOutIndex: 0}, {TxOutID: rewards[2].ID, TxOutIndex: 0}},
				TxOuts: []database.TxOut{{Address: receiver, Amount: 2 * database.CoinbaseAmount}},
			}
			twice.ID = database.TransactionID(twice)
			twice.TxIns[0].Signature = database.SignTxIn(twice, 0, pk, utxos)
			twice.TxIns[1].Signature = database.SignTxIn(twice, 1, pk, utxos)
			if err := mp.Add(twice, utxos); !errors.Is(err, database.ErrDoubleSpend) {
				t.Fatalf("\t%s\tTest %d:\tShould reject a transaction spending an output twice: %v", failed, testID, err)
			}
			t.Logf("\t%s\tTest %d:\tShould reject a transaction spending an output twice.", success, testID)

			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould have one transaction, got %d.", failed, testID, mp.Count())
			}
			t.Logf("\t%s\tTest %d:\tShould have one transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen handling an invalid transaction.", testID)
		{
			mp := mempool.New()

			tx := spend(1, receiver)
			tx.TxOuts[0].Amount = 49
			tx.ID = database.TransactionID(tx)

			if err := mp.Add(tx, utxos); err == nil {
				t.Fatalf("\t%s\tTest %d:\tShould reject the transaction.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould reject the transaction.", success, testID)
		}
	}
}

func TestPrune(t *testing.T) {
	utxos, spend, _, _ := fixture(t)

	t.Log("Given the need to keep the mempool consistent with the unspent outputs.")
	{
		testID := 0
		t.Logf("\tTest %d:\tWhen an input gets consumed by a block.", testID)
		{
			mp := mempool.New()

			txs := []database.Transaction{spend(0, receiver), spend(1, receiver), spend(2, receiver)}
			for _, tx := range txs {
				if err := mp.Add(tx, utxos); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to add transaction: %v", failed, testID, err)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould be able to add transactions.", success, testID)

			if removed := mp.Prune(utxos); len(removed) != 0 || mp.Count() != 3 {
				t.Fatalf("\t%s\tTest %d:\tShould not remove anything against an unchanged set.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould not remove anything against an unchanged set.", success, testID)

			next := utxos.Apply([]database.Transaction{txs[1]})
			removed := mp.Prune(next)
			if len(removed) != 1 || removed[0].ID != txs[1].ID {
				t.Fatalf("\t%s\tTest %d:\tShould remove the mined transaction: %v", failed, testID, removed)
			}
			t.Logf("\t%s\tTest %d:\tShould remove the mined transaction.", success, testID)

			if removed := mp.Prune(next); len(removed) != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould be idempotent.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be idempotent.", success, testID)

			best := mp.PickBest(-1)
			if len(best) != 2 || best[0].ID != txs[0].ID || best[1].ID != txs[2].ID {
				t.Fatalf("\t%s\tTest %d:\tShould keep arrival order.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould keep arrival order.", success, testID)

			if len(mp.PickBest(1)) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould limit the number picked.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould limit the number picked.", success, testID)

			if _, exists := mp.Inputs()[txs[0].TxIns[0].OutPoint()]; !exists {
				t.Fatalf("\t%s\tTest %d:\tShould report pooled inputs.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould report pooled inputs.", success, testID)

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest %d:\tShould be empty after truncate.", failed, testID)
			}
			t.Logf("\t%s\tTest %d:\tShould be empty after truncate.", success, testID)
		}
	}
}

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	pk, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("Should be able to generate a key: %s", err)
	}
	return pk
}
