// Package database handles all the lower level support for maintaining the
// blockchain: the block and transaction model, validation of blocks, chains
// and transactions, the unspent output set and persistence of the chain.
package database

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(block Block) error
	GetBlock(index uint64) (Block, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (Block, error)
	Done() bool
}

// SnapshotStore interface represents the behavior required to be implemented
// by any package providing support for persisting the unspent output set.
type SnapshotStore interface {
	WriteUTXOs(utxos UTXOSet) error
	ReadUTXOs() (UTXOSet, error)
	Close() error
}

// =============================================================================

// Database manages the canonical chain and the unspent output set derived
// from it, keeping the storage in step with both.
type Database struct {
	mu sync.RWMutex

	chain []Block
	utxos UTXOSet

	serializer Serializer
	snapshots  SnapshotStore
	evHandler  func(v string, args ...any)
}

// New constructs a new database by reading the blockchain from storage. An
// empty storage is initialized with the genesis block. The chain read back
// is fully validated and the unspent output set is derived by replaying it.
// The snapshot store is optional.
func New(serializer Serializer, snapshots SnapshotStore, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	db := Database{
		serializer: serializer,
		snapshots:  snapshots,
		evHandler:  evHandler,
	}

	// Read all the blocks from storage.
	var chain []Block

	iter := db.serializer.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		chain = append(chain, block)
	}

	if len(chain) == 0 {
		evHandler("database: New: storage empty: writing genesis")

		genesis := Genesis()
		if err := db.serializer.Write(genesis); err != nil {
			return nil, fmt.Errorf("writing genesis: %w", err)
		}
		chain = []Block{genesis}
	}

	utxos, err := ValidateChain(chain, time.Now(), evHandler)
	if err != nil {
		return nil, fmt.Errorf("validating stored chain: %w", err)
	}

	db.chain = chain
	db.utxos = utxos
	db.writeSnapshot(utxos)

	evHandler("database: New: loaded: blocks[%d]: utxos[%d]", len(chain), utxos.Len())

	return &db, nil
}

// Close closes the open storage.
func (db *Database) Close() error {
	var errs []error
	if err := db.serializer.Close(); err != nil {
		errs = append(errs, err)
	}

	if db.snapshots != nil {
		if err := db.snapshots.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Flush writes the current unspent output set to the snapshot store.
func (db *Database) Flush() error {
	if db.snapshots == nil {
		return nil
	}

	return db.snapshots.WriteUTXOs(db.UTXOs())
}

// =============================================================================

// Append writes the block to storage and makes it the new tip along with the
// unspent output set it produces. The block must already be validated.
func (db *Database) Append(block Block, utxos UTXOSet) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.serializer.Write(block); err != nil {
		return err
	}

	db.chain = append(db.chain, block)
	db.utxos = utxos
	db.writeSnapshot(utxos)

	return nil
}

// Replace rewrites storage with the specified chain and makes it canonical
// along with its unspent output set. The chain must already be validated.
// If storage fails part way, the current chain is written back and stays
// canonical.
func (db *Database) Replace(chain []Block, utxos UTXOSet) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.rewrite(chain); err != nil {

		// Storage must keep matching the chain held in memory.
		if restoreErr := db.rewrite(db.chain); restoreErr != nil {
			return errors.Join(err, fmt.Errorf("restoring chain: %w", restoreErr))
		}
		return err
	}

	db.chain = append([]Block(nil), chain...)
	db.utxos = utxos
	db.writeSnapshot(utxos)

	return nil
}

// rewrite clears storage and writes the chain from genesis.
func (db *Database) rewrite(chain []Block) error {
	if err := db.serializer.Reset(); err != nil {
		return err
	}

	for _, block := range chain {
		if err := db.serializer.Write(block); err != nil {
			return fmt.Errorf("writing blk[%d]: %w", block.Index, err)
		}
	}

	return nil
}

// =============================================================================

// Blocks returns a copy of the chain.
func (db *Database) Blocks() []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return append([]Block(nil), db.chain...)
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.chain[len(db.chain)-1]
}

// UTXOs returns the current unspent output set. The set is immutable so the
// value can be shared.
func (db *Database) UTXOs() UTXOSet {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.utxos
}

// Difficulty returns the difficulty required for the next block.
func (db *Database) Difficulty() uint32 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return Difficulty(db.chain)
}

// AccumulatedDifficulty returns the accumulated difficulty of the chain.
func (db *Database) AccumulatedDifficulty() *big.Int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return AccumulatedDifficulty(db.chain)
}

// GetBlock searches storage to locate and return the specified block.
func (db *Database) GetBlock(index uint64) (Block, error) {
	return db.serializer.GetBlock(index)
}

// =============================================================================

// writeSnapshot persists the set. A failure is reported but doesn't stop
// the chain from moving forward since the set can always be derived again.
func (db *Database) writeSnapshot(utxos UTXOSet) {
	if db.snapshots == nil {
		return
	}

	if err := db.snapshots.WriteUTXOs(utxos); err != nil {
		db.evHandler("database: writeSnapshot: WARNING: %s", err)
	}
}
