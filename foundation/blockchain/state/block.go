package state

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/metrics"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
)

// MineRawBlock attempts to mine a block holding exactly the specified
// transactions on top of the current tip.
func (s *State) MineRawBlock(ctx context.Context, data []database.Transaction) (database.Block, error) {
	s.evHandler("state: MineRawBlock: MINING: started: txs[%d]", len(data))
	defer s.evHandler("state: MineRawBlock: MINING: completed")

	build := func(index uint64) ([]database.Transaction, error) {
		return data, nil
	}

	return s.mine(ctx, build)
}

// MineBlockWithPool attempts to mine a block holding a reward for the miner
// followed by every transaction in the mempool.
func (s *State) MineBlockWithPool(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineBlockWithPool: MINING: started")
	defer s.evHandler("state: MineBlockWithPool: MINING: completed")

	build := func(index uint64) ([]database.Transaction, error) {
		coinbase := database.NewCoinbase(s.minerAddress, index)
		return append([]database.Transaction{coinbase}, s.mempool.Copy()...), nil
	}

	return s.mine(ctx, build)
}

// MineTransactionBlock attempts to mine a block holding a reward for the
// miner and a single payment from the miner to the receiver.
func (s *State) MineTransactionBlock(ctx context.Context, receiver string, amount uint64) (database.Block, error) {
	s.evHandler("state: MineTransactionBlock: MINING: started: receiver[%s]: amount[%d]", receiver, amount)
	defer s.evHandler("state: MineTransactionBlock: MINING: completed")

	if err := database.ValidateAddress(receiver); err != nil {
		return database.Block{}, err
	}

	if amount == 0 {
		return database.Block{}, fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	}

	build := func(index uint64) ([]database.Transaction, error) {
		tx, err := wallet.Build(receiver, amount, s.minerKey, s.db.UTXOs(), s.mempool.Copy())
		if err != nil {
			return nil, err
		}

		coinbase := database.NewCoinbase(s.minerAddress, index)
		return []database.Transaction{coinbase, tx}, nil
	}

	return s.mine(ctx, build)
}

// AddBlock validates the block as the successor of the current tip and
// applies it. On success the unspent outputs and the mempool are updated
// together with the chain.
func (s *State) AddBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.validateUpdateDatabase(block)
}

// ProcessProposedBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain. A block further
// ahead than the next index returns ErrChainAhead and a sync with the peers
// is signaled to fetch the full chain. A block at or below the tip returns
// ErrBlockIgnored.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.PreviousHash, block.Hash, len(block.Data))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash)

	s.mu.Lock()

	latest := s.db.LatestBlock()

	if block.Index <= latest.Index {
		s.mu.Unlock()
		s.evHandler("state: ProcessProposedBlock: ignored: blk[%d] not ahead of latest[%d]", block.Index, latest.Index)
		return fmt.Errorf("%w: blk[%d]: latest[%d]", ErrBlockIgnored, block.Index, latest.Index)
	}

	if block.PreviousHash != latest.Hash {
		s.mu.Unlock()

		// The peers need to be asked for their full chain.
		s.Worker.SignalPeerSync()
		return fmt.Errorf("%w: blk[%d]: latest[%d]", ErrChainAhead, block.Index, latest.Index)
	}

	err := s.validateUpdateDatabase(block)
	s.mu.Unlock()

	if err != nil {
		return err
	}

	// If a mining operation is running it needs to stop immediately since
	// it's building on a block that is no longer the tip.
	s.Worker.SignalCancelMining()
	s.Worker.SignalShareBlock(block)

	return nil
}

// =============================================================================

// pow performs the proof of work search for a block.
var pow = database.POW

// mine reads the tip under the lock, runs the proof of work search without
// holding it and then tries to append the result. The search is cancelled
// when the tip changes. If the chain moved before the append, it fails and
// ErrCouldNotGenerate is returned.
func (s *State) mine(ctx context.Context, build func(index uint64) ([]database.Transaction, error)) (database.Block, error) {
	s.mu.Lock()

	latest := s.db.LatestBlock()
	difficulty := s.db.Difficulty()

	data, err := build(latest.Index + 1)
	if err != nil {
		s.mu.Unlock()
		return database.Block{}, err
	}

	// A new tip from a peer or another search cancels this one.
	ctx, cancel := context.WithCancel(ctx)
	id := s.trackMining(cancel)

	s.mu.Unlock()

	defer s.untrackMining(id)

	s.evHandler("state: mine: MINING: perform POW: blk[%d]: difficulty[%d]", latest.Index+1, difficulty)

	block, err := pow(ctx, database.POWArgs{
		Index:        latest.Index + 1,
		PreviousHash: latest.Hash,
		Timestamp:    time.Now().Unix(),
		Data:         data,
		Difficulty:   difficulty,
		EvHandler:    s.evHandler,
	})
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: mine: MINING: validate and update database")

	if err := s.AddBlock(block); err != nil {
		return database.Block{}, fmt.Errorf("%w: %w", ErrCouldNotGenerate, err)
	}

	s.Worker.SignalShareBlock(block)

	return block, nil
}

// validateUpdateDatabase takes the block and validates the block against the
// consensus rules. If the block passes, then the state of the node is updated
// including adding the block to disk. The caller must hold the lock.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.evHandler("state: validateUpdateDatabase: validate block")

	if err := block.ValidateBlock(s.db.LatestBlock(), time.Now(), s.evHandler); err != nil {
		metrics.BlockRejected(database.Kind(err))
		return err
	}

	utxos, err := database.ProcessTransactions(block.Data, s.db.UTXOs(), block.Index)
	if err != nil {
		metrics.BlockRejected(database.Kind(err))
		return err
	}

	s.evHandler("state: validateUpdateDatabase: write to disk")

	if err := s.db.Append(block, utxos); err != nil {
		return err
	}

	s.evHandler("state: validateUpdateDatabase: prune mempool")

	removed := s.mempool.Prune(utxos)
	for _, tx := range removed {
		s.evHandler("state: validateUpdateDatabase: tx[%s] removed", tx)
	}

	metrics.BlockAppended(block.Index, utxos.Len())
	metrics.TxPruned(len(removed), s.mempool.Count())

	// Any search still running is building on the old tip.
	s.cancelMining()

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(block)
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"hash":%q,"index":%d,"block":%s}`, block.Hash, block.Index, string(blockJSON))
}
