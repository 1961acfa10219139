// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"sync"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/metrics"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
)

// Set of errors returned by the ledger.
var (
	ErrCouldNotGenerate = errors.New("could not generate block")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrChainNotHeavier  = errors.New("received chain is not heavier than the current chain")
	ErrChainAhead       = errors.New("received block is ahead of the current chain")
	ErrBlockIgnored     = errors.New("received block is not ahead of the current chain")
)

// =============================================================================

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining, peer updates, and block and pool
// sharing.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
	SignalShareBlock(block database.Block)
	SignalSharePool()
	SignalPeerSync()
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	MinerKey   *ecdsa.PrivateKey
	Host       string
	Serializer database.Serializer
	Snapshots  database.SnapshotStore
	KnownPeers *peer.PeerSet
	EvHandler  EventHandler
}

// State manages the chain, the set of unspent outputs and the mempool. All
// three change together under the same lock.
type State struct {
	mu sync.Mutex

	minerKey     *ecdsa.PrivateKey
	minerAddress string
	host         string
	evHandler    EventHandler

	knownPeers *peer.PeerSet
	db         *database.Database
	mempool    *mempool.Mempool

	// Cancel funcs of the proof of work searches in flight, keyed by a
	// sequence number so each search removes only its own entry.
	miningSeq     uint64
	miningCancels map[uint64]context.CancelFunc

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if cfg.MinerKey == nil {
		return nil, errors.New("miner key is required")
	}

	knownPeers := cfg.KnownPeers
	if knownPeers == nil {
		knownPeers = peer.NewPeerSet()
	}

	// Load and revalidate the chain from storage. Empty storage starts
	// with the genesis block.
	db, err := database.New(cfg.Serializer, cfg.Snapshots, ev)
	if err != nil {
		return nil, err
	}

	latest := db.LatestBlock()
	metrics.Chain(latest.Index, db.UTXOs().Len())

	state := State{
		minerKey:     cfg.MinerKey,
		minerAddress: database.PublicKeyToAddress(cfg.MinerKey),
		host:         cfg.Host,
		evHandler:    ev,

		knownPeers: knownPeers,
		db:         db,
		mempool:    mempool.New(),

		miningCancels: make(map[uint64]context.CancelFunc),

		Worker: idleWorker{},
	}

	ev("state: New: loaded chain: latest[%s]: utxos[%d]", latest, db.UTXOs().Len())

	// The Worker is replaced by the call to worker.Run which will assign
	// itself and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	s.mu.Lock()
	defer s.mu.Unlock()

	// Searches started through the api are not owned by the worker.
	s.cancelMining()

	// Make sure the final snapshot is written and the files closed.
	flushErr := s.db.Flush()
	if flushErr != nil {
		s.evHandler("state: shutdown: WARNING: flush snapshot: %s", flushErr)
	}

	return errors.Join(flushErr, s.db.Close())
}

// =============================================================================

// trackMining registers the cancel func of a search that is starting. The
// caller must hold the lock.
func (s *State) trackMining(cancel context.CancelFunc) uint64 {
	s.miningSeq++
	s.miningCancels[s.miningSeq] = cancel

	return s.miningSeq
}

// untrackMining cancels and removes the search registered under id.
func (s *State) untrackMining(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, exists := s.miningCancels[id]; exists {
		cancel()
		delete(s.miningCancels, id)
	}
}

// cancelMining stops every search in flight. They are all building on a
// tip that is about to change. The caller must hold the lock.
func (s *State) cancelMining() {
	for _, cancel := range s.miningCancels {
		cancel()
	}
}

// =============================================================================

// idleWorker is used until a real worker registers itself.
type idleWorker struct{}

func (idleWorker) Shutdown() {}
func (idleWorker) SignalStartMining() {}
func (idleWorker) SignalCancelMining() {}
func (idleWorker) SignalShareBlock(database.Block) {}
func (idleWorker) SignalSharePool() {}
func (idleWorker) SignalPeerSync() {}
