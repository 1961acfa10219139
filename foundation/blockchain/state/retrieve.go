package state

import (
	"errors"
	"math/big"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
)

// ErrNotFound is returned when a block or transaction doesn't exist.
var ErrNotFound = errors.New("not found")

// RetrieveHost returns a copy of host information.
func (s *State) RetrieveHost() string {
	return s.host
}

// RetrieveChain returns a copy of the chain.
func (s *State) RetrieveChain() []database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Blocks()
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.LatestBlock()
}

// RetrieveAccumulatedDifficulty returns the accumulated difficulty of the
// current chain.
func (s *State) RetrieveAccumulatedDifficulty() *big.Int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.AccumulatedDifficulty()
}

// RetrieveUTXOs returns the current set of unspent outputs.
func (s *State) RetrieveUTXOs() database.UTXOSet {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.UTXOs()
}

// RetrieveMempool returns a copy of the mempool.
func (s *State) RetrieveMempool() []database.Transaction {
	return s.mempool.Copy()
}

// RetrieveMempoolLength returns the current length of the mempool.
func (s *State) RetrieveMempoolLength() int {
	return s.mempool.Count()
}

// RetrieveKnownPeers retrieves a copy of the known peer list.
func (s *State) RetrieveKnownPeers() []peer.Peer {
	return s.knownPeers.Copy(s.host)
}

// RetrieveStatus returns the view this node has of its own chain.
func (s *State) RetrieveStatus() peer.PeerStatus {
	s.mu.Lock()
	latest := s.db.LatestBlock()
	accumulated := s.db.AccumulatedDifficulty()
	s.mu.Unlock()

	return peer.PeerStatus{
		LatestBlockHash:       latest.Hash,
		LatestIndex:           latest.Index,
		AccumulatedDifficulty: accumulated.String(),
		KnownPeers:            s.RetrieveKnownPeers(),
	}
}

// =============================================================================

// MinerAddress returns the address rewards are paid to.
func (s *State) MinerAddress() string {
	return s.minerAddress
}

// AccountBalance returns the sum of the unspent outputs owned by the address.
func (s *State) AccountBalance(address string) uint64 {
	return wallet.Balance(address, s.RetrieveUTXOs())
}

// RetrieveMinerUTXOs returns the unspent outputs owned by the miner.
func (s *State) RetrieveMinerUTXOs() []database.UnspentTxOut {
	return wallet.FindUnspent(s.minerAddress, s.RetrieveUTXOs())
}

// QueryAddressUTXOs returns the unspent outputs owned by the address.
func (s *State) QueryAddressUTXOs(address string) []database.UnspentTxOut {
	return wallet.FindUnspent(address, s.RetrieveUTXOs())
}

// QueryBlockByHash returns the block with the specified hash.
func (s *State) QueryBlockByHash(hash string) (database.Block, error) {
	for _, block := range s.RetrieveChain() {
		if block.Hash == hash {
			return block, nil
		}
	}

	return database.Block{}, ErrNotFound
}

// QueryTransaction returns the transaction with the specified id from the
// chain.
func (s *State) QueryTransaction(id string) (database.Transaction, error) {
	for _, block := range s.RetrieveChain() {
		for _, tx := range block.Data {
			if tx.ID == id {
				return tx, nil
			}
		}
	}

	return database.Transaction{}, ErrNotFound
}

// =============================================================================

// AddKnownPeer provides the ability to add a new peer.
func (s *State) AddKnownPeer(peer peer.Peer) bool {
	if peer.Match(s.host) {
		return false
	}

	return s.knownPeers.Add(peer)
}

// RemoveKnownPeer provides the ability to remove a peer.
func (s *State) RemoveKnownPeer(peer peer.Peer) {
	s.knownPeers.Remove(peer)
}
