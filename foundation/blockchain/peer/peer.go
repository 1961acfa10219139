// Package peer maintains the set of known nodes and the status they report
// about their chains.
package peer

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
)

// ErrInvalidHost is returned when a peer host is not in host:port form.
var ErrInvalidHost = errors.New("invalid peer host")

// Peer represents information about a Node in the network.
type Peer struct {
	Host string `json:"host"`
}

// New contructs a new peer value.
func New(host string) Peer {
	return Peer{
		Host: host,
	}
}

// Parse validates the host and constructs a peer from it.
func Parse(host string) (Peer, error) {
	h, port, err := net.SplitHostPort(host)
	if err != nil {
		return Peer{}, fmt.Errorf("%w: %s", ErrInvalidHost, err)
	}

	if h == "" || port == "" {
		return Peer{}, fmt.Errorf("%w: %q requires a host and port", ErrInvalidHost, host)
	}

	return New(host), nil
}

// Match validates if the specified host matches this node.
func (p Peer) Match(host string) bool {
	return p.Host == host
}

// =============================================================================

// PeerStatus represents the view a peer has of its own chain. The
// accumulated difficulty is a decimal string since it outgrows uint64.
type PeerStatus struct {
	LatestBlockHash       string `json:"latestBlockHash"`
	LatestIndex           uint64 `json:"latestIndex"`
	AccumulatedDifficulty string `json:"accumulatedDifficulty"`
	KnownPeers            []Peer `json:"knownPeers"`
}

// =============================================================================

// PeerSet represents the data representation to maintain a set of known peers.
type PeerSet struct {
	mu  sync.RWMutex
	set map[Peer]struct{}
}

// NewPeerSet constructs a new info set to manage node peer information.
func NewPeerSet() *PeerSet {
	return &PeerSet{
		set: make(map[Peer]struct{}),
	}
}

// Add adds a new node to the set. It reports false when the peer was
// already known.
func (ps *PeerSet) Add(peer Peer) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	_, exists := ps.set[peer]
	if !exists {
		ps.set[peer] = struct{}{}
		return true
	}

	return false
}

// Remove removes a node from the set.
func (ps *PeerSet) Remove(peer Peer) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	delete(ps.set, peer)
}

// Copy returns a sorted list of the known peers excluding the specified host.
func (ps *PeerSet) Copy(host string) []Peer {
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var peers []Peer
	for peer := range ps.set {
		if !peer.Match(host) {
			peers = append(peers, peer)
		}
	}

	sort.Slice(peers, func(i, j int) bool { return peers[i].Host < peers[j].Host })

	return peers
}
