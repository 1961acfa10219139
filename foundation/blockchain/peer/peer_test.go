package peer_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
)

func Test_CRUD(t *testing.T) {
	type table struct {
		name  string
		peers []peer.Peer
	}

	tt := []table{
		{
			name:  "basic",
			peers: []peer.Peer{{Host: "host3:9080"}, {Host: "host1:9080"}, {Host: "host2:9080"}},
		},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			ps := peer.NewPeerSet()

			for _, peer := range tst.peers {
				if !ps.Add(peer) {
					t.Fatalf("Test %s:\tShould be able to add peer %s.", tst.name, peer.Host)
				}
			}

			if ps.Add(tst.peers[0]) {
				t.Fatalf("Test %s:\tShould not add the same peer twice.", tst.name)
			}

			peers := ps.Copy("")
			if len(peers) != len(tst.peers) {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers))
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			if peers[0].Host != "host1:9080" || peers[2].Host != "host3:9080" {
				t.Fatalf("Test %s:\tShould get back the peers in order: %v", tst.name, peers)
			}

			peers = ps.Copy("host2:9080")
			if len(peers) != len(tst.peers)-1 {
				t.Logf("Test %s:\tgot: %d", tst.name, len(peers))
				t.Logf("Test %s:\texp: %d", tst.name, len(tst.peers)-1)
				t.Fatalf("Test %s:\tShould get back the right peers.", tst.name)
			}

			ps.Remove(tst.peers[0])
			if len(ps.Copy("")) != len(tst.peers)-1 {
				t.Fatalf("Test %s:\tShould be able to remove a peer.", tst.name)
			}
		}

		t.Run(tst.name, f)
	}
}

func Test_Parse(t *testing.T) {
	type table struct {
		name string
		host string
		ok   bool
	}

	tt := []table{
		{name: "valid", host: "localhost:9080", ok: true},
		{name: "ip", host: "10.0.0.1:80", ok: true},
		{name: "noport", host: "localhost", ok: false},
		{name: "nohost", host: ":9080", ok: false},
		{name: "empty", host: "", ok: false},
	}

	for _, tst := range tt {
		f := func(t *testing.T) {
			p, err := peer.Parse(tst.host)

			switch tst.ok {
			case true:
				if err != nil || p.Host != tst.host {
					t.Fatalf("Test %s:\tShould be able to parse %q: %v", tst.name, tst.host, err)
				}
			default:
				if !errors.Is(err, peer.ErrInvalidHost) {
					t.Fatalf("Test %s:\tShould reject %q: %v", tst.name, tst.host, err)
				}
			}
		}

		t.Run(tst.name, f)
	}
}
