package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	bolt "go.etcd.io/bbolt"
)

// MaxSnapshotBytes is the default ceiling for the encoded size of the
// unspent output snapshot.
const MaxSnapshotBytes = 512 << 20

// ErrSnapshotTooLarge is returned when writing a snapshot would go past the
// configured size ceiling. The previous snapshot is left in place.
var ErrSnapshotTooLarge = errors.New("utxo snapshot exceeds size ceiling")

var utxoBucket = []byte("utxos")

// Bolt persists the unspent output set in a bbolt file. This implements the
// database.SnapshotStore interface. Records are keyed by their position in
// the set so the iteration order survives a round trip.
type Bolt struct {
	db       *bolt.DB
	maxBytes int
}

// NewBolt opens or creates the snapshot file at the specified path. A
// maxBytes of zero uses MaxSnapshotBytes.
func NewBolt(path string, maxBytes int) (*Bolt, error) {
	if maxBytes <= 0 {
		maxBytes = MaxSnapshotBytes
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening snapshot file: %w", err)
	}

	return &Bolt{db: db, maxBytes: maxBytes}, nil
}

// Close closes the snapshot file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// WriteUTXOs rewrites the snapshot with the specified set.
func (b *Bolt) WriteUTXOs(utxos database.UTXOSet) error {
	outs := utxos.Values()

	records := make([][]byte, len(outs))
	size := 0
	for i, out := range outs {
		data, err := json.Marshal(out)
		if err != nil {
			return err
		}
		records[i] = data

		size += len(data) + 8
		if size > b.maxBytes {
			return fmt.Errorf("%w: more than %d bytes", ErrSnapshotTooLarge, b.maxBytes)
		}
	}

	f := func(tx *bolt.Tx) error {
		if tx.Bucket(utxoBucket) != nil {
			if err := tx.DeleteBucket(utxoBucket); err != nil {
				return err
			}
		}

		bkt, err := tx.CreateBucket(utxoBucket)
		if err != nil {
			return err
		}

		for i, data := range records {
			if err := bkt.Put(seqKey(uint64(i)), data); err != nil {
				return err
			}
		}

		return nil
	}

	return b.db.Update(f)
}

// ReadUTXOs reads the snapshot back. A missing snapshot is an empty set.
func (b *Bolt) ReadUTXOs() (database.UTXOSet, error) {
	var outs []database.UnspentTxOut

	f := func(tx *bolt.Tx) error {
		bkt := tx.Bucket(utxoBucket)
		if bkt == nil {
			return nil
		}

		return bkt.ForEach(func(k, v []byte) error {
			var out database.UnspentTxOut
			if err := json.Unmarshal(v, &out); err != nil {
				return fmt.Errorf("decoding record %d: %w", binary.BigEndian.Uint64(k), err)
			}
			outs = append(outs, out)
			return nil
		})
	}

	if err := b.db.View(f); err != nil {
		return database.UTXOSet{}, err
	}

	return database.NewUTXOSet(outs), nil
}

// seqKey encodes the position so bbolt's byte ordering matches set order.
func seqKey(i uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, i)
	return k
}
