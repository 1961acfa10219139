package state

import (
	"context"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
)

// SetPOW replaces the proof of work search and returns a func that
// restores it.
func SetPOW(f func(ctx context.Context, args database.POWArgs) (database.Block, error)) func() {
	old := pow
	pow = f

	return func() { pow = old }
}
