package errs

import (
	"errors"
	"net/http"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/database"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/mempool"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/peer"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/state"
	"github.com/ardanlabs/utxocoin/foundation/blockchain/wallet"
	"github.com/ardanlabs/utxocoin/foundation/validate"
)

// FromLedger maps an error returned by the ledger to a trusted error with
// the matching HTTP status. Errors it doesn't know are returned as is and
// end up as a 500.
func FromLedger(err error) error {
	switch {
	case err == nil:
		return nil

	case errors.Is(err, state.ErrNotFound):
		return NewTrusted(err, http.StatusNotFound)

	case errors.Is(err, state.ErrChainNotHeavier):
		return NewTrusted(err, http.StatusNotAcceptable)

	case errors.Is(err, state.ErrCouldNotGenerate),
		errors.Is(err, state.ErrInvalidAmount),
		errors.Is(err, wallet.ErrInsufficientFunds),
		errors.Is(err, mempool.ErrAlreadyPooled),
		errors.Is(err, peer.ErrInvalidHost),
		database.IsValidationError(err):
		return NewTrusted(err, http.StatusBadRequest)
	}

	return err
}

// FromDecode marks a failure to decode a request body as a client error.
// Field validation errors are returned as is.
func FromDecode(err error) error {
	if validate.IsFieldErrors(err) {
		return err
	}

	return NewTrusted(err, http.StatusBadRequest)
}
