package database

import "errors"

// Set of error kinds returned when validating blocks, chains and
// transactions. Detailed errors wrap one of these so callers can use
// errors.Is to classify the failure.
var (
	ErrStructural     = errors.New("malformed structure")
	ErrLinkage        = errors.New("invalid linkage")
	ErrTimestamp      = errors.New("invalid timestamp")
	ErrProofOfWork    = errors.New("invalid proof of work")
	ErrConservation   = errors.New("amounts not conserved")
	ErrDoubleSpend    = errors.New("double spend")
	ErrSignature      = errors.New("invalid signature")
	ErrCoinbase       = errors.New("invalid coinbase")
	ErrInvalidAddress = errors.New("invalid address")
)

// IsValidationError reports whether the error is one of the validation
// kinds defined by this package.
func IsValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrStructural),
		errors.Is(err, ErrLinkage),
		errors.Is(err, ErrTimestamp),
		errors.Is(err, ErrProofOfWork),
		errors.Is(err, ErrConservation),
		errors.Is(err, ErrDoubleSpend),
		errors.Is(err, ErrSignature),
		errors.Is(err, ErrCoinbase),
		errors.Is(err, ErrInvalidAddress):
		return true
	}

	return false
}

// Kind returns a short label for the validation kind of the error. It is
// used to label metrics and log lines.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrStructural):
		return "structural"
	case errors.Is(err, ErrLinkage):
		return "linkage"
	case errors.Is(err, ErrTimestamp):
		return "timestamp"
	case errors.Is(err, ErrProofOfWork):
		return "proof_of_work"
	case errors.Is(err, ErrConservation):
		return "conservation"
	case errors.Is(err, ErrDoubleSpend):
		return "double_spend"
	case errors.Is(err, ErrSignature):
		return "signature"
	case errors.Is(err, ErrCoinbase):
		return "coinbase"
	case errors.Is(err, ErrInvalidAddress):
		return "invalid_address"
	}

	return "other"
}
