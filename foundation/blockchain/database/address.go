package database

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/signature"
)

// addressLength is the number of hex characters in an uncompressed
// secp256k1 public key.
const addressLength = 130

// PublicKeyToAddress converts the private key to the address that owns
// outputs paid to it.
func PublicKeyToAddress(privateKey *ecdsa.PrivateKey) string {
	return signature.PublicKeyHex(privateKey)
}

// ValidateAddress verifies the address is a hex encoded uncompressed
// public key.
func ValidateAddress(address string) error {
	if len(address) != addressLength {
		return fmt.Errorf("%w: length %d, exp %d", ErrInvalidAddress, len(address), addressLength)
	}

	if !isHex(address) {
		return fmt.Errorf("%w: address must contain only hex characters", ErrInvalidAddress)
	}

	if address[:2] != "04" {
		return fmt.Errorf("%w: address must start with 04", ErrInvalidAddress)
	}

	return nil
}

// IsValidAddress reports whether the address is well formed.
func IsValidAddress(address string) bool {
	return ValidateAddress(address) == nil
}

// =============================================================================

// isHex validates whether each byte is valid hexadecimal string.
func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}

	for _, c := range []byte(s) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// isHexCharacter returns bool of c being a valid hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
