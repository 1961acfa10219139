// Package signature provides helper functions for handling the blockchain
// hashing and signature needs.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	dcrecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned when a signature does not verify against
// the public key and message it was checked with.
var ErrInvalidSignature = errors.New("invalid signature")

// =============================================================================

// Hash returns the hex encoded sha256 of the json encoding of the value.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return HashString("")
	}

	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashString returns the hex encoded sha256 of the specified string.
func HashString(s string) string {
	hash := sha256.Sum256([]byte(s))
	return hex.EncodeToString(hash[:])
}

// =============================================================================

// GenerateKey produces a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return crypto.GenerateKey()
}

// PublicKeyHex returns the uncompressed public key for the private key
// as a hex string. The value is 130 characters and starts with 04.
func PublicKeyHex(privateKey *ecdsa.PrivateKey) string {
	return hex.EncodeToString(crypto.FromECDSAPub(&privateKey.PublicKey))
}

// Sign uses the specified private key to sign the hex encoded message. The
// message bytes are signed as is and the DER encoded signature is returned
// as a hex string.
func Sign(messageHex string, privateKey *ecdsa.PrivateKey) (string, error) {
	msg, err := hex.DecodeString(messageHex)
	if err != nil {
		return "", fmt.Errorf("decoding message: %w", err)
	}

	key := secp256k1.PrivKeyFromBytes(crypto.FromECDSA(privateKey))
	defer key.Zero()

	sig := dcrecdsa.Sign(key, msg)

	return hex.EncodeToString(sig.Serialize()), nil
}

// Verify checks the hex encoded DER signature was produced over the hex
// encoded message by the owner of the hex encoded public key.
func Verify(messageHex string, signatureHex string, publicKeyHex string) error {
	msg, err := hex.DecodeString(messageHex)
	if err != nil {
		return fmt.Errorf("decoding message: %w", err)
	}

	pubBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return fmt.Errorf("decoding public key: %w", err)
	}

	pub, err := secp256k1.ParsePubKey(pubBytes)
	if err != nil {
		return fmt.Errorf("parsing public key: %w", err)
	}

	sigBytes, err := hex.DecodeString(signatureHex)
	if err != nil {
		return fmt.Errorf("decoding signature: %w", err)
	}

	sig, err := dcrecdsa.ParseDERSignature(sigBytes)
	if err != nil {
		return fmt.Errorf("parsing signature: %w", err)
	}

	if !sig.Verify(msg, pub) {
		return ErrInvalidSignature
	}

	return nil
}
