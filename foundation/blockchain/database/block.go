package database

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"time"

	"github.com/ardanlabs/utxocoin/foundation/blockchain/signature"
	"github.com/ardanlabs/utxocoin/foundation/validate"
)

// ErrChainForked is returned from validation if another node's chain
// is two or more blocks ahead of ours.
var ErrChainForked = errors.New("blockchain forked, start resync")

// timestampTolerance is how far, in seconds, a block timestamp may drift
// behind its parent or ahead of the validating node's clock.
const timestampTolerance = 60

// =============================================================================

// Block represents a group of transactions batched together and linked to
// the previous block by hash.
type Block struct {
	Index        uint64        `json:"index"`
	Hash         string        `json:"hash" validate:"required,len=64,hexadecimal"`
	PreviousHash string        `json:"previousHash" validate:"omitempty,len=64,hexadecimal"`
	Timestamp    int64         `json:"timestamp"`
	Data         []Transaction `json:"data" validate:"dive"`
	Difficulty   uint32        `json:"difficulty"`
	Nonce        uint64        `json:"nonce"`
}

// String implements the fmt.Stringer interface for logging.
func (b Block) String() string {
	return fmt.Sprintf("%d:%s", b.Index, b.Hash)
}

// CalculateHash recomputes the hash of the block from its own fields.
func (b Block) CalculateHash() string {
	return blockHash(b.Index, b.PreviousHash, b.Timestamp, dataDigest(b.Data), b.Difficulty, b.Nonce)
}

// =============================================================================

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	Index        uint64
	PreviousHash string
	Timestamp    int64
	Data         []Transaction
	Difficulty   uint32
	EvHandler    func(v string, args ...any)
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle. The search can be cancelled through
// the context.
func POW(ctx context.Context, args POWArgs) (Block, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(v string, args ...any) {}
	}

	nb := Block{
		Index:        args.Index,
		PreviousHash: args.PreviousHash,
		Timestamp:    args.Timestamp,
		Data:         args.Data,
		Difficulty:   args.Difficulty,
		Nonce:        0,
	}

	if err := nb.performPOW(ctx, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, ev func(v string, args ...any)) error {
	ev("worker: PerformPOW: MINING: started: blk[%d]: difficulty[%d]", b.Index, b.Difficulty)
	defer ev("worker: PerformPOW: MINING: completed: blk[%d]", b.Index)

	for _, tx := range b.Data {
		ev("worker: PerformPOW: MINING: tx[%s]", tx)
	}

	// The data digest doesn't change with the nonce.
	digest := dataDigest(b.Data)

	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("worker: PerformPOW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("worker: PerformPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		hash := blockHash(b.Index, b.PreviousHash, b.Timestamp, digest, b.Difficulty, b.Nonce)
		if !isHashSolved(b.Difficulty, hash) {
			b.Nonce++
			continue
		}

		b.Hash = hash

		ev("worker: PerformPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.PreviousHash, hash)
		ev("worker: PerformPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// =============================================================================

// ValidateBlockStructure checks every field of the block is present and
// well formed.
func ValidateBlockStructure(b Block) error {
	if err := validate.Check(b); err != nil {
		return fmt.Errorf("%w: blk[%d]: %w", ErrStructural, b.Index, err)
	}

	return nil
}

// ValidateBlock takes a block and validates it to be the next block after
// the previous block. The now value is the validating node's clock.
func (b Block) ValidateBlock(previousBlock Block, now time.Time, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block structure", b.Index)

	if err := ValidateBlockStructure(b); err != nil {
		return err
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block index is the next index", b.Index)

	nextIndex := previousBlock.Index + 1
	if b.Index != nextIndex {
		return fmt.Errorf("%w: this block is not the next index, got %d, exp %d", ErrLinkage, b.Index, nextIndex)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: previous hash does match previous block", b.Index)

	if b.PreviousHash != previousBlock.Hash {
		return fmt.Errorf("%w: previous block hash doesn't match, got %s, exp %s", ErrLinkage, b.PreviousHash, previousBlock.Hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block timestamp is in the tolerance window", b.Index)

	if previousBlock.Timestamp-timestampTolerance >= b.Timestamp {
		return fmt.Errorf("%w: block timestamp %d is too far behind previous block %d", ErrTimestamp, b.Timestamp, previousBlock.Timestamp)
	}

	if b.Timestamp-timestampTolerance >= now.Unix() {
		return fmt.Errorf("%w: block timestamp %d is too far ahead of the clock %d", ErrTimestamp, b.Timestamp, now.Unix())
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash matches block content", b.Index)

	if hash := b.CalculateHash(); hash != b.Hash {
		return fmt.Errorf("%w: block hash doesn't match content, got %s, exp %s", ErrProofOfWork, b.Hash, hash)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block hash has been solved", b.Index)

	if !isHashSolved(b.Difficulty, b.Hash) {
		return fmt.Errorf("%w: %s does not have %d leading zero bits", ErrProofOfWork, b.Hash, b.Difficulty)
	}

	return nil
}

// =============================================================================

// blockHash hashes the block fields together with the digest of the data.
func blockHash(index uint64, previousHash string, timestamp int64, digest string, difficulty uint32, nonce uint64) string {
	buf := make([]byte, 0, 192)
	buf = strconv.AppendUint(buf, index, 10)
	buf = append(buf, previousHash...)
	buf = strconv.AppendInt(buf, timestamp, 10)
	buf = append(buf, digest...)
	buf = strconv.AppendUint(buf, uint64(difficulty), 10)
	buf = strconv.AppendUint(buf, nonce, 10)

	return signature.HashString(string(buf))
}

// dataDigest is the hash of the json encoding of the transaction list.
func dataDigest(data []Transaction) string {
	if data == nil {
		data = []Transaction{}
	}

	return signature.Hash(data)
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// The binary expansion of the hash needs difficulty leading zero bits.
func isHashSolved(difficulty uint32, hash string) bool {
	raw, err := hex.DecodeString(hash)
	if err != nil || len(raw) != 32 {
		return false
	}

	var zeros uint32
	for _, b := range raw {
		if b == 0 {
			zeros += 8
			continue
		}
		zeros += uint32(bits.LeadingZeros8(b))
		break
	}

	return zeros >= difficulty
}
