package database

import (
	"math/big"
	"time"
)

// Retarget settings for the difficulty.
const (
	BlockGenerationInterval      = 10 * time.Second
	DifficultyAdjustmentInterval = 10
)

// Difficulty returns the difficulty the next block mined on top of the chain
// must use. Every DifficultyAdjustmentInterval blocks the difficulty is
// compared against how long those blocks took to produce and is moved by
// one in the direction needed. Difficulty never drops below zero.
func Difficulty(chain []Block) uint32 {
	if len(chain) == 0 {
		return 0
	}

	latest := chain[len(chain)-1]
	if latest.Index == 0 || latest.Index%DifficultyAdjustmentInterval != 0 {
		return latest.Difficulty
	}

	return adjustedDifficulty(latest, chain)
}

// adjustedDifficulty changes the difficulty based on the time it took to
// produce the last adjustment interval of blocks.
func adjustedDifficulty(latest Block, chain []Block) uint32 {
	prevAdjustment := chain[latest.Index-DifficultyAdjustmentInterval]

	timeExpected := int64(DifficultyAdjustmentInterval * BlockGenerationInterval / time.Second)
	timeTaken := latest.Timestamp - prevAdjustment.Timestamp

	switch {
	case timeTaken < timeExpected/2:
		return prevAdjustment.Difficulty + 1

	case timeTaken > timeExpected*2:
		if prevAdjustment.Difficulty == 0 {
			return 0
		}
		return prevAdjustment.Difficulty - 1
	}

	return prevAdjustment.Difficulty
}

// AccumulatedDifficulty returns the sum of 2^difficulty over every block in
// the chain. This is the measure of work used to choose between chains.
func AccumulatedDifficulty(chain []Block) *big.Int {
	total := new(big.Int)
	for _, b := range chain {
		total.Add(total, new(big.Int).Lsh(big.NewInt(1), uint(b.Difficulty)))
	}

	return total
}
