// Package difficulty implements the compact encoding of proof-of-work
// targets and the periodic difficulty adjustment rule.
//
// A compact value packs a 256 bit target threshold into 32 bits the way
// bitcoin does: the high byte is a base-256 exponent and the low 23 bits
// are the mantissa. Bit 24 is a sign bit and must never be set for a
// valid target. A block satisfies the proof of work when its header
// digest, read as a big-endian unsigned integer, is less than or equal
// to the expanded target. A smaller target is harder to satisfy.
package difficulty

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/cometchain/comet/foundation/blockchain/hashing"
)

// ErrInvalidDifficulty is returned when a compact difficulty value can't
// be expanded into a representable 256 bit target.
var ErrInvalidDifficulty = errors.New("invalid compact difficulty")

// Consensus constants for the adjustment rule.
const (
	// TargetBlockTime is the desired spacing between blocks in seconds.
	TargetBlockTime = 600

	// AdjustInterval is the number of accepted blocks between difficulty
	// recalculations. Between boundaries the difficulty is a step
	// function of height.
	AdjustInterval = 3

	// maxAdjustFactor bounds how far a single retarget can move the
	// target in either direction.
	maxAdjustFactor = 4
)

// PowLimitBits is the easiest allowed difficulty and the value assigned
// to the genesis block.
const PowLimitBits = 0x207fffff

// PowLimit is the highest (easiest) target a block may carry. Retargets
// clamp here so the compact form always round-trips.
var PowLimit = mustTarget(PowLimitBits)

// =============================================================================

// ToTarget expands a compact difficulty into the 256 bit threshold a
// block digest must not exceed.
func ToTarget(bits uint32) (*big.Int, error) {
	if bits&0x00800000 != 0 {
		return nil, fmt.Errorf("sign bit set in compact value %#08x: %w", bits, ErrInvalidDifficulty)
	}

	mantissa := int64(bits & 0x007fffff)
	if mantissa == 0 {
		return nil, fmt.Errorf("zero mantissa in compact value %#08x: %w", bits, ErrInvalidDifficulty)
	}

	exponent := uint(bits >> 24)

	// Values with a small exponent fit in an int64. Larger exponents
	// shift the mantissa left by whole bytes.
	var target *big.Int
	if exponent <= 3 {
		target = big.NewInt(mantissa >> (8 * (3 - exponent)))
	} else {
		target = big.NewInt(mantissa)
		target.Lsh(target, 8*(exponent-3))
	}

	if target.BitLen() > 256 {
		return nil, fmt.Errorf("target overflows 256 bits for compact value %#08x: %w", bits, ErrInvalidDifficulty)
	}

	return target, nil
}

// FromTarget converts a target threshold back into compact form. The
// mantissa is normalized so its top bit never sets the sign bit. The
// result is the canonical encoding of the target: round-tripping through
// ToTarget returns the same bits for canonical inputs, while padded
// encodings (leading zero mantissa bytes with a larger exponent)
// normalize to their canonical equivalent.
func FromTarget(target *big.Int) uint32 {
	if target.Sign() <= 0 {
		return 0
	}

	exponent := uint(len(target.Bytes()))

	var mantissa uint32
	if exponent <= 3 {
		mantissa = uint32(target.Int64() << (8 * (3 - exponent)))
	} else {
		tmp := new(big.Int).Rsh(target, 8*(exponent-3))
		mantissa = uint32(tmp.Int64())
	}

	// When the mantissa would carry into the sign bit, push it down a
	// byte and bump the exponent instead.
	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		exponent++
	}

	return uint32(exponent<<24) | mantissa
}

// TargetBytes expands a compact difficulty into a big-endian 32 byte
// threshold for allocation-free comparison in the mining hot loop.
func TargetBytes(bits uint32) ([hashing.Size]byte, error) {
	target, err := ToTarget(bits)
	if err != nil {
		return [hashing.Size]byte{}, err
	}

	var tb [hashing.Size]byte
	target.FillBytes(tb[:])

	return tb, nil
}

// Solves reports whether the digest satisfies the proof-of-work
// predicate for the given threshold. Both values compare as big-endian
// unsigned integers.
func Solves(digest hashing.Hash, target [hashing.Size]byte) bool {
	for i := 0; i < hashing.Size; i++ {
		switch {
		case digest[i] < target[i]:
			return true
		case digest[i] > target[i]:
			return false
		}
	}

	// Equal counts as solved.
	return true
}

// =============================================================================

// Adjust computes the compact difficulty for the next adjustment window
// from the timestamps bounding the window just completed and the
// expected duration of a full window in seconds (block spacing times
// interval length). The target is scaled by actualTime/expectedTime
// with the ratio clamped to [1/maxAdjustFactor, maxAdjustFactor] so
// outlier timestamps can't swing the difficulty arbitrarily far in one
// step.
func Adjust(firstTime uint64, lastTime uint64, bits uint32, expected int64) (uint32, error) {
	target, err := ToTarget(bits)
	if err != nil {
		return 0, err
	}

	if expected <= 0 {
		expected = int64(TargetBlockTime * AdjustInterval)
	}

	var actual int64
	if lastTime > firstTime {
		actual = int64(lastTime - firstTime)
	}

	if actual < expected/maxAdjustFactor {
		actual = expected / maxAdjustFactor
	}
	if actual > expected*maxAdjustFactor {
		actual = expected * maxAdjustFactor
	}

	newTarget := new(big.Int).Set(target)
	newTarget.Mul(newTarget, big.NewInt(actual))
	newTarget.Div(newTarget, big.NewInt(expected))

	if newTarget.Cmp(PowLimit) > 0 {
		newTarget.Set(PowLimit)
	}
	if newTarget.Sign() == 0 {
		newTarget.SetInt64(1)
	}

	return FromTarget(newTarget), nil
}

// =============================================================================

func mustTarget(bits uint32) *big.Int {
	target, err := ToTarget(bits)
	if err != nil {
		panic(err)
	}
	return target
}
