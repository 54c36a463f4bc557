package difficulty_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/cometchain/comet/foundation/blockchain/difficulty"
	"github.com/cometchain/comet/foundation/blockchain/hashing"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_CompactEncoding(t *testing.T) {
	t.Log("Given the need to validate the compact target encoding.")
	{
		t.Logf("\tTest 0:\tWhen round tripping canonical values.")
		{
			for _, bits := range []uint32{0x207fffff, 0x1d00ffff, 0x1b0404cb} {
				target, err := difficulty.ToTarget(bits)
				if err != nil {
					t.Fatalf("\t%s\tTest 0:\tShould be able to expand %#08x: %v", failed, bits, err)
				}

				back := difficulty.FromTarget(target)
				if back != bits {
					t.Fatalf("\t%s\tTest 0:\tShould round trip %#08x: got %#08x", failed, bits, back)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould round trip canonical values.", success)
		}

		t.Logf("\tTest 1:\tWhen normalizing a padded encoding.")
		{
			// Same threshold, one encoding carries a leading zero
			// mantissa byte with a larger exponent.
			padded, err := difficulty.ToTarget(0x20007fff)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to expand the padded value: %v", failed, err)
			}

			canonical, err := difficulty.ToTarget(0x1f7fff00)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to expand the canonical value: %v", failed, err)
			}

			if padded.Cmp(canonical) != 0 {
				t.Fatalf("\t%s\tTest 1:\tShould decode both encodings to the same target.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould decode both encodings to the same target.", success)

			if bits := difficulty.FromTarget(padded); bits != 0x1f7fff00 {
				t.Fatalf("\t%s\tTest 1:\tShould normalize to the canonical form: got %#08x", failed, bits)
			}
			t.Logf("\t%s\tTest 1:\tShould normalize to the canonical form.", success)
		}

		t.Logf("\tTest 2:\tWhen expanding invalid values.")
		{
			invalid := []uint32{
				0x20800001, // sign bit set
				0x20000000, // zero mantissa
				0x237fffff, // overflows 256 bits
			}

			for _, bits := range invalid {
				if _, err := difficulty.ToTarget(bits); !errors.Is(err, difficulty.ErrInvalidDifficulty) {
					t.Fatalf("\t%s\tTest 2:\tShould reject %#08x with ErrInvalidDifficulty: %v", failed, bits, err)
				}
			}
			t.Logf("\t%s\tTest 2:\tShould reject invalid encodings.", success)
		}
	}
}

func Test_Solves(t *testing.T) {
	t.Log("Given the need to validate the proof-of-work predicate.")
	{
		target, err := difficulty.TargetBytes(0x207fffff)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to expand the target: %v", failed, err)
		}

		t.Logf("\tTest 0:\tWhen the digest is below the target.")
		{
			var digest hashing.Hash
			if !difficulty.Solves(digest, target) {
				t.Fatalf("\t%s\tTest 0:\tShould solve with an all zero digest.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould solve with an all zero digest.", success)
		}

		t.Logf("\tTest 1:\tWhen the digest equals the target.")
		{
			var digest hashing.Hash
			copy(digest[:], target[:])
			if !difficulty.Solves(digest, target) {
				t.Fatalf("\t%s\tTest 1:\tShould count an exact match as solved.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould count an exact match as solved.", success)
		}

		t.Logf("\tTest 2:\tWhen the digest is above the target.")
		{
			var digest hashing.Hash
			digest[0] = 0x80
			if difficulty.Solves(digest, target) {
				t.Fatalf("\t%s\tTest 2:\tShould not solve above the target.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould not solve above the target.", success)
		}
	}
}

func Test_Adjust(t *testing.T) {
	const bits = uint32(0x1d00ffff)
	const expected = int64(difficulty.TargetBlockTime * difficulty.AdjustInterval)

	t.Log("Given the need to validate the difficulty adjustment rule.")
	{
		t.Logf("\tTest 0:\tWhen the window took exactly the expected time.")
		{
			newBits, err := difficulty.Adjust(1_000, 1_000+uint64(expected), bits, expected)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to adjust: %v", failed, err)
			}
			if newBits != bits {
				t.Fatalf("\t%s\tTest 0:\tShould keep the difficulty unchanged: got %#08x", failed, newBits)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the difficulty unchanged.", success)
		}

		t.Logf("\tTest 1:\tWhen blocks arrived instantly.")
		{
			newBits, err := difficulty.Adjust(1_000, 1_000, bits, expected)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to adjust: %v", failed, err)
			}

			// The clamp caps the tightening at a quarter of the target.
			target, _ := difficulty.ToTarget(bits)
			want := difficulty.FromTarget(new(big.Int).Div(target, big.NewInt(4)))
			if newBits != want {
				t.Fatalf("\t%s\tTest 1:\tShould tighten by the clamp factor: got %#08x, want %#08x", failed, newBits, want)
			}
			t.Logf("\t%s\tTest 1:\tShould tighten by the clamp factor.", success)
		}

		t.Logf("\tTest 2:\tWhen blocks arrived far too slowly at the easiest difficulty.")
		{
			newBits, err := difficulty.Adjust(1_000, 1_000+uint64(expected*100), difficulty.PowLimitBits, expected)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to adjust: %v", failed, err)
			}
			if newBits != difficulty.PowLimitBits {
				t.Fatalf("\t%s\tTest 2:\tShould clamp at the pow limit: got %#08x", failed, newBits)
			}
			t.Logf("\t%s\tTest 2:\tShould clamp at the pow limit.", success)
		}

		t.Logf("\tTest 3:\tWhen the timestamps are out of order.")
		{
			// A non-positive window clamps the same way instant blocks do.
			fast, err := difficulty.Adjust(1_000, 1_000, bits, expected)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to adjust: %v", failed, err)
			}

			reversed, err := difficulty.Adjust(5_000, 1_000, bits, expected)
			if err != nil {
				t.Fatalf("\t%s\tTest 3:\tShould be able to adjust: %v", failed, err)
			}

			if reversed != fast {
				t.Fatalf("\t%s\tTest 3:\tShould treat a reversed window as instant: got %#08x, want %#08x", failed, reversed, fast)
			}
			t.Logf("\t%s\tTest 3:\tShould treat a reversed window as instant.", success)
		}
	}
}
