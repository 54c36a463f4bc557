package mining

import (
	"testing"
	"time"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

func Test_StatsIndependentReaders(t *testing.T) {
	t.Log("Given the need to validate stats readers do not skew each other.")
	{
		var s Stats
		s.start = time.Now().Add(-2 * time.Second)
		s.lastTime = s.start
		s.hashes.Add(1_000)

		t.Logf("\tTest 0:\tWhen the rolling window is drained before a snapshot.")
		{
			if rate := s.HashRate(); rate <= 0 {
				t.Fatalf("\t%s\tTest 0:\tShould measure a positive rolling rate: got %f", failed, rate)
			}
			t.Logf("\t%s\tTest 0:\tShould measure a positive rolling rate.", success)

			// The window was just consumed; the snapshot figure has to
			// come from the run totals, not from the window.
			snap := s.snapshot()
			if snap.HashRate <= 0 {
				t.Fatalf("\t%s\tTest 0:\tShould report a run-wide rate after the window drained: got %f", failed, snap.HashRate)
			}
			t.Logf("\t%s\tTest 0:\tShould report a run-wide rate after the window drained.", success)

			if snap.TotalHashes != 1_000 {
				t.Fatalf("\t%s\tTest 0:\tShould report the total attempts: got %d", failed, snap.TotalHashes)
			}
			t.Logf("\t%s\tTest 0:\tShould report the total attempts.", success)
		}

		t.Logf("\tTest 1:\tWhen taking snapshots back to back.")
		{
			first := s.snapshot()
			second := s.snapshot()

			if first.HashRate <= 0 || second.HashRate <= 0 {
				t.Fatalf("\t%s\tTest 1:\tShould keep the rate stable across reads: %f then %f", failed, first.HashRate, second.HashRate)
			}
			t.Logf("\t%s\tTest 1:\tShould keep the rate stable across reads.", success)
		}
	}
}
