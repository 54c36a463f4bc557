package mempool_test

import (
	"testing"

	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_CRUD(t *testing.T) {
	t.Log("Given the need to validate mempool operations.")
	{
		mp := mempool.New()

		txA := database.NewTx([]byte("a"))
		txB := database.NewTx([]byte("b"))

		t.Logf("\tTest 0:\tWhen adding transactions.")
		{
			mp.Upsert(txA)
			mp.Upsert(txB)

			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have two transactions: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould have two transactions.", success)

			// The digest is the identity, so this is a no-op.
			mp.Upsert(database.NewTx([]byte("a")))
			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould suppress the duplicate: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould suppress the duplicate.", success)
		}

		t.Logf("\tTest 1:\tWhen deleting a transaction.")
		{
			mp.Delete(txA)
			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould have one transaction: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 1:\tShould have one transaction.", success)
		}

		t.Logf("\tTest 2:\tWhen truncating the pool.")
		{
			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould have an empty pool: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 2:\tShould have an empty pool.", success)
		}
	}
}

func Test_PickBest(t *testing.T) {
	t.Log("Given the need to validate transaction selection.")
	{
		mp := mempool.New()

		payloads := []string{"first", "second", "third", "fourth"}
		for _, p := range payloads {
			mp.Upsert(database.NewTx([]byte(p)))
		}

		t.Logf("\tTest 0:\tWhen picking a subset.")
		{
			txs := mp.PickBest(2)
			if len(txs) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould get two transactions: got %d", failed, len(txs))
			}
			t.Logf("\t%s\tTest 0:\tShould get two transactions.", success)

			// Selection runs in arrival order.
			for i, tx := range txs {
				if string(tx.Data) != payloads[i] {
					t.Fatalf("\t%s\tTest 0:\tShould keep arrival order: got %q at %d", failed, tx.Data, i)
				}
			}
			t.Logf("\t%s\tTest 0:\tShould keep arrival order.", success)
		}

		t.Logf("\tTest 1:\tWhen asking for more than the pool holds.")
		{
			txs := mp.PickBest(100)
			if len(txs) != len(payloads) {
				t.Fatalf("\t%s\tTest 1:\tShould get the whole pool: got %d", failed, len(txs))
			}
			t.Logf("\t%s\tTest 1:\tShould get the whole pool.", success)
		}

		t.Logf("\tTest 2:\tWhen asking for everything.")
		{
			txs := mp.PickBest(-1)
			if len(txs) != len(payloads) {
				t.Fatalf("\t%s\tTest 2:\tShould get the whole pool: got %d", failed, len(txs))
			}
			for i, tx := range txs {
				if string(tx.Data) != payloads[i] {
					t.Fatalf("\t%s\tTest 2:\tShould keep arrival order: got %q at %d", failed, tx.Data, i)
				}
			}
			t.Logf("\t%s\tTest 2:\tShould get the whole pool in arrival order.", success)
		}
	}
}
