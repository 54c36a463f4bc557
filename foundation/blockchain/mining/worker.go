package mining

import (
	"encoding/binary"
	"time"

	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/difficulty"
	"github.com/cometchain/comet/foundation/blockchain/hashing"
)

// pollBatch is how many nonce attempts a worker runs between checks of
// the session pointer and the solved flag. Large enough to keep the
// atomics off the hot path, small enough that stale work dies quickly.
const pollBatch = 4096

// idleWait is how long a worker sleeps when there is no live session.
const idleWait = 25 * time.Millisecond

// powOperations is the nonce search loop for one worker. Worker k owns
// the nonces congruent to k modulo the worker count and strides by the
// worker count, so no two workers ever hash the same nonce for a
// session.
func (c *Coordinator) powOperations(workerID int) {
	c.evHandler("mining: powOperations: worker[%d]: G started", workerID)
	defer c.evHandler("mining: powOperations: worker[%d]: G completed", workerID)

	var cur *session
	var buf [database.HeaderLen]byte
	var nonce uint64
	stride := uint64(c.workers)

	for {
		select {
		case <-c.shut:
			return
		default:
		}

		ses := c.session.Load()
		if ses == nil || ses.solved.Load() {
			select {
			case <-c.shut:
				return
			case <-time.After(idleWait):
			}
			continue
		}

		// A new session resets this worker to the start of its
		// residue class.
		if ses != cur {
			cur = ses
			buf = ses.header
			nonce = uint64(workerID)
		}

		// The hot path: rewrite the nonce bytes in place and double
		// hash. Nothing here allocates.
		var attempts uint64
		var found bool
		for attempts < pollBatch {
			binary.BigEndian.PutUint64(buf[database.NonceOffset:], nonce)
			digest := hashing.DoubleSum(buf[:])
			attempts++

			if difficulty.Solves(digest, ses.target) {
				found = true
				break
			}
			nonce += stride
		}
		c.stats.hashes.Add(attempts)

		if !found {
			continue
		}

		// First worker to flip the flag owns the submission. Everyone
		// else found out the session is dead and goes idle until the
		// coordinator installs the next one.
		if !ses.solved.CompareAndSwap(false, true) {
			continue
		}

		c.evHandler("mining: powOperations: worker[%d]: solved session[%d] nonce[%d]", workerID, ses.seq, nonce)

		select {
		case c.solutions <- solution{seq: ses.seq, nonce: nonce, workerID: workerID}:
		case <-c.shut:
			return
		}
	}
}
