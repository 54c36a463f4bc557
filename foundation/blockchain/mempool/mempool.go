// Package mempool maintains the pool of transactions waiting to be
// mined into a block. Admission policy beyond duplicate suppression is
// the caller's concern; the pool hands transactions out in arrival
// order when a block template is being built.
package mempool

import (
	"sort"
	"sync"

	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/hashing"
)

// Mempool represents a cache of transactions organized by content digest.
type Mempool struct {
	mu      sync.RWMutex
	pool    map[hashing.Hash]entry
	arrival uint64
}

// entry pairs a transaction with its arrival order for FIFO selection.
type entry struct {
	tx    database.Tx
	order uint64
}

// New constructs a new mempool for managing pending transactions.
func New() *Mempool {
	return &Mempool{
		pool: make(map[hashing.Hash]entry),
	}
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the pool.
func (mp *Mempool) Upsert(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	digest := tx.Digest()
	if _, exists := mp.pool[digest]; exists {
		return
	}

	mp.pool[digest] = entry{tx: tx, order: mp.arrival}
	mp.arrival++
}

// Delete removes a transaction from the pool.
func (mp *Mempool) Delete(tx database.Tx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	delete(mp.pool, tx.Digest())
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[hashing.Hash]entry)
}

// PickBest returns up to howMany transactions in arrival order. Passing
// a negative value returns the whole pool.
func (mp *Mempool) PickBest(howMany int) []database.Tx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	entries := make([]entry, 0, len(mp.pool))
	for _, ent := range mp.pool {
		entries = append(entries, ent)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].order < entries[j].order
	})

	if howMany < 0 || howMany > len(entries) {
		howMany = len(entries)
	}

	txs := make([]database.Tx, 0, howMany)
	for _, ent := range entries[:howMany] {
		txs = append(txs, ent.tx)
	}

	return txs
}
