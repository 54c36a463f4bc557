// Package state is the core API for the blockchain and implements all
// the business rules and processing. One State value is the chain
// owner: template issuance, submission arbitration and the append gate
// all serialize through it.
package state

import (
	"sync"

	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/genesis"
	"github.com/cometchain/comet/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented
// by any package providing support for mining against this state. The
// state signals it when the chain advances so in-flight work on a
// superseded template gets abandoned.
type Worker interface {
	Shutdown()
	SignalNewTemplate()
}

// =============================================================================

// Config represents the configuration required to start the chain owner.
type Config struct {
	Genesis   genesis.Genesis
	Storage   database.Serializer
	EvHandler EventHandler
}

// State manages the blockchain database, the mempool and the template
// lifecycle.
type State struct {
	mu        sync.Mutex
	evHandler EventHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	// templateID identifies the template generation currently valid for
	// submissions. It advances every time the chain does, which is what
	// makes older templates stale. Guarded by mu.
	templateID uint64

	// lastHashRate is the advisory hashrate attached to the most recent
	// submission. Never used for correctness decisions. Guarded by mu.
	lastHashRate float64

	// worker is optionally registered by a mining package running in
	// process. The state only signals it, never blocks on it. Guarded
	// by mu since the coordinator registers after it is already mining.
	worker Worker
}

// New constructs a new state value for managing the chain.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Access storage and replay the chain into memory. Every loaded
	// block passes full validation.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		evHandler:  ev,
		genesis:    cfg.Genesis,
		mempool:    mempool.New(),
		db:         db,
		templateID: 1,
	}

	return &state, nil
}

// RegisterWorker attaches an in-process mining coordinator so the
// state can signal it when the chain advances.
func (s *State) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.worker = w
}

// Shutdown cleanly brings the chain owner down.
func (s *State) Shutdown() error {
	defer func() {
		s.db.Close()
	}()

	// Stop any in-process mining activity first. The lock can't be
	// held across the call: the coordinator's goroutines may be inside
	// a submission of their own.
	s.mu.Lock()
	worker := s.worker
	s.mu.Unlock()

	if worker != nil {
		worker.Shutdown()
	}

	return nil
}
