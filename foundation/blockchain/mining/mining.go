// Package mining implements the proof-of-work search. A coordinator
// goroutine owns the template lifecycle and talks to the chain owner,
// while a pool of worker goroutines runs the nonce search. Workers
// never block each other: they share a single atomic session pointer
// and an atomic solved flag, nothing more.
package mining

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/difficulty"
	"github.com/cometchain/comet/foundation/blockchain/hashing"
	"github.com/cometchain/comet/foundation/blockchain/state"
)

// refreshInterval is how often the coordinator re-asks for a template
// even without a signal, which catches chain advances made by other
// miners.
const refreshInterval = 10 * time.Second

// callTimeout bounds each call to the chain owner.
const callTimeout = 10 * time.Second

// Client represents the behavior required of the chain owner the
// coordinator mines against. The state package satisfies it directly
// for in-process mining; the nodeclient package satisfies it over HTTP.
type Client interface {
	BlockTemplate(ctx context.Context) (state.BlockTemplate, error)
	SubmitBlock(ctx context.Context, sub state.Submission) (state.SubmitStatus, error)
}

// =============================================================================

// Config represents the configuration required to start the coordinator.
type Config struct {
	Client    Client
	Workers   int // Defaults to the number of CPUs.
	EvHandler state.EventHandler
}

// Coordinator manages the mining workflow: fetching templates, fanning
// the nonce search out over the workers and submitting solved blocks.
type Coordinator struct {
	client    Client
	workers   int
	evHandler state.EventHandler

	// session is the work the coordinator has published for the
	// workers. Workers load it between hash batches; the coordinator is
	// the only writer. A nil session means there is no work.
	session    atomic.Pointer[session]
	sessionSeq uint64 // Only touched by the coordinator goroutine.

	newTemplate chan bool
	solutions   chan solution
	shut        chan struct{}
	wg          sync.WaitGroup
	ticker      *time.Ticker

	stats Stats
}

// session is an immutable unit of work. The solved flag is the single
// point of arbitration between workers: whoever flips it owns the
// submission for this session.
type session struct {
	seq      uint64
	template state.BlockTemplate
	header   [database.HeaderLen]byte // Serialized header with a zero nonce.
	target   [hashing.Size]byte
	solved   atomic.Bool
}

// solution is what a winning worker hands back to the coordinator.
type solution struct {
	seq      uint64
	nonce    uint64
	workerID int
}

// Run creates a coordinator and starts up the coordinator goroutine and
// the configured number of worker goroutines.
func Run(cfg Config) (*Coordinator, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	c := Coordinator{
		client:      cfg.Client,
		workers:     workers,
		evHandler:   ev,
		newTemplate: make(chan bool, 1),
		solutions:   make(chan solution, 1),
		shut:        make(chan struct{}),
		ticker:      time.NewTicker(refreshInterval),
	}
	c.stats.start = time.Now()
	c.stats.lastTime = c.stats.start

	// Ask for the first template as soon as the coordinator is up.
	c.newTemplate <- true

	// Load the set of operations we need to run.
	operations := []func(){c.coordinatorOperations}
	for i := 0; i < workers; i++ {
		workerID := i
		operations = append(operations, func() { c.powOperations(workerID) })
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	c.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer c.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &c, nil
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates all the goroutines performing work.
func (c *Coordinator) Shutdown() {
	c.evHandler("mining: shutdown: started")
	defer c.evHandler("mining: shutdown: completed")

	c.ticker.Stop()

	close(c.shut)
	c.wg.Wait()
}

// SignalNewTemplate tells the coordinator the chain advanced and the
// current template is superseded. The send never blocks: the chain
// owner calls this while holding its own lock, and a signal already
// pending is as good as another one.
func (c *Coordinator) SignalNewTemplate() {
	select {
	case c.newTemplate <- true:
	default:
	}
}

// =============================================================================

// Stats returns a snapshot of the mining counters.
func (c *Coordinator) Stats() Snapshot {
	return c.stats.snapshot()
}

// coordinatorOperations reacts to template signals, solved blocks and
// the periodic refresh. It is the only goroutine that installs
// sessions, so workers see a simple monotonic sequence of them.
func (c *Coordinator) coordinatorOperations() {
	c.evHandler("mining: coordinatorOperations: G started")
	defer c.evHandler("mining: coordinatorOperations: G completed")

	for {
		select {
		case <-c.newTemplate:
			c.runTemplateOperation()
		case sol := <-c.solutions:
			c.runSubmitOperation(sol)
		case <-c.ticker.C:
			c.runTemplateOperation()
		case <-c.shut:
			c.evHandler("mining: coordinatorOperations: received shut signal")
			return
		}
	}
}

// runTemplateOperation fetches the current template and installs a new
// session for it, unless the workers are already searching that same
// template generation.
func (c *Coordinator) runTemplateOperation() {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	tmpl, err := c.client.BlockTemplate(ctx)
	if err != nil {
		c.evHandler("mining: runTemplateOperation: ERROR: %s", err)
		return
	}

	// Keep the current session when it is still live work for this
	// template generation. Replacing it would restart the nonce search
	// from scratch for nothing.
	if cur := c.session.Load(); cur != nil && !cur.solved.Load() && cur.template.TemplateID == tmpl.TemplateID {
		return
	}

	ses, err := newSession(c.sessionSeq+1, tmpl)
	if err != nil {
		c.evHandler("mining: runTemplateOperation: ERROR: %s", err)
		return
	}

	c.sessionSeq++
	c.session.Store(ses)

	c.evHandler("mining: runTemplateOperation: session[%d] template[%d] height[%d] bits[%#08x] txs[%d]",
		ses.seq, tmpl.TemplateID, tmpl.Number, tmpl.Difficulty, len(tmpl.Trans))
}

// runSubmitOperation assembles the solved block and hands it to the
// chain owner, then moves the workers on to fresh work regardless of
// the outcome.
func (c *Coordinator) runSubmitOperation(sol solution) {
	ses := c.session.Load()
	if ses == nil || sol.seq != ses.seq {
		c.evHandler("mining: runSubmitOperation: solution for superseded session[%d]: discarded", sol.seq)
		return
	}

	tmpl := ses.template

	block := database.Block{
		Header: database.BlockHeader{
			Version:       tmpl.Version,
			PrevBlockHash: tmpl.PrevBlockHash,
			MerkleRoot:    tmpl.MerkleRoot,
			TimeStamp:     tmpl.TimeStamp,
			Difficulty:    tmpl.Difficulty,
			Nonce:         sol.nonce,
			Number:        tmpl.Number,
		},
		Trans: tmpl.Trans,
	}

	sub := state.Submission{
		Block:      block,
		TemplateID: tmpl.TemplateID,
		HashRate:   c.stats.HashRate(),
	}

	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	status, err := c.client.SubmitBlock(ctx, sub)
	switch {
	case err != nil:
		c.evHandler("mining: runSubmitOperation: ERROR: blk[%d]: %s", block.Header.Number, err)
	case status == state.SubmitAccepted:
		c.stats.blocksFound.Add(1)
		c.evHandler("mining: runSubmitOperation: accepted blk[%d] hash[%s] worker[%d] nonce[%d]",
			block.Header.Number, block.Hash(), sol.workerID, sol.nonce)
	case status == state.SubmitStale:
		c.evHandler("mining: runSubmitOperation: blk[%d] was stale on arrival", block.Header.Number)
	}

	// Whether we won, lost the race or got rejected, this session is
	// finished. Get the next template.
	c.runTemplateOperation()
}

// newSession preserializes the header and expands the compact
// difficulty so the workers pay neither cost per attempt.
func newSession(seq uint64, tmpl state.BlockTemplate) (*session, error) {
	header := database.BlockHeader{
		Version:       tmpl.Version,
		PrevBlockHash: tmpl.PrevBlockHash,
		MerkleRoot:    tmpl.MerkleRoot,
		TimeStamp:     tmpl.TimeStamp,
		Difficulty:    tmpl.Difficulty,
		Number:        tmpl.Number,
	}

	target, err := difficulty.TargetBytes(tmpl.Difficulty)
	if err != nil {
		return nil, err
	}

	return &session{
		seq:      seq,
		template: tmpl,
		header:   header.Bytes(),
		target:   target,
	}, nil
}
