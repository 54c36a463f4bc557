package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/cometchain/comet/app/services/node/handlers"
	"github.com/cometchain/comet/foundation/blockchain/database"
	"github.com/cometchain/comet/foundation/blockchain/database/storage/disk"
	"github.com/cometchain/comet/foundation/blockchain/database/storage/leveldb"
	"github.com/cometchain/comet/foundation/blockchain/database/storage/memory"
	"github.com/cometchain/comet/foundation/blockchain/genesis"
	"github.com/cometchain/comet/foundation/blockchain/mining"
	"github.com/cometchain/comet/foundation/blockchain/state"
	"github.com/cometchain/comet/foundation/events"
	"github.com/cometchain/comet/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("NODE")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		State struct {
			Storage     string `conf:"default:leveldb,help:leveldb disk or memory"`
			DBPath      string `conf:"default:zblock/"`
			GenesisPath string `conf:"default:zblock/genesis.json"`
		}
		Miner struct {
			Enabled bool `conf:"default:true"`
			Workers int  `conf:"default:0,help:0 means one per cpu"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "NODE"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	// Display the current configuration to the logs.
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Blockchain Support

	// Load the genesis parameters the chain runs under. A missing file
	// means a fresh development chain using the defaults.
	gen, err := genesis.Load(cfg.State.GenesisPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("unable to load genesis: %w", err)
		}
		gen = genesis.Default()
		log.Infow("startup", "status", "genesis file not found, using defaults", "chain", gen.ChainID)
	}

	// Select the storage backend blocks are persisted to.
	var storage database.Serializer
	switch cfg.State.Storage {
	case "leveldb":
		storage, err = leveldb.New(filepath.Join(cfg.State.DBPath, "blocks"))
	case "disk":
		storage, err = disk.New(filepath.Join(cfg.State.DBPath, "blocks"))
	case "memory":
		storage, err = memory.New()
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.State.Storage)
	}
	if err != nil {
		return fmt.Errorf("unable to open storage: %w", err)
	}

	// The blockchain packages accept a function of this signature to allow the
	// application to log. These raw messages are also sent to any websocket
	// client that is connected into the system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	// The state value represents the blockchain node and manages the blockchain
	// database and provides an API for application support.
	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   storage,
		EvHandler: ev,
	})
	if err != nil {
		return err
	}
	defer st.Shutdown()

	// Run the in-process miner when configured. The coordinator registers
	// with the state so new-template signals reach it.
	if cfg.Miner.Enabled {
		coord, err := mining.Run(mining.Config{
			Client:    localClient{st: st},
			Workers:   cfg.Miner.Workers,
			EvHandler: ev,
		})
		if err != nil {
			return fmt.Errorf("unable to start miner: %w", err)
		}
		st.RegisterWorker(coord)
	}

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// The Debug function returns a mux to listen and serve on for all the debug
	// related endpoints. This includes the standard library endpoints.
	debugMux := handlers.DebugMux(build, log)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown: shutdown,
		Log:      log,
		State:    st,
		Evts:     evts,
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// =============================================================================

// localClient lets the in-process miner talk to the state directly
// while satisfying the same contract a remote miner uses.
type localClient struct {
	st *state.State
}

// BlockTemplate implements the mining.Client interface.
func (lc localClient) BlockTemplate(ctx context.Context) (state.BlockTemplate, error) {
	return lc.st.BlockTemplate()
}

// SubmitBlock implements the mining.Client interface.
func (lc localClient) SubmitBlock(ctx context.Context, sub state.Submission) (state.SubmitStatus, error) {
	return lc.st.SubmitBlock(sub)
}
