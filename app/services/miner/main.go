package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/cometchain/comet/foundation/blockchain/mining"
	"github.com/cometchain/comet/foundation/blockchain/nodeclient"
	"github.com/cometchain/comet/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("MINER")
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
		Miner struct {
			NodeURL       string        `conf:"default:http://localhost:8080"`
			Workers       int           `conf:"default:0,help:0 means one per cpu"`
			StatsInterval time.Duration `conf:"default:30s"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "MINER"
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
	// Mining Support

	ev := func(v string, args ...any) {
		log.Infow(fmt.Sprintf(v, args...))
	}

	client := nodeclient.New(cfg.Miner.NodeURL)

	coord, err := mining.Run(mining.Config{
		Client:    client,
		Workers:   cfg.Miner.Workers,
		EvHandler: ev,
	})
	if err != nil {
		return fmt.Errorf("unable to start mining: %w", err)
	}
	defer coord.Shutdown()

	// =========================================================================
	// Shutdown

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Miner.StatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			stats := coord.Stats()
			log.Infow("mining", "hashrate", fmt.Sprintf("%.0f h/s", stats.HashRate),
				"total", stats.TotalHashes, "blocks", stats.BlocksFound,
				"uptime", stats.Uptime.Round(time.Second))

		case sig := <-shutdown:
			log.Infow("shutdown", "status", "shutdown started", "signal", sig)
			defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)
			return nil
		}
	}
}
