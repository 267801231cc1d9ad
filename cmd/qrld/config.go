package main

import (
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/theQRL/qrl-core-go/chaincfg"
	"github.com/theQRL/qrl-core-go/logger"
	"github.com/theQRL/qrl-core-go/util"
)

const (
	logFilename    = "qrld.log"
	errLogFilename = "qrld_err.log"
)

// Config holds every flag qrld accepts, in the shape of the teacher's
// per-daemon Config structs (a flat struct of `long`-tagged fields parsed
// by go-flags).
type Config struct {
	Network       string `long:"network" description:"Network to connect to (mainnet, testnet)" default:"mainnet"`
	DataDir       string `long:"datadir" description:"Directory to store the chain database and logs in"`
	// ListenAddr is reserved for the P2P transport collaborator (§1
	// Non-goals: "transport framing" is external to this spec); node.Core
	// takes peer connections through the PeerTransport interface rather
	// than opening a socket itself, so qrld does not dial this address yet.
	ListenAddr string `long:"listen" description:"P2P address to listen on" default:"0.0.0.0:19000"`
	RPCListen     string `long:"rpclisten" description:"gRPC address to listen on" default:"0.0.0.0:19001"`
	HTTPListen    string `long:"httplisten" description:"HTTP/JSON gateway address to listen on" default:"0.0.0.0:19002"`
	DebugLevel    string `long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}, or subsystem=level pairs" default:"info"`
	WorkerCount   int    `long:"workers" description:"Number of worker-pool goroutines for mining/verification" default:"4"`
	PoolCapacity  int    `long:"poolcap" description:"Transaction pool capacity override (0 keeps the network default)"`
	GossipTimeout int    `long:"gossiptimeout" description:"Gossip pull-retry timeout in milliseconds" default:"3000"`
	StakeSelector string `long:"stakeselector" description:"Hex-encoded address credited with the genesis Coinbase (required unless the network already pins one)"`

	params *chaincfg.Params
}

// loadConfig parses CLI flags, resolves the network's chaincfg.Params, and
// initializes logging, mirroring the teacher's config.Parse layout (flag
// parse, then derived-value resolution, then log rotator init).
func loadConfig() (*Config, error) {
	cfg := &Config{}
	parser := flags.NewParser(cfg, flags.Default)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	params, ok := chaincfg.ByName(cfg.Network)
	if !ok {
		return nil, errors.Errorf("unknown network %q", cfg.Network)
	}
	cfg.params = params

	if cfg.StakeSelector != "" {
		raw, err := hex.DecodeString(cfg.StakeSelector)
		if err != nil {
			return nil, errors.Wrap(err, "decoding --stakeselector")
		}
		addr, err := util.NewAddressFromBytes(raw)
		if err != nil {
			return nil, errors.Wrap(err, "parsing --stakeselector")
		}
		params.StakeSelector = addr
	}
	if params.StakeSelector.IsZero() {
		return nil, errors.New("network has no genesis stake selector pinned; pass --stakeselector")
	}

	if cfg.DataDir == "" {
		cfg.DataDir = dataDirForNetwork(cfg.Network)
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, errors.Wrap(err, "creating data directory")
	}

	logDir := filepath.Join(cfg.DataDir, "logs")
	logger.InitLogRotators(filepath.Join(logDir, logFilename), filepath.Join(logDir, errLogFilename))
	if err := logger.ParseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		return nil, err
	}

	if cfg.PoolCapacity <= 0 {
		cfg.PoolCapacity = params.PoolSizeCap
	}

	return cfg, nil
}

func dataDirForNetwork(network string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".qrld", network)
}
