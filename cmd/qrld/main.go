// Package main is qrld, the node daemon: it wires together the state
// store, chain manager, tx pool, miner, gossip core, and RPC surface into
// one running process, in the shape of the teacher's kaspad.go (a
// kaspad struct owning every long-lived service with start/stop methods)
// generalized to this spec's own components.
package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"google.golang.org/grpc"

	"github.com/theQRL/qrl-core-go/crypto"
	"github.com/theQRL/qrl-core-go/logger"
	"github.com/theQRL/qrl-core-go/node"
	"github.com/theQRL/qrl-core-go/rpcapi"
	"github.com/theQRL/qrl-core-go/util/panics"
)

var (
	log   = logger.Node()
	spawn = panics.GoroutineWrapperFunc(log)
)

// qrld is a wrapper for every long-lived service the daemon runs, in the
// teacher's kaspad-struct style.
type qrld struct {
	cfg        *Config
	core       *node.Core
	grpcServer *grpc.Server
	grpcLis    net.Listener
	httpServer *httpServer
}

func newQrld(cfg *Config) (*qrld, error) {
	core, err := node.New(node.Config{
		StoreDir:      filepath.Join(cfg.DataDir, "chaindata"),
		Params:        cfg.params,
		Verifier:      crypto.ReferenceXMSSVerifier{},
		Hasher:        crypto.ReferencePowHasher{},
		Genesis:       cfg.params.GenesisBlock(),
		PoolCapacity:  cfg.PoolCapacity,
		GossipTimeout: time.Duration(cfg.GossipTimeout) * time.Millisecond,
		StaleTimeout:  cfg.params.StaleTimeout,
		WorkerCount:   cfg.WorkerCount,
		Now:           func() int64 { return time.Now().Unix() },
	})
	if err != nil {
		return nil, errors.Wrap(err, "constructing node core")
	}

	srv := rpcapi.NewServer(core.Chain(), core.Miner(), core)

	grpcLis, err := net.Listen("tcp", cfg.RPCListen)
	if err != nil {
		return nil, errors.Wrapf(err, "listening for gRPC on %s", cfg.RPCListen)
	}
	grpcServer := grpc.NewServer()
	rpcapi.RegisterQRLAPIServer(grpcServer, srv)

	httpSrv := newHTTPServer(cfg.HTTPListen, rpcapi.NewHTTPGateway(srv).Router())

	return &qrld{
		cfg:        cfg,
		core:       core,
		grpcServer: grpcServer,
		grpcLis:    grpcLis,
		httpServer: httpSrv,
	}, nil
}

func (q *qrld) start(stop <-chan struct{}) {
	log.Infof("starting qrld on %s", q.cfg.Network)

	spawn(func() { q.core.Run(stop) })

	spawn(func() {
		if err := q.grpcServer.Serve(q.grpcLis); err != nil {
			log.Warnf("gRPC server stopped: %v", err)
		}
	})
	log.Infof("gRPC API listening on %s", q.cfg.RPCListen)

	spawn(func() {
		if err := q.httpServer.Serve(); err != nil {
			log.Warnf("HTTP gateway stopped: %v", err)
		}
	})
	log.Infof("HTTP gateway listening on %s", q.cfg.HTTPListen)
}

func (q *qrld) stop() {
	log.Warnf("qrld shutting down")
	q.grpcServer.GracefulStop()
	if err := q.httpServer.Close(); err != nil {
		log.Errorf("error closing HTTP gateway: %v", err)
	}
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}

	d, err := newQrld(cfg)
	if err != nil {
		panics.Exit(log, fmt.Sprintf("error starting qrld: %+v", err))
	}

	stop := make(chan struct{})
	d.start(stop)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	close(stop)
	d.stop()
}
