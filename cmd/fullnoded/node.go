package main

import (
	"os"
	"os/signal"
	"syscall"

	logger "github.com/sirupsen/logrus"

	"github.com/btcsuite/btcd/txscript"

	"github.com/TEENet-io/btc-fullnode/collab"
	"github.com/TEENet-io/btc-fullnode/logconfig"
	"github.com/TEENet-io/btc-fullnode/mempool"
	"github.com/TEENet-io/btc-fullnode/rpcserver"
	"github.com/TEENet-io/btc-fullnode/scriptengine"
	"github.com/TEENet-io/btc-fullnode/utxocache"
)

func scriptFlags() txscript.ScriptFlags { return scriptengine.StandardFlags }

// FullNode holds the objects that make up a running node: the persistent
// UTXO store, the mempool sitting in front of it, and the RPC server
// binding both to the network — the same "config in, wired components
// out" shape as the teacher's BridgeServer.
type FullNode struct {
	Store      *utxocache.SQLiteCoinStore
	Mempool    *mempool.Mempool
	ChainStore *collab.MemChainStore
	RPCServer  *rpcserver.Server
}

// NewFullNode wires a FullNode from cfg. Block validation, chain sync,
// and wallet key management stay external collaborators (spec.md's
// explicit out-of-scope list) — ChainStore here is the in-memory
// reference implementation good enough to exercise the RPC surface, not
// a production block index.
func NewFullNode(cfg *FullNodeConfig) (*FullNode, error) {
	store, err := utxocache.NewSQLiteCoinStore(cfg.DbFilePath)
	if err != nil {
		logger.Fatalf("failed to open UTXO store %s: %v", cfg.DbFilePath, err)
		return nil, err
	}

	policy := collab.StaticPolicy{
		Flags:      scriptFlags(),
		MinFeeRate: cfg.MinRelayFeeRate,
	}
	mp := mempool.New(policy)
	chainStore := collab.NewMemChainStore()

	rpc := rpcserver.NewServer(cfg.ChainParams(), store, mp, chainStore, collab.NullNetwork{}, logger.StandardLogger())

	return &FullNode{Store: store, Mempool: mp, ChainStore: chainStore, RPCServer: rpc}, nil
}

// StartAndWait runs the RPC HTTP server until SIGINT/SIGTERM, mirroring
// the teacher's StartBridgeServerAndWait shutdown handling. gin's
// router.Run blocks for the process lifetime, so the signal handler's
// job is only to close the store cleanly before the process exits.
func (n *FullNode) StartAndWait(cfg *FullNodeConfig) {
	logconfig.Configure(cfg.LogLevel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Infof("received signal %v, closing UTXO store", sig)
		if err := n.Store.Close(); err != nil {
			logger.Errorf("error closing UTXO store: %v", err)
		}
		os.Exit(0)
	}()

	address := cfg.HttpIp + ":" + cfg.HttpPort
	logger.WithField("address", address).Info("starting RPC server")
	if err := n.RPCServer.Run(address); err != nil {
		logger.Fatalf("RPC server stopped: %v", err)
	}
}
