// Package collab defines the external collaborator interfaces the core
// consumes without owning (spec.md §6): the active chain's block store,
// the P2P relay layer, and node policy. rawtx and rpcserver depend on
// these narrow traits rather than on any concrete chain or network
// implementation, so the core stays testable against small in-memory
// fakes instead of a live node.
package collab

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// BlockIndex is the minimal per-block metadata ChainStore exposes: enough
// to resolve gettxoutproof's block argument and to compute confirmations.
type BlockIndex struct {
	Hash   chainhash.Hash
	Height int32
}

// ChainStore is the read-only view onto the active chain the core needs;
// it never mutates chain state itself.
type ChainStore interface {
	ReadBlock(index BlockIndex) (*wire.MsgBlock, error)
	ActiveHeight() int32
	ContainsInActiveChain(index BlockIndex) bool
	BlockIndexFor(hash chainhash.Hash) (BlockIndex, bool)
	BlockIndexAtHeight(height int32) (BlockIndex, bool)
}

// Network is the upcall used to schedule relay of a newly accepted
// transaction. Failure of relay is never fatal to the RPC that triggered
// admission (spec.md §4.F).
type Network interface {
	Relay(txid chainhash.Hash)
}

// Policy exposes the node-wide settings admission and script verification
// run under.
type Policy interface {
	StandardScriptVerifyFlags() txscript.ScriptFlags
	MinRelayFeeRate() int64
}
