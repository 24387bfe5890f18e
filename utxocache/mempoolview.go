package utxocache

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// TxByID is the narrow slice of mempool.Mempool this package needs: look
// an unconfirmed transaction up by txid. Kept as a local interface
// (rather than importing the mempool package) so utxocache has no
// dependency on mempool — mempool depends on utxocache, not the other way
// around.
type TxByID interface {
	GetTx(txid chainhash.Hash) (*wire.MsgTx, bool)
}

// MempoolBackedView is a read-only CoinViewer that, on a miss in base,
// checks whether the requested outpoint is actually an as-yet-unconfirmed
// output created by a mempool transaction — "a mempool-aware view ... on
// miss, consults the mempool's outputs as if they were coins" (§4.C).
type MempoolBackedView struct {
	base CoinViewer
	pool TxByID
}

// NewMempoolBackedView stacks a mempool-aware read view over base.
func NewMempoolBackedView(base CoinViewer, pool TxByID) *MempoolBackedView {
	return &MempoolBackedView{base: base, pool: pool}
}

// AccessCoin implements CoinViewer.
func (m *MempoolBackedView) AccessCoin(op OutPoint) (*Coin, bool) {
	if c, ok := m.base.AccessCoin(op); ok {
		return c, true
	}
	tx, ok := m.pool.GetTx(op.Hash)
	if !ok || int(op.Index) >= len(tx.TxOut) {
		return nil, false
	}
	out := tx.TxOut[op.Index]
	return &Coin{
		Value:      out.Value,
		PkScript:   out.PkScript,
		Height:     MempoolHeight,
		IsCoinbase: false,
	}, true
}

// MempoolHeight is the sentinel height coins minted by an unconfirmed
// mempool transaction carry, mirroring Bitcoin Core's own MEMPOOL_HEIGHT
// convention: a coin whose height is below this sentinel is confirmed in
// a real block, one at this sentinel is not.
const MempoolHeight = 0x7FFFFFFF
