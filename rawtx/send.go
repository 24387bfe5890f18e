package rawtx

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/btc-fullnode/collab"
	"github.com/TEENet-io/btc-fullnode/mempool"
	"github.com/TEENet-io/btc-fullnode/utxocache"
	"github.com/TEENet-io/btc-fullnode/wireformat"
)

// Send implements sendrawtransaction (spec.md §4.F): decode, compute
// txid, short-circuit if the transaction is already known (idempotent at
// the chain level per §8 scenario 5), otherwise admit to the mempool and
// schedule relay. Relay failure is never fatal to the call.
func Send(txHex string, allowHighFees bool, mp *mempool.Mempool, view *utxocache.UtxoView, network collab.Network, tipHeight int32) (chainhash.Hash, *mempool.RejectReason, error) {
	tx, err := Decode(txHex)
	if err != nil {
		return chainhash.Hash{}, nil, err
	}
	txid := wireformat.TxID(tx)

	if mp.Exists(txid) {
		return txid, nil, nil
	}

	// A coin produced by this exact transaction whose height is below the
	// mempool sentinel means it was already mined into the active chain.
	if isAlreadyConfirmed(tx, txid, view) {
		return txid, mempool.AlreadyInChainReject(), nil
	}

	gotTxid, rej := mp.Accept(tx, view, allowHighFees, mempoolNow(), tipHeight)
	if rej != nil {
		return gotTxid, rej, nil
	}

	network.Relay(gotTxid)
	return gotTxid, nil, nil
}

func isAlreadyConfirmed(tx *wire.MsgTx, txid chainhash.Hash, view *utxocache.UtxoView) bool {
	for i := range tx.TxOut {
		op := wire.OutPoint{Hash: txid, Index: uint32(i)}
		if coin, ok := view.AccessCoin(op); ok && coin.Height < utxocache.MempoolHeight {
			return true
		}
	}
	return false
}

func mempoolNow() int64 { return mempool.Now() }
