package rawtx

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/btc-fullnode/collab"
	"github.com/TEENet-io/btc-fullnode/mempool"
	"github.com/TEENet-io/btc-fullnode/utxocache"
	"github.com/TEENet-io/btc-fullnode/wireformat"
)

// ErrTxNotFound is returned when a getrawtransaction lookup exhausts
// every available index. Reproducing Bitcoin Core's partial-index
// behavior verbatim (spec.md §9): without a tx-index, only mempool
// entries and transactions with at least one still-unspent output are
// resolvable.
var ErrTxNotFound = errors.New("rawtx: transaction not found in mempool or the unspent-output view")

// GetRawResult is getrawtransaction's result: the raw tx plus enough
// context (confirmations) to build either the hex or verbose response.
type GetRawResult struct {
	Hex           string
	Tx            *wire.MsgTx
	Confirmations int32
}

// GetRawVerboseResult is getrawtransaction's verbose=true result: the
// same tx-json shape decoderawtransaction returns, plus the hex and
// confirmation count only a chain-aware lookup can supply.
type GetRawVerboseResult struct {
	Hex           string
	Confirmations int32
	*DecodedTx
}

// GetRaw implements getrawtransaction (spec.md §4.F): looks up txid in
// the mempool first, then via the UTXO view's knowledge of the creating
// block height (store.Height, which only knows transactions with an
// output still in the coin store). No transaction index is consulted.
func GetRaw(txid chainhash.Hash, mp *mempool.Mempool, store *utxocache.SQLiteCoinStore, chainStore collab.ChainStore) (*GetRawResult, error) {
	if tx, ok := mp.GetTx(txid); ok {
		hex, err := wireformat.EncodeHex(tx)
		if err != nil {
			return nil, err
		}
		return &GetRawResult{Hex: hex, Tx: tx, Confirmations: 0}, nil
	}

	height, ok := store.Height(txid)
	if !ok {
		return nil, ErrTxNotFound
	}

	idx, ok := chainStore.BlockIndexAtHeight(height)
	if !ok {
		return nil, ErrTxNotFound
	}
	block, err := chainStore.ReadBlock(idx)
	if err != nil {
		return nil, ErrTxNotFound
	}
	var tx *wire.MsgTx
	for _, candidate := range block.Transactions {
		if candidate.TxHash() == txid {
			tx = candidate
			break
		}
	}
	if tx == nil {
		return nil, ErrTxNotFound
	}

	hex, err := wireformat.EncodeHex(tx)
	if err != nil {
		return nil, err
	}

	confirmations := int32(0)
	if chainStore.ContainsInActiveChain(idx) {
		confirmations = chainStore.ActiveHeight() - height + 1
	}
	return &GetRawResult{Hex: hex, Tx: tx, Confirmations: confirmations}, nil
}

// GetRawVerbose is GetRaw's verbose=true branch: it resolves the same
// transaction and renders it as tx-json (spec.md §6's two-shape result).
func GetRawVerbose(txid chainhash.Hash, mp *mempool.Mempool, store *utxocache.SQLiteCoinStore, chainStore collab.ChainStore, params *chaincfg.Params) (*GetRawVerboseResult, error) {
	result, err := GetRaw(txid, mp, store, chainStore)
	if err != nil {
		return nil, err
	}
	return &GetRawVerboseResult{
		Hex:           result.Hex,
		Confirmations: result.Confirmations,
		DecodedTx:     toDecodedTx(result.Tx, params),
	}, nil
}
