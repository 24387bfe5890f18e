package rawtx

import (
	"errors"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/TEENet-io/btc-fullnode/collab"
	"github.com/TEENet-io/btc-fullnode/merkleproof"
	"github.com/TEENet-io/btc-fullnode/utxocache"
	"github.com/TEENet-io/btc-fullnode/wireformat"
)

// ErrTxsNotFound is returned when the requested txids do not all belong
// to the same block (spec.md §4.F).
var ErrTxsNotFound = errors.New("rawtx: requested transactions not found in a common block")

// ErrDuplicateTxid signals a duplicate entry in a gettxoutproof request
// (spec.md §8 boundary case, surfaced as INVALID_PARAMETER at the RPC
// boundary).
var ErrDuplicateTxid = errors.New("rawtx: duplicate txid in request")

// GetProof implements gettxoutproof (spec.md §4.F): resolves the block
// containing every requested txid — via an explicit hash, else via an
// unspent coin of one of the txids whose height chainStore maps to a
// block — builds a partial Merkle branch over it, and returns the encoded
// proof hex. There is no transaction-index lookup: without a block hash,
// the block is found only if output 0 of one of the txids is still a
// confirmed, unspent coin in view.
func GetProof(txids []chainhash.Hash, blockHash *chainhash.Hash, view utxocache.CoinViewer, chainStore collab.ChainStore) (string, error) {
	if err := rejectDuplicates(txids); err != nil {
		return "", err
	}

	var index collab.BlockIndex
	switch {
	case blockHash != nil:
		idx, ok := chainStore.BlockIndexFor(*blockHash)
		if !ok {
			return "", ErrTxsNotFound
		}
		index = idx
	default:
		idx, ok := resolveByCoinHeight(txids, view, chainStore)
		if !ok {
			return "", ErrTxsNotFound
		}
		index = idx
	}

	block, err := chainStore.ReadBlock(index)
	if err != nil {
		return "", ErrTxsNotFound
	}

	blockTxids := make([]chainhash.Hash, len(block.Transactions))
	match := make(map[chainhash.Hash]bool, len(txids))
	for _, t := range txids {
		match[t] = true
	}
	found := make(map[chainhash.Hash]bool, len(txids))
	for i, tx := range block.Transactions {
		h := tx.TxHash()
		blockTxids[i] = h
		if match[h] {
			found[h] = true
		}
	}
	for _, t := range txids {
		if !found[t] {
			return "", ErrTxsNotFound
		}
	}

	mb := merkleproof.Build(block.Header, blockTxids, match)
	return merkleproof.EncodeHex(mb)
}

// VerifyProof implements verifytxoutproof: decode the proof, recompute
// its Merkle root and matched txids, and return the matches as their
// display-hex form. A proof that cannot be decoded is an error; a decoded
// proof whose bits and hashes do not form a consistent tree (for example
// after a bit flip) yields an empty list. The recomputed root is not
// compared against the header's Merkle root.
func VerifyProof(proofHex string) ([]string, error) {
	mb, err := merkleproof.DecodeHex(proofHex)
	if err != nil {
		return nil, err
	}
	_, matched, err := merkleproof.Verify(mb)
	if err != nil {
		return []string{}, nil
	}
	out := make([]string, len(matched))
	for i, h := range matched {
		out[i] = wireformat.DisplayHash(h)
	}
	return out, nil
}

func rejectDuplicates(txids []chainhash.Hash) error {
	seen := make(map[chainhash.Hash]struct{}, len(txids))
	for _, t := range txids {
		if _, dup := seen[t]; dup {
			return ErrDuplicateTxid
		}
		seen[t] = struct{}{}
	}
	return nil
}

// resolveByCoinHeight finds the block containing one of txids via an
// unspent coin one of them created — the coin's height pinpoints the
// block, which is then confirmed still active via chainStore.
func resolveByCoinHeight(txids []chainhash.Hash, view utxocache.CoinViewer, chainStore collab.ChainStore) (collab.BlockIndex, bool) {
	for _, t := range txids {
		coin, ok := view.AccessCoin(utxocache.OutPoint{Hash: t, Index: 0})
		if !ok || coin.Height >= utxocache.MempoolHeight {
			continue
		}
		if idx, ok := chainStore.BlockIndexAtHeight(coin.Height); ok {
			return idx, true
		}
	}
	return collab.BlockIndex{}, false
}
