package rawtx

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/btc-fullnode/keystore"
	"github.com/TEENet-io/btc-fullnode/scriptengine"
	"github.com/TEENet-io/btc-fullnode/utxocache"
	"github.com/TEENet-io/btc-fullnode/wireformat"
)

// PrevTxHint supplies (or overrides) the previous output an input spends,
// the way signrawtransaction's prev_txs argument does. Amount may be zero
// — this path never computes fees, only signs (spec.md §4.F step 3).
type PrevTxHint struct {
	Txid         string
	Vout         uint32
	ScriptPubKey []byte
	Amount       int64
}

// ErrPrevOutMismatch is returned when a supplied prev_tx hint's
// script_pub_key disagrees with a coin the view already knows about.
var ErrPrevOutMismatch = errors.New("rawtx: prev_tx hint conflicts with known previous output")

// SignInputError is one entry of signrawtransaction's errors[] result.
type SignInputError struct {
	Txid    string
	Vout    uint32
	Message string
}

// SignResult is signrawtransaction's {hex, complete, errors} result.
type SignResult struct {
	Hex      string
	Complete bool
	Errors   []SignInputError
}

// overlayPrevOuts stacks a fresh in-memory layer over base and pre-populates
// it with each hint, rejecting a hint whose script_pub_key conflicts with
// a coin the underlying layers already resolve for that outpoint.
func overlayPrevOuts(base utxocache.CoinViewer, hints []PrevTxHint) (*utxocache.UtxoView, error) {
	overlay := utxocache.NewLayer(base)
	for _, hint := range hints {
		hash, err := wireformat.HashFromDisplay(hint.Txid)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTxid, err)
		}
		op := wire.OutPoint{Hash: hash, Index: hint.Vout}
		if existing, ok := base.AccessCoin(op); ok {
			if string(existing.PkScript) != string(hint.ScriptPubKey) {
				return nil, ErrPrevOutMismatch
			}
		}
		coin := overlay.Modify(op)
		coin.PkScript = hint.ScriptPubKey
		coin.Value = hint.Amount
	}
	return overlay, nil
}

// Sign implements signrawtransaction (spec.md §4.F). txHex may hold more
// than one transaction concatenated back to back — signrawtransaction's
// prior invocations can each be passed back in as a "variant" to merge
// signatures across, exactly the way its original C++ counterpart parses
// a stream of CMutableTransactions out of one hex argument
// (original_source/rpcrawtransaction.cpp). The first variant supplies the
// inputs/outputs actually signed; every other variant only contributes
// its per-input scriptSig to merge in via Combine.
//
// base is the persistent+mempool-backed layer prev_tx hints are overlaid
// on top of; ks is the transient keystore built from priv_keys, or the
// wallet's own keystore when the caller relies on it (an external
// collaborator this package never constructs itself).
func Sign(txHex string, hints []PrevTxHint, ks keystore.KeyStore, hashType scriptengine.SigHashType, base utxocache.CoinViewer) (*SignResult, error) {
	variants, err := wireformat.DecodeHexVariants(txHex)
	if err != nil {
		return nil, err
	}
	tx := variants[0].Copy()
	otherVariants := variants[1:]

	view, err := overlayPrevOuts(base, hints)
	if err != nil {
		return nil, err
	}

	var sErrs []SignInputError
	for i, in := range tx.TxIn {
		original := in.SignatureScript
		tx.TxIn[i].SignatureScript = nil

		coin, ok := view.AccessCoin(in.PreviousOutPoint)
		if !ok {
			// Per spec.md §9's open question: silently skip inputs whose
			// previous output cannot be resolved, reporting a per-input
			// error rather than aborting the whole request.
			tx.TxIn[i].SignatureScript = original
			sErrs = append(sErrs, SignInputError{
				Txid:    wireformat.DisplayHash(in.PreviousOutPoint.Hash),
				Vout:    in.PreviousOutPoint.Index,
				Message: "input references an unresolvable previous output",
			})
			continue
		}

		if hashType&0x1f == scriptengine.SigHashSingle && i >= len(tx.TxOut) {
			tx.TxIn[i].SignatureScript = original
			sErrs = append(sErrs, SignInputError{
				Txid:    wireformat.DisplayHash(in.PreviousOutPoint.Hash),
				Vout:    in.PreviousOutPoint.Index,
				Message: "SIGHASH_SINGLE with no corresponding output",
			})
			continue
		}

		final := original
		fresh, signErr := scriptengine.SignInput(ks, coin.PkScript, tx, i, hashType)
		if signErr != nil {
			sErrs = append(sErrs, SignInputError{
				Txid:    wireformat.DisplayHash(in.PreviousOutPoint.Hash),
				Vout:    in.PreviousOutPoint.Index,
				Message: signErr.Error(),
			})
		} else if len(original) == 0 {
			final = fresh
		} else {
			final = scriptengine.Combine(coin.PkScript, tx, i, original, fresh, coin.Value)
		}

		for _, v := range otherVariants {
			if i >= len(v.TxIn) {
				continue
			}
			final = scriptengine.Combine(coin.PkScript, tx, i, final, v.TxIn[i].SignatureScript, coin.Value)
		}
		tx.TxIn[i].SignatureScript = final

		if verr := scriptengine.Verify(final, coin.PkScript, tx, i, scriptengine.StandardFlags, coin.Value); verr != nil {
			sErrs = append(sErrs, SignInputError{
				Txid:    wireformat.DisplayHash(in.PreviousOutPoint.Hash),
				Vout:    in.PreviousOutPoint.Index,
				Message: verr.Error(),
			})
		}
	}

	hex, err := wireformat.EncodeHex(tx)
	if err != nil {
		return nil, err
	}
	return &SignResult{Hex: hex, Complete: len(sErrs) == 0, Errors: sErrs}, nil
}
