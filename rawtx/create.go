// Package rawtx implements the dominant sign-and-send data flow of
// spec.md §2: decode hex via wireformat, stack a transient UTXO view over
// persistent storage and the mempool, resolve previous outputs, invoke
// scriptengine per input, re-encode, and hand the result to mempool for
// admission and relay.
package rawtx

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/btc-fullnode/wireformat"
)

// finalSequence is the sequence value that neither activates a locktime
// nor participates in replace-by-fee signalling.
const finalSequence = 0xFFFFFFFF

// locktimeSequence is the sequence Bitcoin Core's createrawtransaction
// assigns an input when the caller supplies a non-zero locktime and does
// not otherwise ask for a specific sequence: high enough to leave the
// locktime binding without opting the input into RBF.
const locktimeSequence = 0xFFFFFFFE

// Input names a previous output to spend, mirroring createrawtransaction's
// {"txid":..., "vout":...} argument shape. Sequence, if non-nil, overrides
// the default final/locktime-activating sequence.
type Input struct {
	Txid     string
	Vout     uint32
	Sequence *uint32
}

// Output is either a payment to an address or an OP_RETURN data push
// (mutually exclusive: Data non-nil means Address/Amount are ignored).
type Output struct {
	Address string
	Amount  int64
	Data    []byte
}

// ErrInvalidTxid signals a txid argument that isn't 64 hex characters.
var ErrInvalidTxid = errors.New("rawtx: invalid txid")

// ErrDuplicateOutputAddress signals two payment outputs in the same
// createrawtransaction call naming the same destination address.
var ErrDuplicateOutputAddress = errors.New("rawtx: duplicate destination address")

// ErrInvalidAmount signals a negative output amount, or a running total
// across all outputs that overflows what a transaction can carry.
var ErrInvalidAmount = errors.New("rawtx: invalid output amount")

// Create builds an unsigned transaction from the given previous outputs
// and outputs, matching createrawtransaction's semantics (spec.md §6, §8
// scenarios 1-2): version 1, sequence 0xFFFFFFFF unless locktime is
// non-zero (then 0xFFFFFFFE, unless the caller pinned a Sequence), and
// outputs emitted in the order given. Duplicate destination addresses and
// negative or overflowing amounts are rejected before any output is built.
func Create(inputs []Input, outputs []Output, locktime uint32, params *chaincfg.Params) (*wire.MsgTx, error) {
	if err := validateOutputs(outputs); err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(1)
	tx.LockTime = locktime

	for _, in := range inputs {
		hash, err := wireformat.HashFromDisplay(in.Txid)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidTxid, err)
		}
		seq := uint32(finalSequence)
		if locktime != 0 {
			seq = locktimeSequence
		}
		if in.Sequence != nil {
			seq = *in.Sequence
		}
		txIn := wire.NewTxIn(wire.NewOutPoint(&hash, in.Vout), nil, nil)
		txIn.Sequence = seq
		tx.AddTxIn(txIn)
	}

	for _, out := range outputs {
		if out.Data != nil {
			script, err := txscript.NullDataScript(out.Data)
			if err != nil {
				return nil, fmt.Errorf("rawtx: building OP_RETURN script: %w", err)
			}
			tx.AddTxOut(wire.NewTxOut(0, script))
			continue
		}
		addr, err := btcutilDecodeAddress(out.Address, params)
		if err != nil {
			return nil, err
		}
		script, err := txscript.PayToAddrScript(addr)
		if err != nil {
			return nil, fmt.Errorf("rawtx: building output script: %w", err)
		}
		tx.AddTxOut(wire.NewTxOut(out.Amount, script))
	}

	return tx, nil
}

// validateOutputs rejects two payment outputs naming the same address, a
// negative amount, and a running total that overflows int64 — none of
// which wire.NewTxOut or txscript.PayToAddrScript catch on their own.
// OP_RETURN outputs (Data non-nil) carry no address and no value, so they
// are exempt from both checks.
func validateOutputs(outputs []Output) error {
	seen := make(map[string]bool, len(outputs))
	var total int64
	for _, out := range outputs {
		if out.Data != nil {
			continue
		}
		if out.Amount < 0 {
			return fmt.Errorf("%w: negative amount %d", ErrInvalidAmount, out.Amount)
		}
		if seen[out.Address] {
			return fmt.Errorf("%w: %s", ErrDuplicateOutputAddress, out.Address)
		}
		seen[out.Address] = true

		newTotal := total + out.Amount
		if newTotal < total {
			return fmt.Errorf("%w: total output amount overflows", ErrInvalidAmount)
		}
		total = newTotal
	}
	return nil
}
