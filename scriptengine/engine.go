package scriptengine

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// SigHashType mirrors spec.md §4.B's bit layout exactly; it is the same
// type txscript uses so the values are interchangeable with the library.
type SigHashType = txscript.SigHashType

const (
	SigHashAll          = txscript.SigHashAll
	SigHashNone         = txscript.SigHashNone
	SigHashSingle       = txscript.SigHashSingle
	SigHashAnyOneCanPay = txscript.SigHashAnyOneCanPay
)

// StandardFlags are the flags mempool admission and RPC signing verify
// against; they correspond to Policy.StandardScriptVerifyFlags (§6).
var StandardFlags = txscript.StandardVerifyFlags

// Verify evaluates scriptSig against scriptPubKey for input inputIndex of
// tx, returning nil on success or a *ScriptError classifying the failure.
// inputAmount is required by the modern sighash algorithms txscript
// supports; callers that only need legacy verification may pass 0.
func Verify(scriptSig, scriptPubKey []byte, tx *wire.MsgTx, inputIndex int, flags txscript.ScriptFlags, inputAmount int64) *ScriptError {
	if inputIndex < 0 || inputIndex >= len(tx.TxIn) {
		return newScriptError(ErrEvalFalse, errInputIndexRange)
	}
	orig := tx.TxIn[inputIndex].SignatureScript
	tx.TxIn[inputIndex].SignatureScript = scriptSig
	defer func() { tx.TxIn[inputIndex].SignatureScript = orig }()

	engine, err := txscript.NewEngine(scriptPubKey, tx, inputIndex, flags, nil, nil, inputAmount, txscript.NewCannedPrevOutputFetcher(scriptPubKey, inputAmount))
	if err != nil {
		return classify(err)
	}
	if err := engine.Execute(); err != nil {
		return classify(err)
	}
	return nil
}

// IsPayToScriptHash reports whether pkScript matches the canonical P2SH
// template OP_HASH160 <20-byte hash> OP_EQUAL.
func IsPayToScriptHash(pkScript []byte) bool {
	return txscript.IsPayToScriptHash(pkScript)
}

// ScriptClass classifies pkScript the way decodescript/decoderawtransaction
// need to (pubkeyhash, scripthash, multisig, pubkey, nonstandard, ...).
func ScriptClass(pkScript []byte) txscript.ScriptClass {
	return txscript.GetScriptClass(pkScript)
}

// ExtractAddresses returns the required-signature count and the set of
// destination addresses a script commits to, for the decode RPCs.
func ExtractAddresses(pkScript []byte, params *chaincfg.Params) (txscript.ScriptClass, []string, int, error) {
	class, addrs, reqSigs, err := txscript.ExtractPkScriptAddrs(pkScript, params)
	if err != nil {
		return class, nil, 0, err
	}
	out := make([]string, len(addrs))
	for i, a := range addrs {
		out[i] = a.EncodeAddress()
	}
	return class, out, reqSigs, nil
}

// Disassemble renders script as a human-readable opcode listing.
func Disassemble(script []byte) (string, error) {
	return txscript.DisasmString(script)
}
