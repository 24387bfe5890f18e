package scriptengine

import (
	"errors"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/btc-fullnode/keystore"
)

// SignErrorCode enumerates why sign_input could not fully sign an input.
type SignErrorCode int

const (
	SignErrOK SignErrorCode = iota
	SignErrKeyNotFound
	SignErrScriptNotFound
	SignErrUnsupportedScript
)

// SignError is returned by SignInput when the input could not be (fully)
// signed; the caller (rawtx.Sign) collects these per-input rather than
// failing the whole RPC, per spec.md §7.
type SignError struct {
	Code SignErrorCode
	Err  error
}

func (e *SignError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return "sign error"
}

func (e *SignError) Unwrap() error { return e.Err }

// SignInput produces a scriptSig for tx.TxIn[inputIndex] that spends
// prevScriptPubKey, using keys/scripts resolved from ks. It never mutates
// tx.TxIn[inputIndex].SignatureScript directly; the caller installs the
// result.
//
// SINGLE with no matching output at inputIndex is not rejected here:
// txscript.RawTxInSignature reproduces the historical constant-1 sighash
// digest for that case, and the resulting signature verifies against it.
// A caller wanting the pre-signing skip that signrawtransaction's C++
// counterpart applies (never attempt to sign such an input at all)
// decides that itself before calling SignInput.
func SignInput(ks keystore.KeyStore, prevScriptPubKey []byte, tx *wire.MsgTx, inputIndex int, hashType SigHashType) ([]byte, *SignError) {
	if inputIndex < 0 || inputIndex >= len(tx.TxIn) {
		return nil, &SignError{Code: SignErrUnsupportedScript, Err: errInputIndexRange}
	}

	class := txscript.GetScriptClass(prevScriptPubKey)
	switch class {
	case txscript.ScriptHashTy:
		hash160 := extractHash160(prevScriptPubKey)
		redeem, ok := ks.GetScript(hash160)
		if !ok {
			return nil, &SignError{Code: SignErrScriptNotFound, Err: errRedeemScriptNotFound}
		}
		inner, serr := signScript(ks, redeem, tx, inputIndex, hashType)
		if serr != nil {
			return nil, serr
		}
		builder := txscript.NewScriptBuilder()
		for _, elem := range inner {
			builder.AddData(elem)
		}
		builder.AddData(redeem)
		script, err := builder.Script()
		if err != nil {
			return nil, &SignError{Code: SignErrUnsupportedScript, Err: err}
		}
		return script, nil
	default:
		elems, serr := signScript(ks, prevScriptPubKey, tx, inputIndex, hashType)
		if serr != nil {
			return nil, serr
		}
		builder := txscript.NewScriptBuilder()
		for _, elem := range elems {
			if elem == nil {
				builder.AddOp(txscript.OP_0)
				continue
			}
			builder.AddData(elem)
		}
		script, err := builder.Script()
		if err != nil {
			return nil, &SignError{Code: SignErrUnsupportedScript, Err: err}
		}
		return script, nil
	}
}

// signScript returns the ordered list of stack elements a script (a
// non-P2SH pkScript, or a P2SH redeem script) needs pushed ahead of it,
// resolving whichever keys ks can supply.
func signScript(ks keystore.KeyStore, script []byte, tx *wire.MsgTx, inputIndex int, hashType SigHashType) ([][]byte, *SignError) {
	switch txscript.GetScriptClass(script) {
	case txscript.PubKeyHashTy:
		hash160 := extractHash160(script)
		key, ok := ks.GetKey(hash160)
		if !ok {
			return nil, &SignError{Code: SignErrKeyNotFound, Err: errKeyNotFound}
		}
		sig, err := txscript.RawTxInSignature(tx, inputIndex, script, hashType, key)
		if err != nil {
			return nil, &SignError{Code: SignErrUnsupportedScript, Err: err}
		}
		return [][]byte{sig, key.PubKey().SerializeCompressed()}, nil

	case txscript.PubKeyTy:
		pub := extractSoleDataPush(script)
		hash160 := btcutil.Hash160(pub)
		key, ok := ks.GetKey(hash160)
		if !ok {
			return nil, &SignError{Code: SignErrKeyNotFound, Err: errKeyNotFound}
		}
		sig, err := txscript.RawTxInSignature(tx, inputIndex, script, hashType, key)
		if err != nil {
			return nil, &SignError{Code: SignErrUnsupportedScript, Err: err}
		}
		return [][]byte{sig}, nil

	case txscript.MultiSigTy:
		required, pubkeys, err := extractMultisig(script)
		if err != nil {
			return nil, &SignError{Code: SignErrUnsupportedScript, Err: err}
		}
		sigs := make([][]byte, 0, required)
		for _, pub := range pubkeys {
			if len(sigs) >= required {
				break
			}
			key, ok := ks.GetKey(btcutil.Hash160(pub))
			if !ok {
				continue
			}
			sig, err := txscript.RawTxInSignature(tx, inputIndex, script, hashType, key)
			if err != nil {
				continue
			}
			sigs = append(sigs, sig)
		}
		// OP_CHECKMULTISIG's off-by-one bug consumes an extra stack
		// element; a leading nil (OP_0) is the conventional dummy.
		elems := append([][]byte{nil}, sigs...)
		return elems, nil

	default:
		return nil, &SignError{Code: SignErrUnsupportedScript, Err: errUnsupportedScript}
	}
}

// Combine deterministically merges two partial signature scripts that
// each may satisfy only a subset of a script's requirements — the
// scenario spec.md §4.B calls out for offline multisig co-signing.
func Combine(prevScriptPubKey []byte, tx *wire.MsgTx, inputIndex int, sigA, sigB []byte, inputAmount int64) []byte {
	if len(sigA) == 0 {
		return sigB
	}
	if len(sigB) == 0 {
		return sigA
	}

	if txscript.IsPayToScriptHash(prevScriptPubKey) {
		redeemA := lastPush(sigA)
		redeemB := lastPush(sigB)
		redeem := redeemA
		if redeem == nil {
			redeem = redeemB
		}
		if redeem == nil {
			return chooseBetter(prevScriptPubKey, tx, inputIndex, sigA, sigB, inputAmount)
		}
		sigsA := allPushesExceptLast(sigA)
		sigsB := allPushesExceptLast(sigB)
		merged := mergeMultisigSigs(redeem, tx, inputIndex, append(sigsA, sigsB...))

		builder := txscript.NewScriptBuilder()
		builder.AddOp(txscript.OP_0)
		for _, s := range merged {
			builder.AddData(s)
		}
		builder.AddData(redeem)
		script, err := builder.Script()
		if err != nil {
			return chooseBetter(prevScriptPubKey, tx, inputIndex, sigA, sigB, inputAmount)
		}
		return script
	}

	if txscript.GetScriptClass(prevScriptPubKey) == txscript.MultiSigTy {
		sigsA := allPushes(sigA)
		sigsB := allPushes(sigB)
		merged := mergeMultisigSigs(prevScriptPubKey, tx, inputIndex, append(sigsA, sigsB...))
		builder := txscript.NewScriptBuilder()
		builder.AddOp(txscript.OP_0)
		for _, s := range merged {
			builder.AddData(s)
		}
		script, err := builder.Script()
		if err != nil {
			return chooseBetter(prevScriptPubKey, tx, inputIndex, sigA, sigB, inputAmount)
		}
		return script
	}

	return chooseBetter(prevScriptPubKey, tx, inputIndex, sigA, sigB, inputAmount)
}

// chooseBetter falls back to whichever candidate actually verifies,
// preferring sigA on a tie; used for script types with no meaningful
// element-wise merge (P2PKH, P2PK, bare unsupported templates).
func chooseBetter(prevScriptPubKey []byte, tx *wire.MsgTx, inputIndex int, sigA, sigB []byte, inputAmount int64) []byte {
	if Verify(sigA, prevScriptPubKey, tx, inputIndex, StandardFlags, inputAmount) == nil {
		return sigA
	}
	if Verify(sigB, prevScriptPubKey, tx, inputIndex, StandardFlags, inputAmount) == nil {
		return sigB
	}
	if len(sigA) >= len(sigB) {
		return sigA
	}
	return sigB
}

// mergeMultisigSigs matches each candidate signature to the pubkey slot
// it validates against, then returns the matched signatures in pubkey
// order, capped at the script's required count — mirroring Bitcoin
// Core's CombineSignatures for multisig redeem scripts.
func mergeMultisigSigs(multisigScript []byte, tx *wire.MsgTx, inputIndex int, candidates [][]byte) [][]byte {
	required, pubkeys, err := extractMultisig(multisigScript)
	if err != nil {
		return dedupe(candidates)
	}
	matched := make([][]byte, 0, required)
	used := make(map[string]bool)
	for _, pub := range pubkeys {
		if len(matched) >= required {
			break
		}
		key, err := btcec.ParsePubKey(pub)
		if err != nil {
			continue
		}
		for _, sig := range candidates {
			if len(sig) == 0 || used[string(sig)] {
				continue
			}
			if verifyRawSig(key, sig, multisigScript, tx, inputIndex) {
				matched = append(matched, sig)
				used[string(sig)] = true
				break
			}
		}
	}
	return matched
}

func verifyRawSig(pub *btcec.PublicKey, sigWithHashType []byte, subScript []byte, tx *wire.MsgTx, inputIndex int) bool {
	if len(sigWithHashType) < 2 {
		return false
	}
	hashType := SigHashType(sigWithHashType[len(sigWithHashType)-1])
	sigDER := sigWithHashType[:len(sigWithHashType)-1]
	sig, err := ecdsa.ParseDERSignature(sigDER)
	if err != nil {
		return false
	}
	hash, err := txscript.CalcSignatureHash(subScript, hashType, tx, inputIndex)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pub)
}

func extractHash160(script []byte) []byte {
	pushes := allPushes(script)
	for _, p := range pushes {
		if len(p) == 20 {
			return p
		}
	}
	return nil
}

func extractSoleDataPush(script []byte) []byte {
	pushes := allPushes(script)
	if len(pushes) == 0 {
		return nil
	}
	return pushes[0]
}

func extractMultisig(script []byte) (required int, pubkeys [][]byte, err error) {
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	var ops []byte
	var data [][]byte
	for tokenizer.Next() {
		ops = append(ops, byte(tokenizer.Opcode()))
		data = append(data, tokenizer.Data())
	}
	if err := tokenizer.Err(); err != nil {
		return 0, nil, err
	}
	if len(ops) < 4 {
		return 0, nil, errUnsupportedScript
	}
	required = int(ops[0]) - (txscript.OP_1 - 1)
	for i := 1; i < len(ops)-2; i++ {
		if data[i] != nil {
			pubkeys = append(pubkeys, data[i])
		}
	}
	if required <= 0 || required > len(pubkeys) {
		return 0, nil, errUnsupportedScript
	}
	return required, pubkeys, nil
}

func allPushes(script []byte) [][]byte {
	var out [][]byte
	tokenizer := txscript.MakeScriptTokenizer(0, script)
	for tokenizer.Next() {
		if d := tokenizer.Data(); d != nil {
			out = append(out, d)
		}
	}
	return out
}

func allPushesExceptLast(script []byte) [][]byte {
	all := allPushes(script)
	if len(all) == 0 {
		return nil
	}
	return all[:len(all)-1]
}

func lastPush(script []byte) []byte {
	all := allPushes(script)
	if len(all) == 0 {
		return nil
	}
	return all[len(all)-1]
}

func dedupe(in [][]byte) [][]byte {
	seen := make(map[string]bool)
	var out [][]byte
	for _, b := range in {
		if b == nil || seen[string(b)] {
			continue
		}
		seen[string(b)] = true
		out = append(out, b)
	}
	return out
}

var (
	errKeyNotFound          = errors.New("scriptengine: no private key for this output")
	errRedeemScriptNotFound = errors.New("scriptengine: no redeem script for this P2SH output")
	errUnsupportedScript    = errors.New("scriptengine: unsupported script template")
)
