package rawtx

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/btc-fullnode/scriptengine"
	"github.com/TEENet-io/btc-fullnode/wireformat"
)

// DecodedTxIn mirrors decoderawtransaction's per-input JSON shape.
type DecodedTxIn struct {
	Txid         string
	Vout         uint32
	ScriptSigHex string
	ScriptSigAsm string
	Sequence     uint32
}

// DecodedTxOut mirrors decoderawtransaction's per-output JSON shape.
type DecodedTxOut struct {
	Value        int64
	N            int
	ScriptPubKey ScriptInfo
}

// DecodedTx is the tx-json result of decoderawtransaction.
type DecodedTx struct {
	Txid     string
	Version  int32
	LockTime uint32
	Vin      []DecodedTxIn
	Vout     []DecodedTxOut
}

// ScriptInfo is decodescript / a decoded output's script-json shape.
type ScriptInfo struct {
	Asm       string
	Hex       string
	Type      string
	ReqSigs   int
	Addresses []string
	P2SH      string
}

// Decode parses hex into the wire transaction it encodes.
func Decode(hex string) (*wire.MsgTx, error) {
	return wireformat.DecodeHex(hex)
}

// DecodeVerbose parses hex and renders it as the tx-json decoderawtransaction
// returns.
func DecodeVerbose(hex string, params *chaincfg.Params) (*DecodedTx, error) {
	tx, err := Decode(hex)
	if err != nil {
		return nil, err
	}
	return toDecodedTx(tx, params), nil
}

func toDecodedTx(tx *wire.MsgTx, params *chaincfg.Params) *DecodedTx {
	out := &DecodedTx{
		Txid:     wireformat.DisplayHash(wireformat.TxID(tx)),
		Version:  tx.Version,
		LockTime: tx.LockTime,
	}
	for _, in := range tx.TxIn {
		asm, _ := scriptengine.Disassemble(in.SignatureScript)
		out.Vin = append(out.Vin, DecodedTxIn{
			Txid:         wireformat.DisplayHash(in.PreviousOutPoint.Hash),
			Vout:         in.PreviousOutPoint.Index,
			ScriptSigHex: wireformat.ToHex(in.SignatureScript),
			ScriptSigAsm: asm,
			Sequence:     in.Sequence,
		})
	}
	for i, txOut := range tx.TxOut {
		out.Vout = append(out.Vout, DecodedTxOut{
			Value:        txOut.Value,
			N:            i,
			ScriptPubKey: DecodeScript(txOut.PkScript, params),
		})
	}
	return out
}

// DecodeScript classifies pkScript the way decodescript does: an empty
// script decodes as a well-formed, "nonstandard" object rather than an
// error (spec.md §8 boundary case).
func DecodeScript(pkScript []byte, params *chaincfg.Params) ScriptInfo {
	asm, _ := scriptengine.Disassemble(pkScript)
	info := ScriptInfo{
		Asm: asm,
		Hex: wireformat.ToHex(pkScript),
	}
	if len(pkScript) == 0 {
		info.Type = "nonstandard"
		return info
	}

	class, addrs, reqSigs, err := scriptengine.ExtractAddresses(pkScript, params)
	info.Type = scriptClassName(class)
	if err == nil {
		info.Addresses = addrs
		info.ReqSigs = reqSigs
	}

	if scriptengine.IsPayToScriptHash(pkScript) {
		return info
	}
	// decodescript's "p2sh" field is the P2SH address this exact script
	// would have if used as a redeem script — not the script's own
	// destination, which is only meaningful when it isn't already P2SH.
	if p2shAddr, err := btcutilScriptHashAddress(pkScript, params); err == nil {
		info.P2SH = p2shAddr
	}
	return info
}

func scriptClassName(class txscript.ScriptClass) string {
	switch class {
	case txscript.NonStandardTy:
		return "nonstandard"
	case txscript.PubKeyTy:
		return "pubkey"
	case txscript.PubKeyHashTy:
		return "pubkeyhash"
	case txscript.ScriptHashTy:
		return "scripthash"
	case txscript.MultiSigTy:
		return "multisig"
	case txscript.NullDataTy:
		return "nulldata"
	default:
		return "nonstandard"
	}
}
