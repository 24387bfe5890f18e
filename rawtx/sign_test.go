package rawtx

import (
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/btc-fullnode/keystore"
	"github.com/TEENet-io/btc-fullnode/scriptengine"
	"github.com/TEENet-io/btc-fullnode/utxocache"
	"github.com/TEENet-io/btc-fullnode/wireformat"
)

type emptyView struct{}

func (emptyView) AccessCoin(utxocache.OutPoint) (*utxocache.Coin, bool) { return nil, false }

func unsignedSpend(t *testing.T, pkScript []byte, prevTxidHex string) *wire.MsgTx {
	t.Helper()
	hash, err := chainhash.NewHashFromStr(prevTxidHex)
	require.NoError(t, err)
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(90000, pkScript))
	return tx
}

func TestSignCompletesWhenKeySupplied(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubHash, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	prevTxidHex := "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	tx := unsignedSpend(t, pkScript, prevTxidHex)
	txHex, err := wireformat.EncodeHex(tx)
	require.NoError(t, err)

	ks := keystore.NewTransient()
	ks.AddKey(priv)

	hints := []PrevTxHint{{Txid: prevTxidHex, Vout: 0, ScriptPubKey: pkScript, Amount: 100000}}
	result, err := Sign(txHex, hints, ks, scriptengine.SigHashAll, emptyView{})
	require.NoError(t, err)
	require.True(t, result.Complete)
	require.Empty(t, result.Errors)

	signedTx, err := Decode(result.Hex)
	require.NoError(t, err)
	verr := scriptengine.Verify(signedTx.TxIn[0].SignatureScript, pkScript, signedTx, 0, scriptengine.StandardFlags, 100000)
	require.Nil(t, verr)
}

func TestSignPartialThenCombineToComplete(t *testing.T) {
	privs := make([]*btcec.PrivateKey, 3)
	pubKeys := make([]*btcutil.AddressPubKey, 3)
	for i := range privs {
		p, err := btcec.NewPrivateKey()
		require.NoError(t, err)
		privs[i] = p
		addrPub, err := btcutil.NewAddressPubKey(p.PubKey().SerializeCompressed(), &chaincfg.RegressionNetParams)
		require.NoError(t, err)
		pubKeys[i] = addrPub
	}
	pkScript, err := txscript.MultiSigScript(pubKeys, 2)
	require.NoError(t, err)

	prevTxidHex := "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"
	tx := unsignedSpend(t, pkScript, prevTxidHex)
	txHex, err := wireformat.EncodeHex(tx)
	require.NoError(t, err)

	hints := []PrevTxHint{{Txid: prevTxidHex, Vout: 0, ScriptPubKey: pkScript, Amount: 100000}}

	ks1 := keystore.NewTransient()
	ks1.AddKey(privs[0])
	first, err := Sign(txHex, hints, ks1, scriptengine.SigHashAll, emptyView{})
	require.NoError(t, err)
	require.False(t, first.Complete)

	ks2 := keystore.NewTransient()
	ks2.AddKey(privs[1])
	second, err := Sign(first.Hex, hints, ks2, scriptengine.SigHashAll, emptyView{})
	require.NoError(t, err)
	require.True(t, second.Complete)
	require.Empty(t, second.Errors)

	signedTx, err := Decode(second.Hex)
	require.NoError(t, err)
	verr := scriptengine.Verify(signedTx.TxIn[0].SignatureScript, pkScript, signedTx, 0, scriptengine.StandardFlags, 100000)
	require.Nil(t, verr)
}

// TestSignMultiVariantHexCombinesToComplete follows the literal scenario
// spec.md §8 describes: two independent signrawtransaction invocations
// each holding one key produce hexes that, concatenated into a single
// hex argument and passed to a third signrawtransaction call, combine to
// complete: true — the multi-variant decode path Sign shares with
// rpcrawtransaction.cpp's signrawtransaction.
func TestSignMultiVariantHexCombinesToComplete(t *testing.T) {
	privs := make([]*btcec.PrivateKey, 3)
	pubKeys := make([]*btcutil.AddressPubKey, 3)
	for i := range privs {
		p, err := btcec.NewPrivateKey()
		require.NoError(t, err)
		privs[i] = p
		addrPub, err := btcutil.NewAddressPubKey(p.PubKey().SerializeCompressed(), &chaincfg.RegressionNetParams)
		require.NoError(t, err)
		pubKeys[i] = addrPub
	}
	pkScript, err := txscript.MultiSigScript(pubKeys, 2)
	require.NoError(t, err)

	prevTxidHex := "dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd"
	tx := unsignedSpend(t, pkScript, prevTxidHex)
	txHex, err := wireformat.EncodeHex(tx)
	require.NoError(t, err)

	hints := []PrevTxHint{{Txid: prevTxidHex, Vout: 0, ScriptPubKey: pkScript, Amount: 100000}}

	ks1 := keystore.NewTransient()
	ks1.AddKey(privs[0])
	first, err := Sign(txHex, hints, ks1, scriptengine.SigHashAll, emptyView{})
	require.NoError(t, err)
	require.False(t, first.Complete)

	ks2 := keystore.NewTransient()
	ks2.AddKey(privs[1])
	second, err := Sign(txHex, hints, ks2, scriptengine.SigHashAll, emptyView{})
	require.NoError(t, err)
	require.False(t, second.Complete)

	firstBytes, err := wireformat.FromHex(first.Hex)
	require.NoError(t, err)
	secondBytes, err := wireformat.FromHex(second.Hex)
	require.NoError(t, err)
	combinedHex := wireformat.ToHex(append(firstBytes, secondBytes...))

	ks3 := keystore.NewTransient()
	combined, err := Sign(combinedHex, hints, ks3, scriptengine.SigHashAll, emptyView{})
	require.NoError(t, err)
	require.True(t, combined.Complete)
	require.Empty(t, combined.Errors)

	signedTx, err := Decode(combined.Hex)
	require.NoError(t, err)
	verr := scriptengine.Verify(signedTx.TxIn[0].SignatureScript, pkScript, signedTx, 0, scriptengine.StandardFlags, 100000)
	require.Nil(t, verr)
}
