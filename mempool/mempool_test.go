package mempool

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
)

type fixedPolicy struct {
	minFeeRate int64
}

func (p fixedPolicy) StandardScriptVerifyFlags() txscript.ScriptFlags { return scriptengine.StandardFlags }
func (p fixedPolicy) MinRelayFeeRate() int64                          { return p.minFeeRate }

type memStore struct {
	coins map[wire.OutPoint]*utxocache.Coin
}

func newMemStore() *memStore { return &memStore{coins: make(map[wire.OutPoint]*utxocache.Coin)} }

func (s *memStore) AccessCoin(op wire.OutPoint) (*utxocache.Coin, bool) {
	c, ok := s.coins[op]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}
func (s *memStore) PutCoin(op wire.OutPoint, c *utxocache.Coin) error {
	s.coins[op] = c.Clone()
	return nil
}
func (s *memStore) DeleteCoin(op wire.OutPoint) error {
	delete(s.coins, op)
	return nil
}

func fundedP2PKHTx(t *testing.T) (*wire.MsgTx, wire.OutPoint, []byte, *btcec.PrivateKey) {
	t.Helper()
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubHash, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	prevHash, _ := chainhash.NewHashFromStr("cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc")
	prevOut := *wire.NewOutPoint(prevHash, 0)

	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(&prevOut, nil, nil))
	tx.AddTxOut(wire.NewTxOut(90000, pkScript))

	sig, serr := scriptengine.SignInput(keystoreWith(priv), pkScript, tx, 0, scriptengine.SigHashAll)
	require.Nil(t, serr)
	tx.TxIn[0].SignatureScript = sig

	return tx, prevOut, pkScript, priv
}

func keystoreWith(priv *btcec.PrivateKey) *keystore.Transient {
	ks := keystore.NewTransient()
	ks.AddKey(priv)
	return ks
}

func TestAcceptValidTransaction(t *testing.T) {
	tx, prevOut, pkScript, _ := fundedP2PKHTx(t)

	store := newMemStore()
	require.NoError(t, store.PutCoin(prevOut, &utxocache.Coin{Value: 100000, PkScript: pkScript}))
	view := utxocache.NewLayer(store)

	mp := New(fixedPolicy{minFeeRate: 0})
	txid, rej := mp.Accept(tx, view, false, 1000, 1000)
	require.Nil(t, rej)
	require.True(t, mp.Exists(txid))
}

func TestAcceptRejectsMissingInput(t *testing.T) {
	tx, _, _, _ := fundedP2PKHTx(t)

	store := newMemStore()
	view := utxocache.NewLayer(store)

	mp := New(fixedPolicy{minFeeRate: 0})
	_, rej := mp.Accept(tx, view, false, 1000, 1000)
	require.NotNil(t, rej)
	require.Equal(t, RejectMissingInputs, rej.Code)
}

func TestAcceptRejectsCoinbase(t *testing.T) {
	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 0xFFFFFFFF), []byte{0x01}, nil))
	tx.AddTxOut(wire.NewTxOut(5000000000, []byte{0x51}))

	store := newMemStore()
	view := utxocache.NewLayer(store)
	mp := New(fixedPolicy{minFeeRate: 0})
	_, rej := mp.Accept(tx, view, false, 1000, 1000)
	require.NotNil(t, rej)
	require.Equal(t, RejectCoinbase, rej.Code)
}

func TestAcceptRejectsDuplicateSubmission(t *testing.T) {
	tx, prevOut, pkScript, _ := fundedP2PKHTx(t)
	store := newMemStore()
	require.NoError(t, store.PutCoin(prevOut, &utxocache.Coin{Value: 100000, PkScript: pkScript}))
	view := utxocache.NewLayer(store)

	mp := New(fixedPolicy{minFeeRate: 0})
	_, rej := mp.Accept(tx, view, false, 1000, 1000)
	require.Nil(t, rej)

	view2 := utxocache.NewLayer(store)
	_, rej2 := mp.Accept(tx, view2, false, 1001, 1000)
	require.NotNil(t, rej2)
	require.Equal(t, RejectDuplicate, rej2.Code)
}

func TestAcceptRejectsLowFeeUnlessAllowHighFeesOverride(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubHash, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	prevHash, _ := chainhash.NewHashFromStr("dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd")
	prevOut := *wire.NewOutPoint(prevHash, 0)

	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(&prevOut, nil, nil))
	tx.AddTxOut(wire.NewTxOut(99999, pkScript)) // fee = 1 satoshi total, far below any real floor

	sig, serr := scriptengine.SignInput(keystoreWith(priv), pkScript, tx, 0, scriptengine.SigHashAll)
	require.Nil(t, serr)
	tx.TxIn[0].SignatureScript = sig

	store := newMemStore()
	require.NoError(t, store.PutCoin(prevOut, &utxocache.Coin{Value: 100000, PkScript: pkScript}))

	mp := New(fixedPolicy{minFeeRate: 1000})
	view := utxocache.NewLayer(store)
	_, rej := mp.Accept(tx, view, false, 1000, 1000)
	require.NotNil(t, rej)
	require.Equal(t, RejectInsufficientFee, rej.Code)

	view2 := utxocache.NewLayer(store)
	_, rej2 := mp.Accept(tx, view2, true, 1000, 1000)
	require.Nil(t, rej2)
}

func TestAcceptRejectsCoinbaseSpendBeforeMaturity(t *testing.T) {
	priv, err := btcec.NewPrivateKey()
	require.NoError(t, err)
	pubHash := btcutil.Hash160(priv.PubKey().SerializeCompressed())
	addr, err := btcutil.NewAddressPubKeyHash(pubHash, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	pkScript, err := txscript.PayToAddrScript(addr)
	require.NoError(t, err)

	prevHash, _ := chainhash.NewHashFromStr("eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee")
	prevOut := *wire.NewOutPoint(prevHash, 0)

	coin := &utxocache.Coin{Value: 100000, PkScript: pkScript, IsCoinbase: true, Height: 100}
	require.False(t, coin.MatureAt(150))
	require.True(t, coin.MatureAt(200))

	tx := wire.NewMsgTx(1)
	tx.AddTxIn(wire.NewTxIn(&prevOut, nil, nil))
	tx.AddTxOut(wire.NewTxOut(90000, pkScript))
	sig, serr := scriptengine.SignInput(keystoreWith(priv), pkScript, tx, 0, scriptengine.SigHashAll)
	require.Nil(t, serr)
	tx.TxIn[0].SignatureScript = sig

	store := newMemStore()
	require.NoError(t, store.PutCoin(prevOut, coin))
	mp := New(fixedPolicy{minFeeRate: 0})

	_, rej := mp.Accept(tx, utxocache.NewLayer(store), false, 1000, 150)
	require.NotNil(t, rej)
	require.Equal(t, RejectPrematureSpend, rej.Code)

	_, rej = mp.Accept(tx, utxocache.NewLayer(store), false, 1000, 200)
	require.Nil(t, rej)
}
