package wireformat

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func sampleTx() *Transaction {
	tx := NewTransaction(1)
	hash, _ := chainhash.NewHashFromStr("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, 0), nil, nil))
	tx.AddTxOut(wire.NewTxOut(5000, []byte{0x76, 0xa9}))
	return tx
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tx := sampleTx()
	b, err := Encode(tx)
	require.NoError(t, err)

	decoded, err := Decode(b)
	require.NoError(t, err)
	require.Equal(t, tx.TxHash(), decoded.TxHash())

	reencoded, err := Encode(decoded)
	require.NoError(t, err)
	require.Equal(t, b, reencoded)
}

func TestHexRoundTrip(t *testing.T) {
	tx := sampleTx()
	h, err := EncodeHex(tx)
	require.NoError(t, err)
	require.Regexp(t, "^[0-9a-f]+$", h)

	decoded, err := DecodeHex(h)
	require.NoError(t, err)
	require.Equal(t, tx.TxHash(), decoded.TxHash())
}

func TestFromHexRejectsOddLength(t *testing.T) {
	_, err := FromHex("abc")
	require.ErrorIs(t, err, ErrDecodeFailed)
}

func TestFromHexRejectsNonHex(t *testing.T) {
	_, err := FromHex("zz")
	require.ErrorIs(t, err, ErrDecodeFailed)
}

func TestDecodeRejectsOversize(t *testing.T) {
	oversized := make([]byte, MaxTxSize+1)
	_, err := Decode(oversized)
	require.ErrorIs(t, err, ErrDecodeFailed)
}

func TestTxIDIsDoubleSHA256OfEncoding(t *testing.T) {
	tx := sampleTx()
	b, err := Encode(tx)
	require.NoError(t, err)
	want := chainhash.DoubleHashH(b)
	require.Equal(t, want, TxID(tx))
}

func TestDecodeVariantsSingleTransaction(t *testing.T) {
	tx := sampleTx()
	b, err := Encode(tx)
	require.NoError(t, err)

	variants, err := DecodeVariants(b)
	require.NoError(t, err)
	require.Len(t, variants, 1)
	require.Equal(t, tx.TxHash(), variants[0].TxHash())
}

func TestDecodeVariantsConcatenatedTransactions(t *testing.T) {
	txA := sampleTx()
	txB := NewTransaction(1)
	hash, _ := chainhash.NewHashFromStr("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	txB.AddTxIn(wire.NewTxIn(wire.NewOutPoint(hash, 1), nil, nil))
	txB.AddTxOut(wire.NewTxOut(1000, []byte{0x51}))

	a, err := Encode(txA)
	require.NoError(t, err)
	b, err := Encode(txB)
	require.NoError(t, err)

	variants, err := DecodeVariants(append(a, b...))
	require.NoError(t, err)
	require.Len(t, variants, 2)
	require.Equal(t, txA.TxHash(), variants[0].TxHash())
	require.Equal(t, txB.TxHash(), variants[1].TxHash())
}

func TestDecodeVariantsRejectsEmptyInput(t *testing.T) {
	_, err := DecodeVariants(nil)
	require.ErrorIs(t, err, ErrDecodeFailed)
}

func TestIsCoinbase(t *testing.T) {
	tx := NewTransaction(1)
	tx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 0xFFFFFFFF), nil, nil))
	require.True(t, IsCoinbase(tx))

	require.False(t, IsCoinbase(sampleTx()))
}
