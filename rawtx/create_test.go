package rawtx

import (
	"math"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/btc-fullnode/wireformat"
)

func testAddress(t *testing.T, seed byte) string {
	t.Helper()
	hash160 := make([]byte, 20)
	hash160[0] = seed
	addr, err := btcutil.NewAddressPubKeyHash(hash160, &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	return addr.EncodeAddress()
}

func TestCreateRoundTripEmptyOutputTransaction(t *testing.T) {
	inputs := []Input{{Txid: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Vout: 0}}
	outputs := []Output{{Data: []byte{0x00, 0x01, 0x02, 0x03}}}

	tx, err := Create(inputs, outputs, 0, &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	hex, err := wireformat.EncodeHex(tx)
	require.NoError(t, err)

	decoded, err := Decode(hex)
	require.NoError(t, err)

	require.Len(t, decoded.TxIn, 1)
	require.Equal(t, uint32(0xFFFFFFFF), decoded.TxIn[0].Sequence)
	require.Len(t, decoded.TxOut, 1)
	require.Equal(t, int64(0), decoded.TxOut[0].Value)
	require.Equal(t, uint32(0), decoded.LockTime)
	require.Equal(t, int32(1), decoded.Version)

	wantScript, err := txscript.NullDataScript([]byte{0x00, 0x01, 0x02, 0x03})
	require.NoError(t, err)
	require.Equal(t, wantScript, decoded.TxOut[0].PkScript)
}

func TestCreateLocktimeActivatesSequence(t *testing.T) {
	inputs := []Input{{Txid: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Vout: 0}}
	outputs := []Output{{Data: []byte{0x00, 0x01, 0x02, 0x03}}}

	tx, err := Create(inputs, outputs, 500, &chaincfg.RegressionNetParams)
	require.NoError(t, err)

	hex, err := wireformat.EncodeHex(tx)
	require.NoError(t, err)
	decoded, err := Decode(hex)
	require.NoError(t, err)

	require.Equal(t, uint32(0xFFFFFFFE), decoded.TxIn[0].Sequence)
	require.Equal(t, uint32(500), decoded.LockTime)
}

func TestCreateRejectsDuplicateDestinationAddress(t *testing.T) {
	addr := testAddress(t, 0x01)
	inputs := []Input{{Txid: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Vout: 0}}
	outputs := []Output{
		{Address: addr, Amount: 1000},
		{Address: addr, Amount: 2000},
	}

	_, err := Create(inputs, outputs, 0, &chaincfg.RegressionNetParams)
	require.ErrorIs(t, err, ErrDuplicateOutputAddress)
}

func TestCreateRejectsNegativeAmount(t *testing.T) {
	inputs := []Input{{Txid: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Vout: 0}}
	outputs := []Output{{Address: testAddress(t, 0x02), Amount: -1}}

	_, err := Create(inputs, outputs, 0, &chaincfg.RegressionNetParams)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestCreateRejectsOverflowingTotalAmount(t *testing.T) {
	inputs := []Input{{Txid: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Vout: 0}}
	outputs := []Output{
		{Address: testAddress(t, 0x03), Amount: math.MaxInt64},
		{Address: testAddress(t, 0x04), Amount: math.MaxInt64},
	}

	_, err := Create(inputs, outputs, 0, &chaincfg.RegressionNetParams)
	require.ErrorIs(t, err, ErrInvalidAmount)
}

func TestDecodeScriptEmptyIsNonstandard(t *testing.T) {
	info := DecodeScript(nil, &chaincfg.RegressionNetParams)
	require.Equal(t, "nonstandard", info.Type)
}
