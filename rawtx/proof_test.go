package rawtx

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/TEENet-io/btc-fullnode/collab"
	"github.com/TEENet-io/btc-fullnode/merkleproof"
	"github.com/TEENet-io/btc-fullnode/utxocache"
)

func buildTestBlock(txs []*wire.MsgTx) *wire.MsgBlock {
	block := wire.NewMsgBlock(&wire.BlockHeader{})
	for _, tx := range txs {
		block.AddTransaction(tx)
	}
	return block
}

func simpleTx(data byte) *wire.MsgTx {
	tx := wire.NewMsgTx(1)
	tx.AddTxOut(wire.NewTxOut(int64(data), []byte{0x51}))
	return tx
}

func TestGetProofThenVerifyProofRoundTrip(t *testing.T) {
	txs := []*wire.MsgTx{simpleTx(1), simpleTx(2), simpleTx(3), simpleTx(4)}
	block := buildTestBlock(txs)
	chainStore := collab.NewMemChainStore()
	chainStore.AddBlock(block, 100)

	target := txs[2].TxHash()
	blockHash := block.BlockHash()

	view := emptyView{}
	proofHex, err := GetProof([]chainhash.Hash{target}, &blockHash, view, chainStore)
	require.NoError(t, err)

	matched, err := VerifyProof(proofHex)
	require.NoError(t, err)
	require.Len(t, matched, 1)
}

func TestGetProofRejectsDuplicateTxid(t *testing.T) {
	txs := []*wire.MsgTx{simpleTx(1), simpleTx(2)}
	block := buildTestBlock(txs)
	chainStore := collab.NewMemChainStore()
	chainStore.AddBlock(block, 1)
	blockHash := block.BlockHash()

	target := txs[0].TxHash()
	_, err := GetProof([]chainhash.Hash{target, target}, &blockHash, emptyView{}, chainStore)
	require.ErrorIs(t, err, ErrDuplicateTxid)
}

func TestGetProofResolvesBlockByCoinHeight(t *testing.T) {
	txs := []*wire.MsgTx{simpleTx(1), simpleTx(2), simpleTx(3)}
	block := buildTestBlock(txs)
	chainStore := collab.NewMemChainStore()
	chainStore.AddBlock(block, 42)

	target := txs[1].TxHash()
	store := map[utxocache.OutPoint]*utxocache.Coin{
		{Hash: target, Index: 0}: {Value: 1, Height: 42},
	}
	view := mapView{store}

	proofHex, err := GetProof([]chainhash.Hash{target}, nil, view, chainStore)
	require.NoError(t, err)

	matched, err := VerifyProof(proofHex)
	require.NoError(t, err)
	require.Len(t, matched, 1)
}

func TestVerifyProofReturnsEmptyOnBitFlip(t *testing.T) {
	txs := []*wire.MsgTx{simpleTx(1), simpleTx(2), simpleTx(3), simpleTx(4), simpleTx(5)}
	block := buildTestBlock(txs)
	chainStore := collab.NewMemChainStore()
	chainStore.AddBlock(block, 7)
	blockHash := block.BlockHash()

	target := txs[3].TxHash()
	proofHex, err := GetProof([]chainhash.Hash{target}, &blockHash, emptyView{}, chainStore)
	require.NoError(t, err)

	mb, err := merkleproof.DecodeHex(proofHex)
	require.NoError(t, err)
	trueRoot, trueMatched, err := merkleproof.Verify(mb)
	require.NoError(t, err)

	mb.Flags[0] ^= 0xFF
	root, matched, err := merkleproof.Verify(mb)
	if err == nil {
		require.False(t, root == trueRoot && len(matched) == len(trueMatched))
	}

	flippedHex, err := merkleproof.EncodeHex(mb)
	require.NoError(t, err)
	flippedMatched, err := VerifyProof(flippedHex)
	require.NoError(t, err)
	require.Empty(t, flippedMatched)
}

type mapView struct {
	coins map[utxocache.OutPoint]*utxocache.Coin
}

func (m mapView) AccessCoin(op utxocache.OutPoint) (*utxocache.Coin, bool) {
	c, ok := m.coins[op]
	return c, ok
}
