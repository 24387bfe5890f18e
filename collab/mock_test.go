package collab

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func TestMemChainStoreTracksActiveChain(t *testing.T) {
	store := NewMemChainStore()
	block := wire.NewMsgBlock(&wire.BlockHeader{})
	store.AddBlock(block, 42)

	idx, ok := store.BlockIndexFor(block.BlockHash())
	require.True(t, ok)
	require.Equal(t, int32(42), idx.Height)
	require.True(t, store.ContainsInActiveChain(idx))
	require.Equal(t, int32(42), store.ActiveHeight())

	got, err := store.ReadBlock(idx)
	require.NoError(t, err)
	require.Equal(t, block.BlockHash(), got.BlockHash())
}
