package utxocache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteCoinStorePutAccessDelete(t *testing.T) {
	store, err := NewSQLiteCoinStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	op := testOutPoint(1, 3)
	coin := &Coin{Value: 12345, PkScript: []byte{0x76, 0xa9, 0x14}, Height: 200, IsCoinbase: true}
	require.NoError(t, store.PutCoin(op, coin))

	got, ok := store.AccessCoin(op)
	require.True(t, ok)
	require.Equal(t, coin.Value, got.Value)
	require.Equal(t, coin.PkScript, got.PkScript)
	require.Equal(t, coin.Height, got.Height)
	require.True(t, got.IsCoinbase)

	require.NoError(t, store.DeleteCoin(op))
	_, ok = store.AccessCoin(op)
	require.False(t, ok)
}

func TestSQLiteCoinStorePutOverwrites(t *testing.T) {
	store, err := NewSQLiteCoinStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	op := testOutPoint(2, 0)
	require.NoError(t, store.PutCoin(op, &Coin{Value: 1, PkScript: []byte{0x00}, Height: 1}))
	require.NoError(t, store.PutCoin(op, &Coin{Value: 2, PkScript: []byte{0x01}, Height: 2}))

	got, ok := store.AccessCoin(op)
	require.True(t, ok)
	require.Equal(t, int64(2), got.Value)
	require.Equal(t, int32(2), got.Height)
}

func TestSQLiteCoinStoreHeight(t *testing.T) {
	store, err := NewSQLiteCoinStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	op := testOutPoint(3, 0)
	require.NoError(t, store.PutCoin(op, &Coin{Value: 1, PkScript: []byte{0x00}, Height: 55}))

	h, ok := store.Height(op.Hash)
	require.True(t, ok)
	require.Equal(t, int32(55), h)

	_, ok = store.Height(testOutPoint(9, 0).Hash)
	require.False(t, ok)
}
