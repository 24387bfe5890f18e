package collab

import (
	"errors"
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
)

// MemChainStore is an in-memory ChainStore, useful for tests and for a
// standalone node instance before any real block-file-backed store is
// wired in.
type MemChainStore struct {
	mu       sync.RWMutex
	blocks   map[chainhash.Hash]*wire.MsgBlock
	height   map[chainhash.Hash]int32
	byHeight map[int32]chainhash.Hash
	tip      int32
}

// NewMemChainStore returns an empty in-memory chain store.
func NewMemChainStore() *MemChainStore {
	return &MemChainStore{
		blocks:   make(map[chainhash.Hash]*wire.MsgBlock),
		height:   make(map[chainhash.Hash]int32),
		byHeight: make(map[int32]chainhash.Hash),
	}
}

// AddBlock records block at height, extending the active chain tip if
// height is the highest seen so far.
func (s *MemChainStore) AddBlock(block *wire.MsgBlock, height int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := block.BlockHash()
	s.blocks[h] = block
	s.height[h] = height
	s.byHeight[height] = h
	if height > s.tip {
		s.tip = height
	}
}

func (s *MemChainStore) BlockIndexAtHeight(height int32) (BlockIndex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byHeight[height]
	if !ok {
		return BlockIndex{}, false
	}
	return BlockIndex{Hash: h, Height: height}, true
}

func (s *MemChainStore) ReadBlock(index BlockIndex) (*wire.MsgBlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blocks[index.Hash]
	if !ok {
		return nil, errors.New("collab: block not found")
	}
	return b, nil
}

func (s *MemChainStore) ActiveHeight() int32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tip
}

func (s *MemChainStore) ContainsInActiveChain(index BlockIndex) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.height[index.Hash]
	return ok && h == index.Height
}

func (s *MemChainStore) BlockIndexFor(hash chainhash.Hash) (BlockIndex, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.height[hash]
	if !ok {
		return BlockIndex{}, false
	}
	return BlockIndex{Hash: hash, Height: h}, true
}

// NullNetwork discards relay requests; it is the default until a real P2P
// layer is wired in, and is what unit tests use to avoid a live network.
type NullNetwork struct{}

func (NullNetwork) Relay(chainhash.Hash) {}

// StaticPolicy is a Policy backed by fixed configuration values, the way
// a node's config file would supply them.
type StaticPolicy struct {
	Flags      txscript.ScriptFlags
	MinFeeRate int64
}

func (p StaticPolicy) StandardScriptVerifyFlags() txscript.ScriptFlags { return p.Flags }
func (p StaticPolicy) MinRelayFeeRate() int64                          { return p.MinFeeRate }
