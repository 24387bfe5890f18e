package utxocache

import (
	"errors"
	"sync"
)

// entryState is the per-outpoint provenance a cache layer tracks, per
// spec.md §4.C: FRESH (created here, absent from parent), DIRTY (modified
// copy of a parent entry), PRUNED (deletion recorded), CLEAN (unmodified
// copy of a parent entry). freshPruned is FRESH and PRUNED at once — a
// coin created and then removed within the same layer, which vanishes on
// flush rather than propagating a delete.
type entryState int

const (
	stateClean entryState = iota
	stateFresh
	stateDirty
	statePruned
	stateFreshPruned
)

type cacheEntry struct {
	coin  *Coin
	state entryState
}

// CoinViewer is the read side of the capability trait: look up a coin by
// outpoint. A persistent CoinStore, a stacked UtxoView, and a
// mempool-backed overlay all implement it.
type CoinViewer interface {
	AccessCoin(op OutPoint) (*Coin, bool)
}

// CoinWriter is the write side a bottom persistent layer must support so
// a UtxoView stack can eventually be flushed all the way down.
type CoinWriter interface {
	PutCoin(op OutPoint, c *Coin) error
	DeleteCoin(op OutPoint) error
}

// CoinStore is the full capability a persistent bottom layer offers.
type CoinStore interface {
	CoinViewer
	CoinWriter
}

// ErrFlushCleanIntoAbsentParent signals a flush invariant violation: a
// CLEAN child entry can only exist if the parent already has the coin,
// so finding no parent entry for it means the two views have diverged.
var ErrFlushCleanIntoAbsentParent = errors.New("utxocache: flush found CLEAN child entry with no parent entry")

// ErrFlushFreshCollision signals the parent already had an entry a child
// believed was FRESH (absent from parent) — the two views diverged.
var ErrFlushFreshCollision = errors.New("utxocache: flush found FRESH child entry colliding with an existing parent entry")

// UtxoView is one layer of the cache stack. Layers only ever point to an
// older layer (their parent), never the reverse, so the stack is
// structurally acyclic; a layer is addressed by the handle returned from
// NewLayer, never by a shared back-reference.
type UtxoView struct {
	mu      sync.RWMutex
	parent  CoinViewer
	entries map[OutPoint]*cacheEntry
}

// NewLayer stacks a fresh, empty view on top of parent. parent may be nil
// only for the bottom-most in-memory view sitting directly on a
// CoinStore accessed separately.
func NewLayer(parent CoinViewer) *UtxoView {
	return &UtxoView{parent: parent, entries: make(map[OutPoint]*cacheEntry)}
}

// Access returns an immutable read of the coin at op: the topmost
// definition found walking this layer, then its ancestors. A PRUNED
// marker in any layer terminates the search as "spent", even if an older
// ancestor still has the coin.
func (v *UtxoView) AccessCoin(op OutPoint) (*Coin, bool) {
	v.mu.RLock()
	entry, ok := v.entries[op]
	v.mu.RUnlock()
	if ok {
		switch entry.state {
		case statePruned, stateFreshPruned:
			return nil, false
		default:
			return entry.coin, entry.coin != nil
		}
	}
	if v.parent == nil {
		return nil, false
	}
	return v.parent.AccessCoin(op)
}

// Modify returns a mutable *Coin backed by an entry in this layer,
// allocating a DIRTY copy of the parent's coin on first touch (or a
// FRESH entry if the coin exists nowhere yet, e.g. a newly created
// output). The returned pointer may be mutated by the caller and the
// mutation is visible to subsequent Access/Modify calls on this layer.
//
// Per spec.md §4.C, calling Modify on an outpoint whose entry in this
// layer is FRESH-PRUNED (created and then deleted within this same
// layer, with no writes since) re-allocates it back to FRESH rather than
// creating a second, conflicting entry — this is what lets signing
// pre-populate a zero-value placeholder coin carrying only a script.
func (v *UtxoView) Modify(op OutPoint) *Coin {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, ok := v.entries[op]
	if ok {
		switch entry.state {
		case stateFreshPruned:
			entry.coin = &Coin{}
			entry.state = stateFresh
		case stateClean:
			entry.state = stateDirty
		case statePruned:
			entry.coin = &Coin{}
			entry.state = stateDirty
		}
		return entry.coin
	}

	if v.parent != nil {
		if parentCoin, found := v.parent.AccessCoin(op); found {
			coin := parentCoin.Clone()
			v.entries[op] = &cacheEntry{coin: coin, state: stateDirty}
			return coin
		}
	}

	coin := &Coin{}
	v.entries[op] = &cacheEntry{coin: coin, state: stateFresh}
	return coin
}

// Spend marks op as spent in this layer: PRUNED if an ancestor might
// still have the coin, FRESH-PRUNED if this layer itself created it.
func (v *UtxoView) Spend(op OutPoint) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entry, ok := v.entries[op]
	if ok {
		if entry.state == stateFresh {
			entry.state = stateFreshPruned
			entry.coin = nil
			return
		}
		entry.state = statePruned
		entry.coin = nil
		return
	}
	v.entries[op] = &cacheEntry{coin: nil, state: statePruned}
}

// PutCoin implements CoinWriter by folding a write into this layer as a
// DIRTY entry, so one UtxoView can itself serve as the write-target
// parent when another view is stacked on top of it.
func (v *UtxoView) PutCoin(op OutPoint, c *Coin) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[op] = &cacheEntry{coin: c, state: stateDirty}
	return nil
}

// DeleteCoin implements CoinWriter by recording a PRUNED marker in this
// layer, propagated on this layer's own later flush.
func (v *UtxoView) DeleteCoin(op OutPoint) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[op] = &cacheEntry{coin: nil, state: statePruned}
	return nil
}

// HaveCoin is a convenience wrapper over AccessCoin for callers that only
// need presence, not the coin's contents.
func (v *UtxoView) HaveCoin(op OutPoint) bool {
	_, ok := v.AccessCoin(op)
	return ok
}

// Flush merges this (child) layer into parent according to the state
// combination table of spec.md §4.C, then clears this layer — it is
// meant to be discarded after flushing, not reused.
func (v *UtxoView) Flush(parent CoinWriter, parentView CoinViewer) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	for op, child := range v.entries {
		_, parentHas := parentView.AccessCoin(op)

		switch child.state {
		case stateClean:
			if !parentHas {
				return ErrFlushCleanIntoAbsentParent
			}
			// no-op once the parent's entry is confirmed present, per the
			// table's CLEAN column.
			continue

		case statePruned, stateFreshPruned:
			if child.state == stateFreshPruned && !parentHas {
				// absent + PRUNED -> no-op; also covers the invariant that a
				// FRESH-PRUNED entry with nothing in the parent is removed
				// entirely rather than propagated.
				continue
			}
			if err := parent.DeleteCoin(op); err != nil {
				return err
			}

		case stateFresh:
			if parentHas {
				return ErrFlushFreshCollision
			}
			if err := parent.PutCoin(op, child.coin); err != nil {
				return err
			}

		case stateDirty:
			if err := parent.PutCoin(op, child.coin); err != nil {
				return err
			}
		}
	}
	v.entries = make(map[OutPoint]*cacheEntry)
	return nil
}

// Forget removes op's entry from this layer outright, regardless of its
// state, without recording a deletion to propagate on flush.
func (v *UtxoView) Forget(op OutPoint) {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.entries, op)
}

// Discard drops every pending write in this layer without touching the
// parent, leaving the layer empty.
func (v *UtxoView) Discard() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = make(map[OutPoint]*cacheEntry)
}
