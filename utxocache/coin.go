// Package utxocache implements the layered, copy-on-write unspent-output
// cache of spec.md §4.C: a stack of UtxoView layers over an opaque
// persistent CoinStore, used to stage the effect of one transaction (or
// one mempool admission, or one signing pass) before committing it.
//
// Modeled as a capability trait ({Access, Modify, Flush}, spec.md §9)
// rather than a base-class hierarchy: concrete backings (SQLite-backed
// CoinStore, an in-memory layer, a mempool-aware overlay) all satisfy the
// same narrow CoinViewer interface and are composed by wrapping.
package utxocache

import (
	"github.com/btcsuite/btcd/wire"
)

// OutPoint identifies a previous output; it is wire.OutPoint verbatim so
// callers never need to convert between this package and wireformat.
type OutPoint = wire.OutPoint

// CoinbaseMaturity mirrors Bitcoin Core's COINBASE_MATURITY: a coinbase
// output cannot be spent until height+CoinbaseMaturity <= current tip.
const CoinbaseMaturity = 100

// Coin is one entry of the unspent-output set: an output together with
// the metadata needed to enforce coinbase maturity and to report
// confirmations.
type Coin struct {
	Value      int64
	PkScript   []byte
	Height     int32
	IsCoinbase bool
	// IsSpent marks a tombstone: the coin existed but has been consumed.
	// A tombstone is kept (rather than deleted outright) only long enough
	// to record a PRUNED state until the next flush.
	IsSpent bool
}

// Clone returns a deep-enough copy for a CLEAN cache entry: PkScript is
// never mutated in place by this package, so sharing the slice is safe,
// but the struct itself must not alias the parent's.
func (c *Coin) Clone() *Coin {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// MatureAt reports whether a coinbase coin born at c.Height is spendable
// once the chain tip reaches height tipHeight.
func (c *Coin) MatureAt(tipHeight int32) bool {
	if !c.IsCoinbase {
		return true
	}
	return tipHeight >= c.Height+CoinbaseMaturity
}
