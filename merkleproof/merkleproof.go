// Package merkleproof builds and verifies partial Merkle branch proofs of
// transaction inclusion (spec.md §4.E). The wire encoding is delegated to
// wire.MsgMerkleBlock (github.com/btcsuite/btcd/wire); this package
// supplies the tree-traversal algorithm bitcoin core's MsgMerkleBlock type
// leaves to its caller, together with the explicit tree-width bookkeeping
// that rejects the duplicated-subtree second-preimage ambiguity.
package merkleproof

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// MerkleBlock is spec.md §4.C's (block_header, total_tx_count, hashes,
// bits) tuple, represented verbatim as wire.MsgMerkleBlock so it shares
// the P2P/RPC wire encoding rather than defining a parallel one.
type MerkleBlock = wire.MsgMerkleBlock

// ErrBadProof is returned, possibly wrapped, whenever traversal finds the
// bit/hash stream inconsistent with total_tx_count: excess or missing
// bits, excess or missing hashes, or a duplicated-subtree collision.
var ErrBadProof = errors.New("merkleproof: malformed or inconsistent proof")

// Build walks block's transaction id list bottom-up and encodes a partial
// Merkle branch committing to exactly the ids in match: depth-first,
// left-then-right, one bit per internal node indicating whether its
// subtree contains a matching leaf, and one hash per non-matching subtree
// or matching leaf (spec.md §4.E).
func Build(header wire.BlockHeader, txids []chainhash.Hash, match map[chainhash.Hash]bool) *MerkleBlock {
	b := &builder{
		txids: txids,
		match: make([]bool, len(txids)),
	}
	for i, id := range txids {
		b.match[i] = match[id]
	}
	height := treeHeight(len(txids))
	b.traverseAndBuild(height, 0)

	mb := &MerkleBlock{
		Header:       header,
		Transactions: uint32(len(txids)),
		Hashes:       make([]*chainhash.Hash, len(b.hashes)),
		Flags:        bitsToFlags(b.bits),
	}
	for i := range b.hashes {
		h := b.hashes[i]
		mb.Hashes[i] = &h
	}
	return mb
}

// Verify reconstructs the Merkle root committed to by mb and returns it
// together with the set of leaf txids the proof declares matching. It
// fails on excess/missing bits or hashes, and on the duplicated-subtree
// ambiguity where two adjacent, distinct-position children hash equal
// (spec.md §4.E, and the historical second-preimage bug that motivated
// tracking tree width explicitly rather than trusting the bit stream).
func Verify(mb *MerkleBlock) (chainhash.Hash, []chainhash.Hash, error) {
	if mb.Transactions == 0 {
		return chainhash.Hash{}, nil, errors.New("merkleproof: zero transaction count")
	}
	bits := flagsToBits(mb.Flags)
	hashes := make([]chainhash.Hash, len(mb.Hashes))
	for i, h := range mb.Hashes {
		hashes[i] = *h
	}

	v := &verifier{
		numTx:  int(mb.Transactions),
		bits:   bits,
		hashes: hashes,
	}
	height := treeHeight(v.numTx)
	root, err := v.traverseAndExtract(height, 0)
	if err != nil {
		return chainhash.Hash{}, nil, err
	}
	if v.bitPos != len(bits) && !allZero(bits[v.bitPos:]) {
		return chainhash.Hash{}, nil, fmt.Errorf("%w: unconsumed proof bits", ErrBadProof)
	}
	if v.hashPos != len(hashes) {
		return chainhash.Hash{}, nil, fmt.Errorf("%w: unconsumed proof hashes", ErrBadProof)
	}
	return root, v.matched, nil
}

// EncodeHex serializes mb using wire's own MsgMerkleBlock encoding (the
// same one the P2P "merkleblock" message uses) and renders it as hex, the
// form gettxoutproof returns.
func EncodeHex(mb *MerkleBlock) (string, error) {
	var buf bytes.Buffer
	if err := mb.BtcEncode(&buf, wire.ProtocolVersion, wire.BaseEncoding); err != nil {
		return "", fmt.Errorf("merkleproof: encoding proof: %w", err)
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

// DecodeHex parses gettxoutproof/verifytxoutproof's hex proof argument.
func DecodeHex(s string) (*MerkleBlock, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProof, err)
	}
	mb := &MerkleBlock{}
	if err := mb.BtcDecode(bytes.NewReader(b), wire.ProtocolVersion, wire.BaseEncoding); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadProof, err)
	}
	return mb, nil
}

type builder struct {
	txids  []chainhash.Hash
	match  []bool
	bits   []bool
	hashes []chainhash.Hash
}

func treeWidth(numTx int, height uint) int {
	return (numTx + (1 << height) - 1) >> height
}

func treeHeight(numTx int) uint {
	var h uint
	for treeWidth(numTx, h) > 1 {
		h++
	}
	return h
}

func (b *builder) calcHash(height uint, pos int) chainhash.Hash {
	if height == 0 {
		return b.txids[pos]
	}
	left := b.calcHash(height-1, pos*2)
	right := left
	if pos*2+1 < treeWidth(len(b.txids), height-1) {
		right = b.calcHash(height-1, pos*2+1)
	}
	return hashPair(left, right)
}

func (b *builder) subtreeMatches(height uint, pos int) bool {
	width := treeWidth(len(b.txids), height)
	if pos >= width {
		return false
	}
	start := pos << height
	end := start + (1 << height)
	if end > len(b.txids) {
		end = len(b.txids)
	}
	for i := start; i < end; i++ {
		if b.match[i] {
			return true
		}
	}
	return false
}

func (b *builder) traverseAndBuild(height uint, pos int) {
	parentMatches := b.subtreeMatches(height, pos)
	b.bits = append(b.bits, parentMatches)
	if height == 0 || !parentMatches {
		b.hashes = append(b.hashes, b.calcHash(height, pos))
		return
	}
	b.traverseAndBuild(height-1, pos*2)
	if pos*2+1 < treeWidth(len(b.txids), height-1) {
		b.traverseAndBuild(height-1, pos*2+1)
	}
}

type verifier struct {
	numTx   int
	bits    []bool
	hashes  []chainhash.Hash
	bitPos  int
	hashPos int
	matched []chainhash.Hash
	bad     bool
}

func (v *verifier) traverseAndExtract(height uint, pos int) (chainhash.Hash, error) {
	if v.bitPos >= len(v.bits) {
		return chainhash.Hash{}, ErrBadProof
	}
	parentMatches := v.bits[v.bitPos]
	v.bitPos++

	if height == 0 || !parentMatches {
		if v.hashPos >= len(v.hashes) {
			return chainhash.Hash{}, ErrBadProof
		}
		h := v.hashes[v.hashPos]
		v.hashPos++
		if height == 0 && parentMatches {
			v.matched = append(v.matched, h)
		}
		return h, nil
	}

	left, err := v.traverseAndExtract(height-1, pos*2)
	if err != nil {
		return chainhash.Hash{}, err
	}
	var right chainhash.Hash
	if pos*2+1 < treeWidth(v.numTx, height-1) {
		right, err = v.traverseAndExtract(height-1, pos*2+1)
		if err != nil {
			return chainhash.Hash{}, err
		}
		if left == right {
			return chainhash.Hash{}, fmt.Errorf("%w: duplicated subtree hashes (second-preimage ambiguity)", ErrBadProof)
		}
	} else {
		right = left
	}
	return hashPair(left, right), nil
}

func hashPair(left, right chainhash.Hash) chainhash.Hash {
	var buf [64]byte
	copy(buf[:32], left[:])
	copy(buf[32:], right[:])
	return chainhash.DoubleHashH(buf[:])
}

func bitsToFlags(bits []bool) []byte {
	flags := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			flags[i/8] |= 1 << uint(i%8)
		}
	}
	return flags
}

func flagsToBits(flags []byte) []bool {
	bits := make([]bool, len(flags)*8)
	for i := range bits {
		bits[i] = flags[i/8]&(1<<uint(i%8)) != 0
	}
	return bits
}

func allZero(bits []bool) bool {
	for _, b := range bits {
		if b {
			return false
		}
	}
	return true
}
