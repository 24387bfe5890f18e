// Package wireformat provides bit-exact encode/decode of transactions and
// the hex/hash display conventions used across the RPC boundary.
//
// The wire layout itself (little-endian ints, compact-size prefixed
// sequences) is exactly the Bitcoin P2P/consensus wire format, so encoding
// is delegated to github.com/btcsuite/btcd/wire rather than reimplemented;
// this package adds the size ceiling, error taxonomy, and hex conventions
// spec.md §4.A requires on top of it.
package wireformat

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// MaxTxSize mirrors Bitcoin Core's MAX_BLOCK_SIZE; a serialized transaction
// larger than this cannot appear in a block and is rejected outright.
const MaxTxSize = 1000000

// coinbaseSequenceIndex is the sentinel previous-output index a coinbase
// input carries (0xFFFFFFFF); wire does not export a named constant for it.
const coinbaseSequenceIndex = 0xFFFFFFFF

// Transaction is the wire-format transaction. TxIn/TxOut/OutPoint are the
// same types wire.MsgTx already uses; spec.md's data model maps onto them
// field for field (PreviousOutPoint == OutPoint, SignatureScript == script_sig).
type Transaction = wire.MsgTx
type TxIn = wire.TxIn
type TxOut = wire.TxOut
type OutPoint = wire.OutPoint
type Hash256 = chainhash.Hash

// ErrDecodeFailed is returned, possibly wrapped, for any malformed input:
// truncated bytes, an oversize payload, or a structurally invalid count.
var ErrDecodeFailed = errors.New("wireformat: decode failed")

// NewTransaction builds an empty transaction with the given version.
func NewTransaction(version int32) *Transaction {
	tx := wire.NewMsgTx(version)
	return tx
}

// Encode serializes tx per the canonical wire order: version, vin, vout,
// lock_time. It never fails for a well-formed in-memory Transaction.
func Encode(tx *Transaction) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	if buf.Len() > MaxTxSize {
		return nil, fmt.Errorf("%w: serialized size %d exceeds max %d", ErrDecodeFailed, buf.Len(), MaxTxSize)
	}
	return buf.Bytes(), nil
}

// Decode parses b into a Transaction, enforcing the size ceiling before
// attempting to walk the byte stream so an oversize payload never causes
// unbounded allocation.
func Decode(b []byte) (*Transaction, error) {
	if len(b) > MaxTxSize {
		return nil, fmt.Errorf("%w: input size %d exceeds max %d", ErrDecodeFailed, len(b), MaxTxSize)
	}
	tx := &Transaction{}
	if err := tx.Deserialize(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return tx, nil
}

// DecodeVariants loop-decodes b as a concatenated stream of one or more
// transactions, the way signrawtransaction's original C++ counterpart
// reads repeated CMutableTransactions out of a single hex argument to
// combine as variants (original_source/rpcrawtransaction.cpp's
// `while (!ssData.empty())` loop over txVariants). A single transaction's
// bytes decode as a one-element slice, so callers needing variant support
// can use this in place of Decode unconditionally.
func DecodeVariants(b []byte) ([]*Transaction, error) {
	if len(b) > MaxTxSize {
		return nil, fmt.Errorf("%w: input size %d exceeds max %d", ErrDecodeFailed, len(b), MaxTxSize)
	}
	r := bytes.NewReader(b)
	var variants []*Transaction
	for r.Len() > 0 {
		tx := &Transaction{}
		if err := tx.Deserialize(r); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
		}
		variants = append(variants, tx)
	}
	if len(variants) == 0 {
		return nil, fmt.Errorf("%w: missing transaction", ErrDecodeFailed)
	}
	return variants, nil
}

// DecodeHexVariants is FromHex followed by DecodeVariants.
func DecodeHexVariants(s string) ([]*Transaction, error) {
	b, err := FromHex(s)
	if err != nil {
		return nil, err
	}
	return DecodeVariants(b)
}

// TxID returns the double-SHA-256 of the canonical serialization as a
// Hash256; DisplayHash renders it in the reversed-byte form callers expect.
func TxID(tx *Transaction) Hash256 {
	return tx.TxHash()
}

// EncodeHex is Encode followed by lowercase hex transcoding.
func EncodeHex(tx *Transaction) (string, error) {
	b, err := Encode(tx)
	if err != nil {
		return "", err
	}
	return ToHex(b), nil
}

// DecodeHex is FromHex followed by Decode.
func DecodeHex(s string) (*Transaction, error) {
	b, err := FromHex(s)
	if err != nil {
		return nil, err
	}
	return Decode(b)
}

// ToHex renders b as lowercase hex, two digits per byte.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// FromHex rejects odd-length or non-hex-digit input rather than silently
// truncating, since a malformed hex string is a caller error at the RPC
// boundary, not something to paper over.
func FromHex(s string) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, fmt.Errorf("%w: odd-length hex string", ErrDecodeFailed)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return b, nil
}

// DisplayHash renders a Hash256 in the reversed-byte hex form used
// everywhere outside the wire format (block explorers, RPC results).
func DisplayHash(h Hash256) string {
	return h.String()
}

// HashFromDisplay parses the reversed-byte hex form back into a Hash256.
func HashFromDisplay(s string) (Hash256, error) {
	h, err := chainhash.NewHashFromStr(s)
	if err != nil {
		return Hash256{}, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return *h, nil
}

// IsCoinbase reports whether tx is a coinbase transaction: exactly one
// input whose outpoint is (all-zero hash, 0xFFFFFFFF).
func IsCoinbase(tx *Transaction) bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	op := tx.TxIn[0].PreviousOutPoint
	return op.Index == coinbaseSequenceIndex && op.Hash == chainhash.Hash{}
}
