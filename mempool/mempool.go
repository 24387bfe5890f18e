package mempool

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/TEENet-io/btc-fullnode/scriptengine"
	"github.com/TEENet-io/btc-fullnode/utxocache"
	"github.com/TEENet-io/btc-fullnode/wireformat"
)

// Policy is the narrow slice of the §6 Policy collaborator interface
// admission needs: the flag set standard verification runs under, and the
// minimum accepted fee rate in satoshis per kilobyte.
type Policy interface {
	StandardScriptVerifyFlags() txscript.ScriptFlags
	MinRelayFeeRate() int64
}

// entry is a mempool.Mempool's bookkeeping for one accepted transaction
// (spec.md §4.D's "mempool entry").
type entry struct {
	tx           *wire.MsgTx
	arrivalTime  int64
	size         int
	fee          int64
	feeRatePerKB int64
}

// Mempool holds the in-memory set of valid, not-yet-confirmed transactions
// and the indices admission and double-spend detection need: by txid, and
// by every outpoint the pool's transactions spend.
type Mempool struct {
	mu       sync.RWMutex
	policy   Policy
	byTxID   map[chainhash.Hash]*entry
	byOutpnt map[wire.OutPoint]chainhash.Hash
}

// New builds an empty mempool enforcing policy's fee floor and script
// verification flags.
func New(policy Policy) *Mempool {
	return &Mempool{
		policy:   policy,
		byTxID:   make(map[chainhash.Hash]*entry),
		byOutpnt: make(map[wire.OutPoint]chainhash.Hash),
	}
}

// GetTx implements utxocache.TxByID so a MempoolBackedView can resolve
// still-unconfirmed outputs.
func (m *Mempool) GetTx(txid chainhash.Hash) (*wire.MsgTx, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.byTxID[txid]
	if !ok {
		return nil, false
	}
	return e.tx, true
}

// Exists reports whether txid is currently in the pool.
func (m *Mempool) Exists(txid chainhash.Hash) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.byTxID[txid]
	return ok
}

// Get returns the pooled transaction for txid, if any.
func (m *Mempool) Get(txid chainhash.Hash) (*wire.MsgTx, bool) {
	return m.GetTx(txid)
}

// Remove drops txid and its outpoint index entries, e.g. once it has been
// confirmed in a block (block processing is out of this package's scope;
// the caller decides when removal is warranted).
func (m *Mempool) Remove(txid chainhash.Hash) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byTxID[txid]
	if !ok {
		return
	}
	for _, in := range e.tx.TxIn {
		delete(m.byOutpnt, in.PreviousOutPoint)
	}
	delete(m.byTxID, txid)
}

// Accept performs the ordered admission checks of spec.md §4.D and, on
// success, indexes tx by its txid and every outpoint it spends. On any
// failure none of the pool's indices are mutated.
//
// view is the persistent+mempool-backed layer to check input availability
// and mark spends against. Every check runs before the first write, so
// view is not mutated on failure; on success the spends and new outputs
// are recorded in view, which Accept never flushes.
// tipHeight is the active chain height, used to enforce coinbase maturity
// on any spent input that is itself a coinbase output.
func (m *Mempool) Accept(tx *wire.MsgTx, view *utxocache.UtxoView, allowHighFees bool, arrivalTime int64, tipHeight int32) (chainhash.Hash, *RejectReason) {
	txid := tx.TxHash()

	if err := checkSyntax(tx); err != nil {
		return txid, err
	}

	if wireformat.IsCoinbase(tx) {
		return txid, reject(RejectCoinbase, "coinbase transactions are not relayed")
	}

	m.mu.RLock()
	if _, dup := m.byTxID[txid]; dup {
		m.mu.RUnlock()
		return txid, reject(RejectDuplicate, "transaction already in mempool")
	}
	m.mu.RUnlock()

	if err := m.checkNoConflictingSpend(tx); err != nil {
		return txid, err
	}

	totalIn, err := m.checkInputsAvailableAndUnspent(tx, view)
	if err != nil {
		return txid, err
	}

	if err := checkCoinbaseMaturity(tx, view, tipHeight); err != nil {
		return txid, err
	}

	flags := scriptengine.StandardFlags
	if m.policy != nil {
		flags = m.policy.StandardScriptVerifyFlags()
	}
	if err := m.checkScripts(tx, view, flags); err != nil {
		return txid, err
	}

	totalOut := sumOutputs(tx)
	if totalOut > totalIn {
		return txid, reject(RejectInvalid, "outputs exceed inputs")
	}
	fee := totalIn - totalOut

	size := tx.SerializeSize()
	feeRate := feeRatePerKB(fee, size)
	if !allowHighFees {
		floor := int64(1000)
		if m.policy != nil {
			floor = m.policy.MinRelayFeeRate()
		}
		if feeRate < floor {
			return txid, reject(RejectInsufficientFee, "fee rate below minimum relay fee")
		}
	}

	for _, in := range tx.TxIn {
		view.Spend(in.PreviousOutPoint)
	}
	for i, out := range tx.TxOut {
		coin := view.Modify(wire.OutPoint{Hash: txid, Index: uint32(i)})
		coin.Value = out.Value
		coin.PkScript = out.PkScript
	}

	m.mu.Lock()
	m.byTxID[txid] = &entry{tx: tx, arrivalTime: arrivalTime, size: size, fee: fee, feeRatePerKB: feeRate}
	for _, in := range tx.TxIn {
		m.byOutpnt[in.PreviousOutPoint] = txid
	}
	m.mu.Unlock()

	return txid, nil
}

func checkSyntax(tx *wire.MsgTx) *RejectReason {
	if len(tx.TxIn) == 0 {
		return reject(RejectInvalid, "transaction has no inputs")
	}
	if len(tx.TxOut) == 0 {
		return reject(RejectInvalid, "transaction has no outputs")
	}
	size := tx.SerializeSize()
	if size > wireformat.MaxTxSize {
		return reject(RejectInvalid, "transaction exceeds maximum size")
	}
	var total int64
	for _, out := range tx.TxOut {
		if out.Value < 0 {
			return reject(RejectInvalid, "negative output value")
		}
		total += out.Value
		if total < 0 {
			return reject(RejectInvalid, "output value overflow")
		}
	}
	seen := make(map[wire.OutPoint]struct{}, len(tx.TxIn))
	for _, in := range tx.TxIn {
		if _, dup := seen[in.PreviousOutPoint]; dup {
			return reject(RejectInvalid, "duplicate input outpoint")
		}
		seen[in.PreviousOutPoint] = struct{}{}
	}
	return nil
}

// checkNoConflictingSpend rejects tx if any of its inputs spend an outpoint
// already claimed by a different transaction currently in the pool
// (spec.md §4.D's double-spend detection via the outpoint index — a
// transaction's UtxoView.Spend marks are local to the caller's staged view
// and never reach the persistent store, so byOutpnt is the only index that
// catches a conflict across separate Accept calls sharing one backing
// store).
func (m *Mempool) checkNoConflictingSpend(tx *wire.MsgTx) *RejectReason {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, in := range tx.TxIn {
		if _, taken := m.byOutpnt[in.PreviousOutPoint]; taken {
			return reject(RejectDuplicate, "input already spent by another pooled transaction")
		}
	}
	return nil
}

func (m *Mempool) checkInputsAvailableAndUnspent(tx *wire.MsgTx, view *utxocache.UtxoView) (int64, *RejectReason) {
	var total int64
	for _, in := range tx.TxIn {
		coin, ok := view.AccessCoin(in.PreviousOutPoint)
		if !ok {
			return 0, reject(RejectMissingInputs, "input references an unknown or already-spent output")
		}
		total += coin.Value
	}
	return total, nil
}

func checkCoinbaseMaturity(tx *wire.MsgTx, view *utxocache.UtxoView, tipHeight int32) *RejectReason {
	for _, in := range tx.TxIn {
		coin, ok := view.AccessCoin(in.PreviousOutPoint)
		if !ok {
			continue
		}
		if !coin.MatureAt(tipHeight) {
			return reject(RejectPrematureSpend, "spends an immature coinbase output")
		}
	}
	return nil
}

func (m *Mempool) checkScripts(tx *wire.MsgTx, view *utxocache.UtxoView, flags txscript.ScriptFlags) *RejectReason {
	for i, in := range tx.TxIn {
		coin, ok := view.AccessCoin(in.PreviousOutPoint)
		if !ok {
			return reject(RejectMissingInputs, "input references an unknown or already-spent output")
		}
		if serr := scriptengine.Verify(in.SignatureScript, coin.PkScript, tx, i, flags, coin.Value); serr != nil {
			return reject(RejectNonStandard, serr.Error())
		}
	}
	return nil
}

func sumOutputs(tx *wire.MsgTx) int64 {
	var total int64
	for _, out := range tx.TxOut {
		total += out.Value
	}
	return total
}

func feeRatePerKB(fee int64, size int) int64 {
	if size == 0 {
		return 0
	}
	return fee * 1000 / int64(size)
}

// Now is exposed as a variable, not time.Now() called inline, so callers
// (and tests) can supply an arrival time deterministically.
var Now = func() int64 { return time.Now().Unix() }
