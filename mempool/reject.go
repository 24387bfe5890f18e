// Package mempool implements admission, lookup, and relay scheduling for
// unconfirmed transactions (spec.md §4.D). Admission is staged through a
// utxocache.UtxoView layer so a rejected transaction leaves no trace in
// either the UTXO set or the mempool's own indices.
package mempool

import "fmt"

// RejectCode is the numeric classification carried alongside every
// admission failure, surfaced verbatim at the RPC boundary.
type RejectCode int

const (
	RejectInvalid RejectCode = iota + 1
	RejectNonStandard
	RejectDust
	RejectInsufficientFee
	RejectDuplicate
	RejectAlreadyInChain
	RejectCoinbase
	RejectMissingInputs
	RejectPrevOutMismatch
	RejectPrematureSpend
)

var rejectCodeNames = map[RejectCode]string{
	RejectInvalid:         "REJECT_INVALID",
	RejectNonStandard:     "REJECT_NONSTANDARD",
	RejectDust:            "REJECT_DUST",
	RejectInsufficientFee: "REJECT_INSUFFICIENTFEE",
	RejectDuplicate:       "REJECT_DUPLICATE",
	RejectAlreadyInChain:  "REJECT_ALREADY_IN_CHAIN",
	RejectCoinbase:        "REJECT_COINBASE",
	RejectMissingInputs:   "REJECT_MISSING_INPUTS",
	RejectPrevOutMismatch: "REJECT_PREVOUT_MISMATCH",
	RejectPrematureSpend:  "REJECT_PREMATURE_SPEND",
}

func (c RejectCode) String() string {
	if name, ok := rejectCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("REJECT_UNKNOWN(%d)", int(c))
}

// RejectReason is the result of a failed admission: a stable code plus a
// short, human-readable explanation. Both fields are exposed verbatim at
// the RPC boundary per spec.md §4.D.
type RejectReason struct {
	Code   RejectCode
	Reason string
}

func (r *RejectReason) Error() string {
	return fmt.Sprintf("%s: %s", r.Code, r.Reason)
}

func reject(code RejectCode, reason string) *RejectReason {
	return &RejectReason{Code: code, Reason: reason}
}

// AlreadyInChainReject is the RejectReason send.go reports for
// sendrawtransaction of a transaction already confirmed on the active
// chain (spec.md §8 scenario 5), surfaced at the RPC boundary as
// TRANSACTION_ALREADY_IN_CHAIN.
func AlreadyInChainReject() *RejectReason {
	return reject(RejectAlreadyInChain, "transaction already confirmed in the active chain")
}
