package rpcserver

import "fmt"

// Code is the stable numeric RPC error code surfaced at the boundary
// (spec.md §6). Values follow Bitcoin Core's own RPC error code space so
// operator tooling written against it needs no translation layer.
type Code int

const (
	CodeInvalidParameter          Code = -8
	CodeInvalidAddressOrKey       Code = -5
	CodeDeserializationError      Code = -22
	CodeTransactionError          Code = -25
	CodeTransactionRejected       Code = -26
	CodeTransactionAlreadyInChain Code = -27
	CodeInternalError             Code = -32603
)

// RPCError is the {code, message} pair every failed handler returns.
type RPCError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string { return e.Message }

func newRPCError(code Code, format string, args ...interface{}) *RPCError {
	return &RPCError{Code: code, Message: fmt.Sprintf(format, args...)}
}
