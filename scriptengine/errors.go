package scriptengine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/txscript"
)

// ErrorCode enumerates the script evaluation outcomes spec.md §4.B
// requires, independent of whichever concrete error type the underlying
// evaluator (txscript) raises.
type ErrorCode int

const (
	ErrOK ErrorCode = iota
	ErrEvalFalse
	ErrOpReturn
	ErrScriptSize
	ErrPushSize
	ErrOpCount
	ErrStackSize
	ErrSigCount
	ErrPubKeyCount
	ErrVerify
	ErrEqualVerify
	ErrCheckMultiSigVerify
	ErrCheckSigVerify
	ErrNumEqualVerify
	ErrBadOpcode
	ErrDisabledOpcode
	ErrInvalidStackOperation
	ErrInvalidAltStackOperation
	ErrUnbalancedConditional
	ErrNegativeLockTime
	ErrUnsatisfiedLockTime
	ErrSigHashType
	ErrSigDER
	ErrMinimalData
	ErrSigPushOnly
	ErrSigHighS
	ErrSigNullDummy
	ErrPubKeyType
	ErrCleanStack
	ErrDiscourageUpgradableNOPs
)

var codeNames = map[ErrorCode]string{
	ErrOK:                       "OK",
	ErrEvalFalse:                "EVAL_FALSE",
	ErrOpReturn:                 "OP_RETURN",
	ErrScriptSize:               "SCRIPT_SIZE",
	ErrPushSize:                 "PUSH_SIZE",
	ErrOpCount:                  "OP_COUNT",
	ErrStackSize:                "STACK_SIZE",
	ErrSigCount:                 "SIG_COUNT",
	ErrPubKeyCount:              "PUBKEY_COUNT",
	ErrVerify:                   "VERIFY",
	ErrEqualVerify:              "EQUALVERIFY",
	ErrCheckMultiSigVerify:      "CHECKMULTISIGVERIFY",
	ErrCheckSigVerify:           "CHECKSIGVERIFY",
	ErrNumEqualVerify:           "NUMEQUALVERIFY",
	ErrBadOpcode:                "BAD_OPCODE",
	ErrDisabledOpcode:           "DISABLED_OPCODE",
	ErrInvalidStackOperation:    "INVALID_STACK_OPERATION",
	ErrInvalidAltStackOperation: "INVALID_ALTSTACK_OPERATION",
	ErrUnbalancedConditional:    "UNBALANCED_CONDITIONAL",
	ErrNegativeLockTime:         "NEGATIVE_LOCKTIME",
	ErrUnsatisfiedLockTime:      "UNSATISFIED_LOCKTIME",
	ErrSigHashType:              "SIG_HASHTYPE",
	ErrSigDER:                   "SIG_DER",
	ErrMinimalData:              "MINIMALDATA",
	ErrSigPushOnly:              "SIG_PUSHONLY",
	ErrSigHighS:                 "SIG_HIGH_S",
	ErrSigNullDummy:             "SIG_NULLDUMMY",
	ErrPubKeyType:               "PUBKEYTYPE",
	ErrCleanStack:               "CLEANSTACK",
	ErrDiscourageUpgradableNOPs: "DISCOURAGE_UPGRADABLE_NOPS",
}

func (c ErrorCode) String() string {
	if s, ok := codeNames[c]; ok {
		return s
	}
	return "UNKNOWN_ERROR"
}

// ScriptError is the error type Verify/SignInput return; Code is one of
// the enumerated values above, Err carries the underlying cause.
type ScriptError struct {
	Code ErrorCode
	Err  error
}

func (e *ScriptError) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }

func newScriptError(code ErrorCode, err error) *ScriptError {
	return &ScriptError{Code: code, Err: err}
}

var errInputIndexRange = errors.New("scriptengine: input index out of range")

// classify maps a txscript evaluation error onto our ErrorCode taxonomy.
// txscript.Error's ErrorCode.String() already returns identifiers of the
// form "Err<Name>", so substring matching on that name is more robust to
// a library version bump than depending on the exact identifier value.
func classify(err error) *ScriptError {
	if err == nil {
		return nil
	}
	var serr txscript.Error
	if !errors.As(err, &serr) {
		return newScriptError(ErrEvalFalse, err)
	}
	name := serr.ErrorCode.String()
	switch {
	case has(name, "EarlyReturn"):
		return newScriptError(ErrOpReturn, err)
	case has(name, "ScriptTooBig"):
		return newScriptError(ErrScriptSize, err)
	case has(name, "ElementTooBig"):
		return newScriptError(ErrPushSize, err)
	case has(name, "TooManyOperations"):
		return newScriptError(ErrOpCount, err)
	case has(name, "StackOverflow"):
		return newScriptError(ErrStackSize, err)
	case has(name, "InvalidSignatureCount"):
		return newScriptError(ErrSigCount, err)
	case has(name, "InvalidPubKeyCount"):
		return newScriptError(ErrPubKeyCount, err)
	case has(name, "NumEqualVerify"):
		return newScriptError(ErrNumEqualVerify, err)
	case has(name, "EqualVerify"):
		return newScriptError(ErrEqualVerify, err)
	case has(name, "CheckMultiSigVerify"):
		return newScriptError(ErrCheckMultiSigVerify, err)
	case has(name, "CheckSigVerify"):
		return newScriptError(ErrCheckSigVerify, err)
	case has(name, "Verify"):
		return newScriptError(ErrVerify, err)
	case has(name, "DisabledOpcode"):
		return newScriptError(ErrDisabledOpcode, err)
	case has(name, "ReservedOpcode"), has(name, "Opcode"):
		return newScriptError(ErrBadOpcode, err)
	case has(name, "InvalidAltStackOperation"):
		return newScriptError(ErrInvalidAltStackOperation, err)
	case has(name, "InvalidStackOperation"), has(name, "EmptyStack"):
		return newScriptError(ErrInvalidStackOperation, err)
	case has(name, "UnbalancedConditional"):
		return newScriptError(ErrUnbalancedConditional, err)
	case has(name, "NegativeLockTime"):
		return newScriptError(ErrNegativeLockTime, err)
	case has(name, "UnsatisfiedLockTime"):
		return newScriptError(ErrUnsatisfiedLockTime, err)
	case has(name, "SigHashType"):
		return newScriptError(ErrSigHashType, err)
	case has(name, "SigDER"), has(name, "Signature"):
		return newScriptError(ErrSigDER, err)
	case has(name, "MinimalData"), has(name, "MinimalIf"):
		return newScriptError(ErrMinimalData, err)
	case has(name, "NonPushOnly"), has(name, "PushOnly"):
		return newScriptError(ErrSigPushOnly, err)
	case has(name, "HighS"):
		return newScriptError(ErrSigHighS, err)
	case has(name, "NullDummy"), has(name, "NullFail"):
		return newScriptError(ErrSigNullDummy, err)
	case has(name, "PubKeyType"):
		return newScriptError(ErrPubKeyType, err)
	case has(name, "CleanStack"):
		return newScriptError(ErrCleanStack, err)
	case has(name, "DiscourageUpgradableNOPs"), has(name, "DiscourageOpSuccess"):
		return newScriptError(ErrDiscourageUpgradableNOPs, err)
	default:
		return newScriptError(ErrEvalFalse, err)
	}
}

func has(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}
