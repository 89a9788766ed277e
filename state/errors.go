package state

import (
	"errors"
	"fmt"

	"github.com/calehh/hac-dao/tx"
	"github.com/calehh/hac-dao/types"
)

var (
	ErrNotFound = errors.New("not found")

	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrAlreadyMember       = errors.New("already member")
	ErrNotMember           = errors.New("not member")
	ErrDuplicateProposal   = errors.New("duplicate proposal")
	ErrProposalNotFound    = errors.New("proposal not found")
	ErrAlreadyVoted        = errors.New("already voted")
	ErrInvalidChoice       = errors.New("invalid vote choice")
	ErrTimelockNotElapsed  = errors.New("timelock not elapsed")
	ErrQuorumNotMet        = errors.New("quorum not met")
	ErrAlreadyExecuted     = errors.New("already executed")
	ErrActionCallFailed    = errors.New("action call failed")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrSignerNotMember     = errors.New("signer not member")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownMarketplace  = errors.New("unknown marketplace")
	ErrClockUnset          = errors.New("block time unset")
)

var (
	ErrTxNonceInvalid   = errors.New("nonce invalid")
	ErrTxSigInvalid     = errors.New("signature invalid")
	ErrTxSenderMismatch = errors.New("sender mismatch")
)

// ActionCallError reports the action that aborted an execution.
type ActionCallError struct {
	Index int
	Cause error
}

func (e *ActionCallError) Error() string {
	return fmt.Sprintf("%v: action %d: %v", ErrActionCallFailed, e.Index, e.Cause)
}

func (e *ActionCallError) Unwrap() error {
	return e.Cause
}

func (e *ActionCallError) Is(target error) bool {
	return target == ErrActionCallFailed
}

// ABCI result codes. Zero is success, one is reserved for unclassified failures.
const (
	CodeOK uint32 = iota
	CodeInternal
	CodeInvalidTx
	CodeNonceInvalid
	CodeSigInvalid
	CodeInsufficientPayment
	CodeAlreadyMember
	CodeNotMember
	CodeDuplicateProposal
	CodeProposalNotFound
	CodeAlreadyVoted
	CodeInvalidChoice
	CodeTimelockNotElapsed
	CodeQuorumNotMet
	CodeAlreadyExecuted
	CodeActionCallFailed
	CodeInvalidSignature
	CodeSignerNotMember
	CodeInsufficientBalance
	CodeInvalidAction
	CodeClockUnset
)

var errCodes = []struct {
	err  error
	code uint32
}{
	// matched in order: an action failure wraps whatever its target returned
	{ErrActionCallFailed, CodeActionCallFailed},
	{ErrTxNonceInvalid, CodeNonceInvalid},
	{ErrTxSigInvalid, CodeSigInvalid},
	{ErrTxSenderMismatch, CodeSigInvalid},
	{ErrInsufficientPayment, CodeInsufficientPayment},
	{ErrAlreadyMember, CodeAlreadyMember},
	{ErrNotMember, CodeNotMember},
	{ErrDuplicateProposal, CodeDuplicateProposal},
	{ErrProposalNotFound, CodeProposalNotFound},
	{ErrAlreadyVoted, CodeAlreadyVoted},
	{ErrInvalidChoice, CodeInvalidChoice},
	{ErrTimelockNotElapsed, CodeTimelockNotElapsed},
	{ErrQuorumNotMet, CodeQuorumNotMet},
	{ErrAlreadyExecuted, CodeAlreadyExecuted},
	{ErrInvalidSignature, CodeInvalidSignature},
	{ErrSignerNotMember, CodeSignerNotMember},
	{ErrInsufficientBalance, CodeInsufficientBalance},
	{types.ErrEmptyActions, CodeInvalidAction},
	{types.ErrInvalidAction, CodeInvalidAction},
	{ErrClockUnset, CodeClockUnset},
	{tx.ErrInvalidTx, CodeInvalidTx},
	{tx.ErrUnsupportedTxType, CodeInvalidTx},
	{tx.ErrUnsupportedTxVersion, CodeInvalidTx},
	{tx.ErrUnmatchedTxType, CodeInvalidTx},
}

func ErrorCode(err error) uint32 {
	if err == nil {
		return CodeOK
	}
	for _, c := range errCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeInternal
}
