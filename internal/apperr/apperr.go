// Package apperr defines the stable error kinds returned by the coinflip engine.
//
// Every rejected precondition maps to exactly one *Error value. Callers compare
// with errors.Is against the exported values and classify with KindOf.
package apperr

import "errors"

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuthorization
	KindState
	KindNotFound
	KindTransient
	KindTransfer
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindTransient:
		return "transient"
	case KindTransfer:
		return "transfer"
	default:
		return "unknown"
	}
}

// Error is a comparable, classified engine error.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// Validation errors.
var (
	ErrAmountTooSmall = newError(KindValidation, "AmountTooSmall", "amount is too small")
	ErrInvalidNumber  = newError(KindValidation, "InvalidNumber", "invalid bet number")
	ErrInvalidJoiner  = newError(KindValidation, "InvalidJoiner", "invalid joiner")
	ErrInvalidAmount  = newError(KindValidation, "InvalidAmount", "invalid bet amount")
	ErrInvalidSeed    = newError(KindValidation, "InvalidSeed", "invalid commit seed")
	ErrInvalidConfig  = newError(KindValidation, "InvalidConfig", "invalid configuration")
)

// Authorization errors.
var (
	ErrInvalidAdmin   = newError(KindAuthorization, "InvalidAdmin", "invalid admin address")
	ErrInvalidCreator = newError(KindAuthorization, "InvalidCreator", "invalid creator address")
	ErrOwnerMismatch  = newError(KindAuthorization, "OwnerMismatch", "owner mismatch")
)

// State errors.
var (
	ErrInvalidPoolStatus  = newError(KindState, "InvalidPoolStatus", "invalid pool status")
	ErrAlreadyDrawn       = newError(KindState, "AlreadyDrawn", "already drawn game")
	ErrSeedReused         = newError(KindState, "SeedReused", "commit seed already used")
	ErrAlreadyInitialized = newError(KindState, "AlreadyInitialized", "registry already initialized")
	ErrNotInitialized     = newError(KindState, "NotInitialized", "registry not initialized")
)

// Lookup errors.
var (
	ErrPoolNotFound = newError(KindNotFound, "PoolNotFound", "pool not found")
)

// Transient errors.
var (
	ErrStillProcessing = newError(KindTransient, "StillProcessing", "randomness is still being fulfilled")
)

// Transfer errors.
var (
	ErrInsufficientFunds = newError(KindTransfer, "InsufficientFunds", "insufficient funds")
	ErrInvalidTransfer   = newError(KindTransfer, "InvalidTransfer", "invalid transfer")
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindUnknown
}

// CodeOf returns the stable code of the first *Error in err's chain, or "".
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ""
}
