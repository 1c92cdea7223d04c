package domain

import (
	"errors"
	"fmt"
)

// Fault sentinels. Every error returned by a session or dispatcher operation
// matches exactly one of these with errors.Is.
var (
	// ErrGatewayUnavailable is returned when no ledger-access provider is reachable.
	ErrGatewayUnavailable = errors.New("caseledger: gateway unavailable")

	// ErrAccessDenied is returned when the account-access request is rejected.
	ErrAccessDenied = errors.New("caseledger: access denied")

	// ErrCallRejected is returned when a write is refused before submission.
	ErrCallRejected = errors.New("caseledger: call rejected")

	// ErrCallReverted is returned when a submitted write fails remotely.
	ErrCallReverted = errors.New("caseledger: call reverted")

	// ErrQueryFailed is returned when a read cannot be completed.
	ErrQueryFailed = errors.New("caseledger: query failed")

	// ErrNotConnected is returned when a call needed a session and connect failed.
	ErrNotConnected = errors.New("caseledger: not connected")
)

// ErrInvalidTransition is returned when a session status change is not allowed.
var ErrInvalidTransition = errors.New("caseledger: invalid session transition")

// FaultKind classifies a Fault.
type FaultKind int

const (
	FaultGatewayUnavailable FaultKind = iota + 1
	FaultAccessDenied
	FaultCallRejected
	FaultCallReverted
	FaultQueryFailed
	FaultNotConnected
)

var faultSentinels = map[FaultKind]error{
	FaultGatewayUnavailable: ErrGatewayUnavailable,
	FaultAccessDenied:       ErrAccessDenied,
	FaultCallRejected:       ErrCallRejected,
	FaultCallReverted:       ErrCallReverted,
	FaultQueryFailed:        ErrQueryFailed,
	FaultNotConnected:       ErrNotConnected,
}

// String returns the taxonomy name of the kind.
func (k FaultKind) String() string {
	switch k {
	case FaultGatewayUnavailable:
		return "GatewayUnavailable"
	case FaultAccessDenied:
		return "AccessDenied"
	case FaultCallRejected:
		return "CallRejected"
	case FaultCallReverted:
		return "CallReverted"
	case FaultQueryFailed:
		return "QueryFailed"
	case FaultNotConnected:
		return "NotConnected"
	default:
		return "Unknown"
	}
}

// Fault is a classified error raised to callers in place of a result.
type Fault struct {
	Kind FaultKind

	// Op is the operation name, or "connect" for session faults.
	Op string

	// Err is the underlying cause.
	Err error
}

// NewFault creates a fault of kind k for op caused by err.
func NewFault(k FaultKind, op string, err error) *Fault {
	return &Fault{Kind: k, Op: op, Err: err}
}

func (f *Fault) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Kind, f.Err)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (f *Fault) Unwrap() []error {
	errs := make([]error, 0, 2)
	if s, ok := faultSentinels[f.Kind]; ok {
		errs = append(errs, s)
	}
	if f.Err != nil {
		errs = append(errs, f.Err)
	}
	return errs
}

// KindOf returns the fault kind of err, or 0 if err is not a Fault.
func KindOf(err error) FaultKind {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind
	}
	return 0
}

// ErrShutdownTimeout is returned when teardown does not finish in time.
var ErrShutdownTimeout = errors.New("caseledger: shutdown timeout")
