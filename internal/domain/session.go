package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Status is the connection status of a Session.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
	StatusError
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// CanTransition reports whether the session may move from s to next.
//
// Connected is only reachable through Connecting, and Error only through a
// failed handshake. Disconnected is reachable from every state.
func (s Status) CanTransition(next Status) bool {
	switch next {
	case StatusDisconnected:
		return true
	case StatusConnecting:
		return s == StatusDisconnected || s == StatusError
	case StatusConnected, StatusError:
		return s == StatusConnecting
	}
	return false
}

// Session is a point-in-time copy of the client's connection state.
//
// Account and Balance are set only while Status is StatusConnected.
// NetworkID follows the same rule.
type Session struct {
	Status    Status
	Account   *common.Address
	Balance   *big.Int
	NetworkID *uint64
	LastError string
	Loading   bool
}

// Connected returns true if the session can serve calls.
func (s Session) Connected() bool {
	return s.Status == StatusConnected
}

// BalanceEther returns the balance as an ether decimal string, or "" when absent.
func (s Session) BalanceEther() string {
	if s.Balance == nil {
		return ""
	}
	return FormatEther(s.Balance)
}
