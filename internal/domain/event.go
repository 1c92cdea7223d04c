package domain

import "github.com/ethereum/go-ethereum/common"

// EventKind identifies an external lifecycle signal from the gateway.
type EventKind int

const (
	// EventAccountsChanged carries the new set of exposed accounts.
	// An empty set means the environment revoked access.
	EventAccountsChanged EventKind = iota + 1

	// EventChainChanged carries the new network identifier.
	EventChainChanged
)

// String returns the wire name of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventAccountsChanged:
		return "accountsChanged"
	case EventChainChanged:
		return "chainChanged"
	default:
		return "unknown"
	}
}

// Event is an asynchronous lifecycle signal delivered by the gateway.
type Event struct {
	Kind      EventKind
	Accounts  []common.Address
	NetworkID uint64
}
