package ports

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bft-labs/caseledger/internal/domain"
)

// Errors adapters wrap so the application layer can classify gateway faults.
var (
	// ErrProviderNotFound means no compatible ledger-access provider is reachable.
	ErrProviderNotFound = errors.New("ledger provider not found")

	// ErrUserRejected means the user or environment declined the request.
	ErrUserRejected = errors.New("user rejected request")

	// ErrExecutionReverted means the contract execution failed.
	ErrExecutionReverted = errors.New("execution reverted")
)

// Gateway is the remote ledger gateway: the wallet provider and the contract
// endpoints it proxies to.
type Gateway interface {
	// RequestAccess asks the provider to expose accounts to this client.
	RequestAccess(ctx context.Context) ([]common.Address, error)

	// CurrentAccount returns the account that signs writes.
	CurrentAccount(ctx context.Context) (common.Address, error)

	// Balance returns the balance of account in wei.
	Balance(ctx context.Context, account common.Address) (*big.Int, error)

	// NetworkID returns the identifier of the connected network.
	NetworkID(ctx context.Context) (uint64, error)

	// Subscribe delivers accountsChanged and chainChanged events until ctx is
	// done, then closes the channel.
	Subscribe(ctx context.Context) (<-chan domain.Event, error)

	// Submit sends a write request signed by from and returns its hash
	// without waiting for inclusion.
	Submit(ctx context.Context, from common.Address, req domain.Request) (common.Hash, error)

	// WaitConfirmed blocks until the transaction is finalized and returns
	// its receipt. A reverted transaction still yields a receipt.
	WaitConfirmed(ctx context.Context, tx common.Hash) (*domain.Receipt, error)

	// Query performs a read request and decodes the result into out, which
	// must be a pointer to the record type of the operation.
	Query(ctx context.Context, req domain.Request, out any) error
}
