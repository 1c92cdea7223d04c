package app

import (
	"context"
	"math/big"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/ports"
)

var (
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
)

// fakeGateway is a scriptable ports.Gateway.
type fakeGateway struct {
	mu sync.Mutex

	accounts   []common.Address
	accessErr  error
	accountErr error
	balances   map[common.Address]*big.Int
	balanceErr error
	// balanceGate, when set, holds Balance until it is closed;
	// balanceEntered is signalled when a call starts waiting.
	balanceGate    chan struct{}
	balanceEntered chan struct{}
	networkID      uint64
	subErr     error

	submitErr  error
	receipt    *domain.Receipt
	confirmErr error
	// confirm, when set, holds WaitConfirmed until it is closed.
	confirm chan struct{}

	queryFn func(ctx context.Context, req domain.Request, out any) error

	accessCalls  int
	balanceCalls int
	submitted    []domain.Request
	queried      []domain.Request

	subCtx context.Context
	events chan domain.Event
}

var _ ports.Gateway = (*fakeGateway)(nil)

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		accounts:  []common.Address{alice},
		balances:  map[common.Address]*big.Int{alice: big.NewInt(1e18), bob: big.NewInt(2e18)},
		networkID: 31337,
		receipt:   &domain.Receipt{Status: domain.ReceiptStatusSuccessful, BlockNumber: 7},
	}
}

func (f *fakeGateway) RequestAccess(ctx context.Context) ([]common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accessCalls++
	if f.accessErr != nil {
		return nil, f.accessErr
	}
	return append([]common.Address(nil), f.accounts...), nil
}

func (f *fakeGateway) CurrentAccount(ctx context.Context) (common.Address, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accountErr != nil {
		return common.Address{}, f.accountErr
	}
	return f.accounts[0], nil
}

func (f *fakeGateway) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	f.mu.Lock()
	f.balanceCalls++
	gate, entered := f.balanceGate, f.balanceEntered
	f.mu.Unlock()

	if gate != nil {
		select {
		case entered <- struct{}{}:
		default:
		}
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	if b, ok := f.balances[account]; ok {
		return new(big.Int).Set(b), nil
	}
	return new(big.Int), nil
}

func (f *fakeGateway) NetworkID(ctx context.Context) (uint64, error) {
	return f.networkID, nil
}

func (f *fakeGateway) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.subCtx = ctx
	f.events = make(chan domain.Event)
	return f.events, nil
}

// emit delivers ev to the current subscriber. It returns false if the
// subscription ended first.
func (f *fakeGateway) emit(ev domain.Event) bool {
	f.mu.Lock()
	ctx, ch := f.subCtx, f.events
	f.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-time.After(time.Second):
		return false
	}
}

func (f *fakeGateway) subscriptionDone() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subCtx != nil && f.subCtx.Err() != nil
}

func (f *fakeGateway) Submit(ctx context.Context, from common.Address, req domain.Request) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	return common.BigToHash(big.NewInt(int64(len(f.submitted)))), nil
}

func (f *fakeGateway) WaitConfirmed(ctx context.Context, tx common.Hash) (*domain.Receipt, error) {
	f.mu.Lock()
	confirm := f.confirm
	f.mu.Unlock()

	if confirm != nil {
		select {
		case <-confirm:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.confirmErr != nil {
		return nil, f.confirmErr
	}
	r := *f.receipt
	r.TxHash = tx
	return &r, nil
}

func (f *fakeGateway) Query(ctx context.Context, req domain.Request, out any) error {
	f.mu.Lock()
	f.queried = append(f.queried, req)
	fn := f.queryFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, req, out)
	}
	return nil
}

func (f *fakeGateway) counts() (access, balance int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accessCalls, f.balanceCalls
}

// recordingMetrics is a ports.Metrics that keeps every call.
type recordingMetrics struct {
	mu       sync.Mutex
	started  []string
	finished []string
	statuses []string
}

func (m *recordingMetrics) CallStarted(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = append(m.started, op)
}

func (m *recordingMetrics) CallFinished(op, outcome string, _ time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = append(m.finished, op+":"+outcome)
}

func (m *recordingMetrics) SessionStatus(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
}
