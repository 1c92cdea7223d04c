// Package simulated provides an in-memory ledger that implements
// ports.Gateway. Writes execute against local contract state and are
// confirmed instantly unless confirmations are held.
package simulated

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/bft-labs/caseledger/internal/adapters/log"
	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/ports"
)

// DefaultChainID is the network id reported by a new ledger.
const DefaultChainID uint64 = 31337

// Dev accounts funded by New.
var (
	DevAccount0 = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	DevAccount1 = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithAccounts replaces the exposed accounts, each funded with balance wei.
func WithAccounts(balance *big.Int, accounts ...common.Address) Option {
	return func(l *Ledger) {
		l.accounts = append([]common.Address(nil), accounts...)
		for _, a := range accounts {
			l.balances[a] = new(big.Int).Set(balance)
		}
	}
}

// WithChainID sets the reported network id.
func WithChainID(id uint64) Option {
	return func(l *Ledger) { l.chainID = id }
}

// WithClock sets the time source used for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger ports.Logger) Option {
	return func(l *Ledger) { l.logger = logger }
}

// Ledger is an in-memory ports.Gateway.
type Ledger struct {
	mu sync.Mutex

	accounts []common.Address
	balances map[common.Address]*big.Int
	chainID  uint64
	denied   bool
	now      func() time.Time
	logger   ports.Logger

	state *contracts

	nonce    uint64
	block    uint64
	hold     bool
	txs      map[common.Hash]*domain.Receipt
	released chan struct{}

	nextSub int
	subs    map[int]chan domain.Event
}

var _ ports.Gateway = (*Ledger)(nil)

// New creates a ledger exposing two funded dev accounts.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		balances: make(map[common.Address]*big.Int),
		chainID:  DefaultChainID,
		now:      time.Now,
		logger:   &log.NoopLogger{},
		state:    newContracts(),
		txs:      make(map[common.Hash]*domain.Receipt),
		released: make(chan struct{}),
		subs:     make(map[int]chan domain.Event),
	}
	WithAccounts(new(big.Int).Mul(big.NewInt(10000), big.NewInt(1e18)), DevAccount0, DevAccount1)(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// DenyAccess makes RequestAccess fail as if the user declined.
func (l *Ledger) DenyAccess(deny bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.denied = deny
}

// HoldConfirmations stops writes from confirming until released with
// HoldConfirmations(false).
func (l *Ledger) HoldConfirmations(hold bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hold && !hold {
		close(l.released)
		l.released = make(chan struct{})
	}
	l.hold = hold
}

// SetAccounts changes the exposed accounts and emits accountsChanged.
func (l *Ledger) SetAccounts(accounts ...common.Address) {
	l.mu.Lock()
	l.accounts = append([]common.Address(nil), accounts...)
	for _, a := range accounts {
		if _, ok := l.balances[a]; !ok {
			l.balances[a] = new(big.Int)
		}
	}
	l.mu.Unlock()
	l.emit(domain.Event{Kind: domain.EventAccountsChanged, Accounts: slices.Clone(accounts)})
}

// SetChainID changes the network id and emits chainChanged.
func (l *Ledger) SetChainID(id uint64) {
	l.mu.Lock()
	l.chainID = id
	l.mu.Unlock()
	l.emit(domain.Event{Kind: domain.EventChainChanged, NetworkID: id})
}

func (l *Ledger) emit(ev domain.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, ch := range l.subs {
		// each subscriber owns its account list
		out := ev
		out.Accounts = slices.Clone(ev.Accounts)
		select {
		case ch <- out:
		default:
			l.logger.Warn("subscriber lagging, event dropped",
				ports.Int("subscriber", id),
				ports.String("event", ev.Kind.String()),
			)
		}
	}
}

// RequestAccess returns the exposed accounts.
func (l *Ledger) RequestAccess(ctx context.Context) ([]common.Address, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.denied {
		return nil, fmt.Errorf("request accounts: %w", ports.ErrUserRejected)
	}
	return append([]common.Address(nil), l.accounts...), nil
}

// CurrentAccount returns the first exposed account.
func (l *Ledger) CurrentAccount(ctx context.Context) (common.Address, error) {
	if err := ctx.Err(); err != nil {
		return common.Address{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.accounts) == 0 {
		return common.Address{}, fmt.Errorf("no accounts exposed")
	}
	return l.accounts[0], nil
}

// Balance returns the balance of account in wei.
func (l *Ledger) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if bal, ok := l.balances[account]; ok {
		return new(big.Int).Set(bal), nil
	}
	return new(big.Int), nil
}

// NetworkID returns the chain id.
func (l *Ledger) NetworkID(ctx context.Context) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chainID, nil
}

// Subscribe delivers account and chain changes until ctx is done.
func (l *Ledger) Subscribe(ctx context.Context) (<-chan domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	in := make(chan domain.Event, 16)
	out := make(chan domain.Event)

	l.mu.Lock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = in
	l.mu.Unlock()

	go func() {
		defer close(out)
		defer func() {
			l.mu.Lock()
			delete(l.subs, id)
			l.mu.Unlock()
		}()
		for {
			select {
			case <-ctx.Done():
				return
			case ev := <-in:
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Submit executes req as from. A failing execution is recorded with a
// failed receipt; malformed arguments are rejected before submission.
func (l *Ledger) Submit(ctx context.Context, from common.Address, req domain.Request) (common.Hash, error) {
	if err := ctx.Err(); err != nil {
		return common.Hash{}, err
	}
	op := req.Op()
	if op.Kind != domain.OpWrite {
		return common.Hash{}, fmt.Errorf("%s is not a write", op.Name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.exposed(from) {
		return common.Hash{}, fmt.Errorf("%w: account %s not exposed", ports.ErrUserRejected, from.Hex())
	}
	value := req.Value()
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !op.Payable {
		return common.Hash{}, fmt.Errorf("%s does not accept value", op.Name)
	}
	if l.balances[from] == nil || l.balances[from].Cmp(value) < 0 {
		return common.Hash{}, fmt.Errorf("insufficient funds for transfer")
	}

	call := &txContext{
		from:     from,
		value:    value,
		now:      uint64(l.now().Unix()),
		balances: l.balances,
	}
	status := domain.ReceiptStatusSuccessful
	if err := l.state.execute(call, req); err != nil {
		if !isRevert(err) {
			return common.Hash{}, err
		}
		l.logger.Debug("simulated execution reverted",
			ports.String("operation", op.Name),
			ports.Err(err),
		)
		status = domain.ReceiptStatusFailed
	}

	l.nonce++
	l.block++
	hash := crypto.Keccak256Hash(from.Bytes(), new(big.Int).SetUint64(l.nonce).Bytes())
	l.txs[hash] = &domain.Receipt{
		TxHash:      hash,
		From:        from,
		To:          contractAddress(op.Contract),
		BlockNumber: l.block,
		GasUsed:     21000,
		Status:      status,
	}
	return hash, nil
}

func (l *Ledger) exposed(a common.Address) bool {
	for _, acc := range l.accounts {
		if acc == a {
			return true
		}
	}
	return false
}

// WaitConfirmed returns the receipt of tx, blocking while confirmations
// are held.
func (l *Ledger) WaitConfirmed(ctx context.Context, tx common.Hash) (*domain.Receipt, error) {
	for {
		l.mu.Lock()
		r, ok := l.txs[tx]
		hold, released := l.hold, l.released
		l.mu.Unlock()

		if !ok {
			return nil, fmt.Errorf("unknown transaction %s", tx.Hex())
		}
		if !hold {
			out := *r
			return &out, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-released:
		}
	}
}

// Query runs a read against the current state and copies the result into out.
func (l *Ledger) Query(ctx context.Context, req domain.Request, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if req.Op().Kind != domain.OpRead {
		return fmt.Errorf("%s is not a read", req.Op().Name)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.read(req, out)
}

func contractAddress(c domain.Contract) common.Address {
	return domain.DefaultAddressBook()[c]
}
