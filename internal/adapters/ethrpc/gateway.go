// Package ethrpc implements the ledger gateway over Ethereum JSON-RPC.
//
// Account access, signing and submission are delegated to the endpoint
// (a wallet bridge or a node with unlocked accounts). Contract calls are
// encoded with the contract ABIs and routed through a deployment address
// book.
package ethrpc

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"slices"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"

	"github.com/bft-labs/caseledger/internal/adapters/log"
	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/ports"
)

// Default configuration values.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultRateLimit    = 20.0
	DefaultBurst        = 10
)

// Config holds gateway settings.
type Config struct {
	// URL is the JSON-RPC endpoint (http, ws or ipc).
	URL string

	// Addresses routes each contract to its deployment.
	Addresses domain.AddressBook

	// From pins the signing account. When zero the first exposed account is used.
	From common.Address

	// PollInterval is how often accounts and chain id are polled for changes.
	PollInterval time.Duration

	// ConfirmPollInterval and ConfirmPollMax bound the receipt polling backoff.
	ConfirmPollInterval time.Duration
	ConfirmPollMax      time.Duration

	// RateLimit caps outbound requests per second. Zero disables limiting.
	RateLimit float64
	Burst     int

	Logger ports.Logger
}

func (c Config) withDefaults() Config {
	if c.Addresses == nil {
		c.Addresses = domain.DefaultAddressBook()
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ConfirmPollInterval <= 0 {
		c.ConfirmPollInterval = DefaultConfirmPollInterval
	}
	if c.ConfirmPollMax <= 0 {
		c.ConfirmPollMax = DefaultConfirmPollMax
	}
	if c.Burst <= 0 {
		c.Burst = DefaultBurst
	}
	if c.Logger == nil {
		c.Logger = &log.NoopLogger{}
	}
	return c
}

// Gateway is a ports.Gateway backed by a JSON-RPC client.
type Gateway struct {
	cfg     Config
	rpc     *rpc.Client
	eth     *ethclient.Client
	limiter *rate.Limiter
	logger  ports.Logger

	// pending remembers the route of submitted transactions until confirmed.
	mu      sync.Mutex
	pending map[common.Hash]sendArgs
}

var _ ports.Gateway = (*Gateway)(nil)

// Dial connects to cfg.URL. A failed dial wraps ports.ErrProviderNotFound.
func Dial(ctx context.Context, cfg Config) (*Gateway, error) {
	client, err := rpc.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w: %w", cfg.URL, ports.ErrProviderNotFound, err)
	}
	return NewGateway(client, cfg), nil
}

// NewGateway wraps an established RPC client.
func NewGateway(client *rpc.Client, cfg Config) *Gateway {
	cfg = cfg.withDefaults()
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	return &Gateway{
		cfg:     cfg,
		rpc:     client,
		eth:     ethclient.NewClient(client),
		limiter: rate.NewLimiter(limit, cfg.Burst),
		logger:  cfg.Logger,
		pending: make(map[common.Hash]sendArgs),
	}
}

// Close releases the underlying connection.
func (g *Gateway) Close() {
	g.rpc.Close()
}

func (g *Gateway) call(ctx context.Context, result any, method string, args ...any) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return err
	}
	return classify(method, g.rpc.CallContext(ctx, result, method, args...))
}

// RequestAccess calls eth_requestAccounts, falling back to eth_accounts on
// endpoints that do not implement the wallet method.
func (g *Gateway) RequestAccess(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	err := g.call(ctx, &accounts, "eth_requestAccounts")
	if isMethodNotFound(err) {
		g.logger.Debug("eth_requestAccounts not supported, using eth_accounts")
		accounts, err = g.accounts(ctx)
	}
	if err != nil {
		if ctx.Err() == nil && isTransport(err) {
			return nil, fmt.Errorf("%w: %w", ports.ErrProviderNotFound, err)
		}
		return nil, err
	}
	return accounts, nil
}

func (g *Gateway) accounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := g.call(ctx, &accounts, "eth_accounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

// CurrentAccount returns the pinned account or the first exposed one.
func (g *Gateway) CurrentAccount(ctx context.Context) (common.Address, error) {
	accounts, err := g.accounts(ctx)
	if err != nil {
		return common.Address{}, err
	}
	if len(accounts) == 0 {
		return common.Address{}, errors.New("no accounts exposed")
	}
	signers := g.signers(accounts)
	if len(signers) == 0 {
		return common.Address{}, fmt.Errorf("account %s not exposed by provider", g.cfg.From.Hex())
	}
	return signers[0], nil
}

// signers orders accounts so that the signing account comes first. When
// an account is pinned and no longer exposed the result is empty.
func (g *Gateway) signers(accounts []common.Address) []common.Address {
	if g.cfg.From == (common.Address{}) {
		return accounts
	}
	i := slices.Index(accounts, g.cfg.From)
	if i < 0 {
		return nil
	}
	out := make([]common.Address, 0, len(accounts))
	out = append(out, accounts[i])
	out = append(out, accounts[:i]...)
	return append(out, accounts[i+1:]...)
}

// Balance returns the latest balance of account in wei.
func (g *Gateway) Balance(ctx context.Context, account common.Address) (*big.Int, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	bal, err := g.eth.BalanceAt(ctx, account, nil)
	if err != nil {
		return nil, classify("eth_getBalance", err)
	}
	return bal, nil
}

// NetworkID returns the chain id.
func (g *Gateway) NetworkID(ctx context.Context) (uint64, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return 0, err
	}
	id, err := g.eth.ChainID(ctx)
	if err != nil {
		return 0, classify("eth_chainId", err)
	}
	if !id.IsUint64() {
		return 0, fmt.Errorf("chain id %s out of range", id)
	}
	return id.Uint64(), nil
}

// sendArgs are the eth_sendTransaction parameters. Signing and gas
// estimation are left to the endpoint.
type sendArgs struct {
	From  common.Address `json:"from"`
	To    common.Address `json:"to"`
	Data  hexutil.Bytes  `json:"data"`
	Value *hexutil.Big   `json:"value,omitempty"`
}

// callArgs are the eth_call parameters.
type callArgs struct {
	From *common.Address `json:"from,omitempty"`
	To   common.Address  `json:"to"`
	Data hexutil.Bytes   `json:"data"`
}

// Submit encodes req and sends it with eth_sendTransaction.
func (g *Gateway) Submit(ctx context.Context, from common.Address, req domain.Request) (common.Hash, error) {
	op := req.Op()
	to, err := g.cfg.Addresses.Lookup(op.Contract)
	if err != nil {
		return common.Hash{}, err
	}
	data, err := pack(req)
	if err != nil {
		return common.Hash{}, err
	}

	args := sendArgs{From: from, To: to, Data: data}
	if v := req.Value(); v != nil && v.Sign() > 0 {
		args.Value = (*hexutil.Big)(v)
	}

	var hash common.Hash
	if err := g.call(ctx, &hash, "eth_sendTransaction", args); err != nil {
		return common.Hash{}, err
	}
	g.mu.Lock()
	g.pending[hash] = sendArgs{From: from, To: to}
	g.mu.Unlock()

	g.logger.Debug("transaction submitted",
		ports.String("operation", op.Name),
		ports.String("tx", hash.Hex()),
	)
	return hash, nil
}

// WaitConfirmed polls for the receipt of tx. A pending receipt is polled
// again after ConfirmPollInterval; failed polls back off up to
// ConfirmPollMax. It does not time out on its own; only ctx ends the wait.
func (g *Gateway) WaitConfirmed(ctx context.Context, tx common.Hash) (*domain.Receipt, error) {
	bo := newBackoff(g.cfg.ConfirmPollInterval, g.cfg.ConfirmPollMax)
	for {
		if err := g.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		r, err := g.eth.TransactionReceipt(ctx, tx)
		switch {
		case err == nil:
			out := &domain.Receipt{
				TxHash:  r.TxHash,
				GasUsed: r.GasUsed,
				Status:  r.Status,
			}
			if r.BlockNumber != nil {
				out.BlockNumber = r.BlockNumber.Uint64()
			}
			g.mu.Lock()
			if route, ok := g.pending[tx]; ok {
				out.From, out.To = route.From, route.To
				delete(g.pending, tx)
			}
			g.mu.Unlock()
			return out, nil
		case errors.Is(err, ethereum.NotFound):
			// pending
			bo.Reset()
		case ctx.Err() != nil:
			return nil, ctx.Err()
		default:
			g.logger.Warn("receipt poll failed",
				ports.String("tx", tx.Hex()),
				ports.Duration("retry_in", bo.Current()),
				ports.Err(err),
			)
		}
		if err := bo.Wait(ctx); err != nil {
			return nil, err
		}
	}
}

// Query encodes req, runs it with eth_call against the latest block and
// decodes the result into out.
func (g *Gateway) Query(ctx context.Context, req domain.Request, out any) error {
	op := req.Op()
	to, err := g.cfg.Addresses.Lookup(op.Contract)
	if err != nil {
		return err
	}
	data, err := pack(req)
	if err != nil {
		return err
	}

	args := callArgs{To: to, Data: data}
	if g.cfg.From != (common.Address{}) {
		from := g.cfg.From
		args.From = &from
	}

	var result hexutil.Bytes
	if err := g.call(ctx, &result, "eth_call", args, "latest"); err != nil {
		return err
	}
	return unpack(op, result, out)
}
