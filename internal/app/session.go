package app

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ethereum/go-ethereum/common"

	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/ports"
	"github.com/bft-labs/caseledger/internal/store"
)

// ShutdownTimeout is the maximum time Close waits for the event watcher.
const ShutdownTimeout = 5 * time.Second

const opConnect = "connect"

// SessionManager owns the connection to the gateway and turns external
// lifecycle signals into session transitions.
type SessionManager struct {
	gw       ports.Gateway
	store    *store.Store
	logger   ports.Logger
	tracer   trace.Tracer
	onReload ReloadFunc

	// connectMu serializes handshakes so concurrent callers share one.
	connectMu sync.Mutex

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	unsubscribe func()
}

// NewSessionManager creates a manager for the session held in st.
func NewSessionManager(gw ports.Gateway, st *store.Store, opts Options) *SessionManager {
	opts = opts.withDefaults()
	m := &SessionManager{
		gw:       gw,
		store:    st,
		logger:   opts.Logger,
		tracer:   opts.TracerProvider.Tracer(tracerName),
		onReload: opts.OnReload,
	}
	if m.onReload == nil {
		m.onReload = func(string) { m.Disconnect() }
	}

	metrics := opts.Metrics
	m.unsubscribe = st.Subscribe(func(s domain.Session) {
		metrics.SessionStatus(s.Status.String())
	})
	return m
}

// Connect performs the handshake with the gateway. It is a no-op when the
// session is already connected, and may be retried after a failure.
func (m *SessionManager) Connect(ctx context.Context) error {
	m.connectMu.Lock()
	defer m.connectMu.Unlock()

	if m.store.Status() == domain.StatusConnected {
		return nil
	}

	ctx, span := m.tracer.Start(ctx, "session.connect")
	defer span.End()

	if err := m.store.BeginConnect(); err != nil {
		return err
	}
	m.logger.Info("connecting to gateway")

	account, err := m.handshake(ctx)
	if err != nil {
		m.fail(span, err)
		return err
	}

	// The watcher outlives the caller's context; Disconnect stops it.
	watchCtx, cancel := context.WithCancel(context.Background())
	events, err := m.gw.Subscribe(watchCtx)
	if err != nil {
		cancel()
		err = domain.NewFault(domain.FaultGatewayUnavailable, opConnect, err)
		m.fail(span, err)
		return err
	}

	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	if err := m.store.SetConnected(account.address, account.balance, account.networkID); err != nil {
		// Disconnect won the race while the handshake was in flight.
		cancel()
		err = domain.NewFault(domain.FaultNotConnected, opConnect, errors.New("disconnected during handshake"))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	m.wg.Add(1)
	go m.watch(watchCtx, events)

	span.SetAttributes(
		attribute.String("caseledger.account", account.address.Hex()),
		attribute.Int64("caseledger.network_id", int64(account.networkID)),
	)
	m.logger.Info("session connected",
		ports.String("account", account.address.Hex()),
		ports.String("balance", domain.FormatEther(account.balance)),
		ports.Uint64("network_id", account.networkID),
	)
	return nil
}

type handshakeResult struct {
	address   common.Address
	balance   *big.Int
	networkID uint64
}

func (m *SessionManager) handshake(ctx context.Context) (handshakeResult, error) {
	var res handshakeResult

	accounts, err := m.gw.RequestAccess(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrProviderNotFound) {
			return res, domain.NewFault(domain.FaultGatewayUnavailable, opConnect, err)
		}
		return res, domain.NewFault(domain.FaultAccessDenied, opConnect, err)
	}
	if len(accounts) == 0 {
		return res, domain.NewFault(domain.FaultAccessDenied, opConnect, errors.New("no accounts exposed"))
	}

	if res.address, err = m.gw.CurrentAccount(ctx); err != nil {
		return res, domain.NewFault(domain.FaultQueryFailed, opConnect, err)
	}
	if res.balance, err = m.gw.Balance(ctx, res.address); err != nil {
		return res, domain.NewFault(domain.FaultQueryFailed, opConnect, err)
	}
	if res.networkID, err = m.gw.NetworkID(ctx); err != nil {
		return res, domain.NewFault(domain.FaultQueryFailed, opConnect, err)
	}
	return res, nil
}

func (m *SessionManager) fail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if serr := m.store.SetFailed(err.Error()); serr != nil {
		// A concurrent Disconnect already reset the session.
		m.store.SetLastError(err.Error())
	}
	m.logger.Error("connect failed", ports.Err(err))
}

// Disconnect clears the session and stops listening for gateway events.
// It is safe to call at any time, any number of times.
func (m *SessionManager) Disconnect() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	if prev := m.store.SetDisconnected(); prev != domain.StatusDisconnected {
		m.logger.Info("session disconnected", ports.String("from", prev.String()))
	}
}

// Close disconnects and waits for the event watcher to exit.
func (m *SessionManager) Close() error {
	m.Disconnect()
	m.unsubscribe()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(ShutdownTimeout):
		m.logger.Warn("event watcher did not stop", ports.Duration("timeout", ShutdownTimeout))
		return domain.ErrShutdownTimeout
	}
}

// HandleAccountsChanged applies an accountsChanged signal. An empty set
// disconnects. A new first account replaces the current one and its
// balance is fetched once; a failed fetch keeps the session connected.
func (m *SessionManager) HandleAccountsChanged(ctx context.Context, accounts []common.Address) {
	if len(accounts) == 0 {
		m.logger.Info("gateway revoked account access")
		m.Disconnect()
		return
	}

	next := accounts[0]
	if !m.store.SetAccount(next) {
		return
	}
	m.logger.Info("account switched", ports.String("account", next.Hex()))

	balance, err := m.gw.Balance(ctx, next)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		fault := domain.NewFault(domain.FaultQueryFailed, "balance", err)
		m.logger.Warn("balance refresh failed", ports.String("account", next.Hex()), ports.Err(err))
		m.store.SetLastError(fault.Error())
		return
	}
	m.store.SetBalance(next, balance)
}

// HandleChainChanged applies a chainChanged signal by requesting a reload.
func (m *SessionManager) HandleChainChanged(networkID uint64) {
	m.logger.Warn("network changed, reloading client", ports.Uint64("network_id", networkID))
	m.onReload("network changed")
}

func (m *SessionManager) watch(ctx context.Context, events <-chan domain.Event) {
	defer m.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				if ctx.Err() == nil {
					m.logger.Warn("gateway event stream closed")
				}
				return
			}
			switch ev.Kind {
			case domain.EventAccountsChanged:
				m.HandleAccountsChanged(ctx, ev.Accounts)
			case domain.EventChainChanged:
				m.HandleChainChanged(ev.NetworkID)
			default:
				m.logger.Debug("ignoring gateway event", ports.String("kind", ev.Kind.String()))
			}
		}
	}
}
