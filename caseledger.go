// Package caseledger is a client for the judicial case-management contracts.
//
// A Client owns one session with a ledger gateway and dispatches typed
// contract operations through it, connecting lazily on first use:
//
//	gw, err := ethrpc.Dial(ctx, ethrpc.Config{URL: "http://127.0.0.1:8545"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c := caseledger.New(gw)
//	defer c.Close()
//	receipt, err := c.CreateCase(ctx, "CASE-2024-01", "Theft investigation", "...")
package caseledger

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/bft-labs/caseledger/internal/app"
	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/ports"
	"github.com/bft-labs/caseledger/internal/store"
)

// Re-exported domain types.
type (
	Session        = domain.Session
	Status         = domain.Status
	Receipt        = domain.Receipt
	Request        = domain.Request
	Operation      = domain.Operation
	Fault          = domain.Fault
	FaultKind      = domain.FaultKind
	AddressBook    = domain.AddressBook
	CaseRecord     = domain.CaseRecord
	WitnessRecord  = domain.WitnessRecord
	EvidenceRecord = domain.EvidenceRecord
	ProposalRecord = domain.ProposalRecord
	PaymentRecord  = domain.PaymentRecord

	// Gateway is the remote ledger gateway a Client talks to.
	Gateway = ports.Gateway

	// Logger is the interface for structured logging.
	Logger = ports.Logger

	// Metrics receives dispatcher and session instrumentation.
	Metrics = ports.Metrics

	// ReloadFunc is called when the client must be rebuilt, e.g. after a
	// network change.
	ReloadFunc = app.ReloadFunc
)

// Session statuses.
const (
	StatusDisconnected = domain.StatusDisconnected
	StatusConnecting   = domain.StatusConnecting
	StatusConnected    = domain.StatusConnected
	StatusError        = domain.StatusError
)

// Fault sentinels, matched with errors.Is.
var (
	ErrGatewayUnavailable = domain.ErrGatewayUnavailable
	ErrAccessDenied       = domain.ErrAccessDenied
	ErrCallRejected       = domain.ErrCallRejected
	ErrCallReverted       = domain.ErrCallReverted
	ErrQueryFailed        = domain.ErrQueryFailed
	ErrNotConnected       = domain.ErrNotConnected
	ErrShutdownTimeout    = domain.ErrShutdownTimeout
)

// ParseEther converts a decimal ether amount to wei.
var ParseEther = domain.ParseEther

// FormatEther renders wei as a decimal ether amount.
var FormatEther = domain.FormatEther

// Option configures optional behavior of a Client.
type Option func(*app.Options)

// WithLogger sets a custom logger. If not provided, nothing is logged.
func WithLogger(logger Logger) Option {
	return func(o *app.Options) { o.Logger = logger }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(o *app.Options) { o.Metrics = m }
}

// WithTracerProvider sets the provider for connect and dispatch spans.
// The global provider is used by default.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *app.Options) { o.TracerProvider = tp }
}

// WithCallTimeout bounds every operation, confirmation wait included.
// By default calls wait as long as their context allows.
func WithCallTimeout(d time.Duration) Option {
	return func(o *app.Options) { o.CallTimeout = d }
}

// WithReloadHandler sets the handler for network changes. By default the
// session is disconnected and the next call reconnects.
func WithReloadHandler(fn ReloadFunc) Option {
	return func(o *app.Options) { o.OnReload = fn }
}

// Client is the single session and dispatcher over one gateway. The typed
// operations (CreateCase, GetCase, CastVote, ...) are promoted from the
// embedded dispatcher.
type Client struct {
	*app.Dispatcher

	store   *store.Store
	session *app.SessionManager
}

// New creates a client over gw. Nothing is requested from the gateway
// until Connect or the first operation.
func New(gw Gateway, opts ...Option) *Client {
	var o app.Options
	for _, opt := range opts {
		opt(&o)
	}
	st := store.New()
	sm := app.NewSessionManager(gw, st, o)
	return &Client{
		Dispatcher: app.NewDispatcher(gw, st, sm, o),
		store:      st,
		session:    sm,
	}
}

// Connect performs the gateway handshake. It is a no-op when connected.
func (c *Client) Connect(ctx context.Context) error {
	return c.session.Connect(ctx)
}

// Disconnect clears the session without contacting the gateway.
func (c *Client) Disconnect() {
	c.session.Disconnect()
}

// Session returns a snapshot of the current session.
func (c *Client) Session() Session {
	return c.store.Snapshot()
}

// Subscribe registers fn for every session change and returns a function
// that removes it.
func (c *Client) Subscribe(fn func(Session)) (unsubscribe func()) {
	return c.store.Subscribe(fn)
}

// Close tears the client down. The client must not be used afterwards.
func (c *Client) Close() error {
	err := c.session.Close()
	c.store.Close()
	return err
}
