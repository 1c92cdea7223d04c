package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bft-labs/caseledger/internal/domain"
	"github.com/bft-labs/caseledger/internal/ports"
	"github.com/bft-labs/caseledger/internal/store"
)

// Dispatcher runs every domain operation through one request lifecycle:
// connect on demand, mark the call outstanding, talk to the gateway, then
// record the outcome in the shared store.
//
// Calls on different identifiers are not serialized against each other.
type Dispatcher struct {
	gw          ports.Gateway
	store       *store.Store
	session     *SessionManager
	logger      ports.Logger
	metrics     ports.Metrics
	tracer      trace.Tracer
	callTimeout time.Duration
}

// NewDispatcher creates a dispatcher that connects through session.
func NewDispatcher(gw ports.Gateway, st *store.Store, session *SessionManager, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		gw:          gw,
		store:       st,
		session:     session,
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		tracer:      opts.TracerProvider.Tracer(tracerName),
		callTimeout: opts.CallTimeout,
	}
}

// Write submits a state-mutating request and returns its receipt once the
// gateway reports it finalized. A reverted transaction is a CallReverted
// fault and yields no receipt.
func (d *Dispatcher) Write(ctx context.Context, req domain.Request) (*domain.Receipt, error) {
	op := req.Op()
	if op.Kind != domain.OpWrite {
		return nil, fmt.Errorf("%s is not a write operation", op.Name)
	}

	var receipt *domain.Receipt
	err := d.dispatch(ctx, op, func(ctx context.Context) error {
		from, ok := d.store.Account()
		if !ok {
			return domain.NewFault(domain.FaultNotConnected, op.Name, errors.New("no active account"))
		}

		tx, err := d.gw.Submit(ctx, from, req)
		if err != nil {
			return classifySubmit(op.Name, err)
		}
		d.logger.Debug("transaction submitted",
			ports.String("op", op.Name),
			ports.String("tx", tx.Hex()),
		)

		r, err := d.gw.WaitConfirmed(ctx, tx)
		if err != nil {
			return domain.NewFault(domain.FaultCallReverted, op.Name, fmt.Errorf("await %s: %w", tx.Hex(), err))
		}
		if !r.Succeeded() {
			return domain.NewFault(domain.FaultCallReverted, op.Name,
				fmt.Errorf("transaction %s reverted in block %d: %w", tx.Hex(), r.BlockNumber, ports.ErrExecutionReverted))
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

// Query performs a read request and decodes the record into out.
func (d *Dispatcher) Query(ctx context.Context, req domain.Request, out any) error {
	op := req.Op()
	if op.Kind != domain.OpRead {
		return fmt.Errorf("%s is not a read operation", op.Name)
	}

	return d.dispatch(ctx, op, func(ctx context.Context) error {
		if err := d.gw.Query(ctx, req, out); err != nil {
			return domain.NewFault(domain.FaultQueryFailed, op.Name, err)
		}
		return nil
	})
}

// dispatch wraps call with the shared loading/error bookkeeping, the lazy
// connect guard, tracing and metrics.
func (d *Dispatcher) dispatch(ctx context.Context, op domain.Operation, call func(context.Context) error) (err error) {
	start := time.Now()
	d.store.BeginCall()
	d.metrics.CallStarted(op.Name)

	ctx, span := d.tracer.Start(ctx, "dispatch "+op.Name, trace.WithAttributes(
		attribute.String("caseledger.operation", op.Name),
		attribute.String("caseledger.contract", string(op.Contract)),
		attribute.String("caseledger.kind", op.Kind.String()),
	))

	defer func() {
		outcome, msg := "ok", ""
		if err != nil {
			outcome, msg = domain.KindOf(err).String(), err.Error()
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			d.logger.Error("call failed",
				ports.String("op", op.Name),
				ports.String("fault", outcome),
				ports.Err(err),
			)
		}
		span.SetAttributes(attribute.String("caseledger.outcome", outcome))
		span.End()

		d.metrics.CallFinished(op.Name, outcome, time.Since(start))
		d.store.EndCall(msg)
	}()

	if d.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.callTimeout)
		defer cancel()
	}

	if err := d.ensureConnected(ctx, op.Name); err != nil {
		return err
	}
	return call(ctx)
}

// ensureConnected connects the session on demand.
func (d *Dispatcher) ensureConnected(ctx context.Context, op string) error {
	if d.store.Status() == domain.StatusConnected {
		return nil
	}
	if err := d.session.Connect(ctx); err != nil {
		return domain.NewFault(domain.FaultNotConnected, op, err)
	}
	return nil
}

func classifySubmit(op string, err error) error {
	if errors.Is(err, ports.ErrExecutionReverted) {
		return domain.NewFault(domain.FaultCallReverted, op, err)
	}
	return domain.NewFault(domain.FaultCallRejected, op, err)
}
