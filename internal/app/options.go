package app

import (
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	logAdapter "github.com/bft-labs/caseledger/internal/adapters/log"
	"github.com/bft-labs/caseledger/internal/metrics"
	"github.com/bft-labs/caseledger/internal/ports"
)

const tracerName = "github.com/bft-labs/caseledger/internal/app"

// ReloadFunc is called when the client must be rebuilt from scratch,
// e.g. after the gateway switched networks.
type ReloadFunc func(reason string)

// Options carries the collaborators shared by the session manager and the
// dispatcher. Zero values are replaced with no-op implementations.
type Options struct {
	Logger         ports.Logger
	Metrics        ports.Metrics
	TracerProvider trace.TracerProvider

	// OnReload is invoked on a network change. When nil the session is
	// disconnected so that the next call reconnects from scratch.
	OnReload ReloadFunc

	// CallTimeout bounds each dispatcher call, confirmation wait included.
	// Zero means no timeout.
	CallTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = logAdapter.NewNoopLogger()
	}
	if o.Metrics == nil {
		o.Metrics = metrics.NewNopMetrics()
	}
	if o.TracerProvider == nil {
		o.TracerProvider = otel.GetTracerProvider()
	}
	return o
}
